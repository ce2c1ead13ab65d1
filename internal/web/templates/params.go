// Package templates holds the templ components of the web UI. Edit the
// .templ files and run `templ generate`; the _templ.go files are generated.
package templates

import "fmt"

// IndexParams is what the landing page needs to know about the server.
type IndexParams struct {
	MaxUploadSize int64
	DecodeMode    string
	RequireKey    bool
}

// sizeLabel formats a byte count for the upload hint.
func sizeLabel(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
