package sniff

import (
	"path/filepath"
	"strings"
)

// PreviewLength is the number of Base64 characters shown before truncation.
const PreviewLength = 200

var textExtensions = map[string]bool{
	".txt":  true,
	".csv":  true,
	".json": true,
	".xml":  true,
}

// IsTextFile reports whether name has an extension treated as text.
func IsTextFile(name string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(name))]
}

// FriendlyType returns a display name for the file type of name.
func FriendlyType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".jpg", ".jpeg":
		return "JPEG Image"
	case ".png":
		return "PNG Image"
	case ".txt":
		return "Text File"
	case ".csv":
		return "CSV File"
	case ".json":
		return "JSON File"
	case ".xml":
		return "XML File"
	case ".pdf":
		return "PDF Document"
	case "":
		return "File"
	default:
		return strings.ToUpper(strings.TrimPrefix(ext, ".")) + " File"
	}
}

// EncodedName is the default output name when encoding source.
func EncodedName(source string) string {
	return "encoded" + filepath.Ext(source) + ".b64"
}

// DecodedName is the default output name for a decode with extension ext
// (as chosen by Classify). An encoded name such as "report.pdf.b64" keeps the
// inner extension.
func DecodedName(source, ext string) string {
	if inner := filepath.Ext(strings.TrimSuffix(source, filepath.Ext(source))); inner != "" && strings.EqualFold(filepath.Ext(source), ".b64") {
		ext = inner
	}
	return "decoded" + ext
}

// Preview truncates encoded to PreviewLength characters.
func Preview(encoded string) string {
	if len(encoded) <= PreviewLength {
		return encoded
	}
	return encoded[:PreviewLength] + "..."
}
