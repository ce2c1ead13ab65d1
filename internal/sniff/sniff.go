// Package sniff makes advisory guesses about Base64 input: whether a prefix
// looks like Base64 at all, and whether it decodes to text. The guess only
// picks a default output name; the transcoder decides what is actually valid.
package sniff

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/JonMunkholm/beb64/internal/codec"
)

// DefaultSampleSize is the number of leading bytes inspected.
const DefaultSampleSize = 4096

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Classification is the result of sampling a Base64 source.
type Classification struct {
	Base64      bool   `json:"base64"`
	Text        bool   `json:"text"`
	BOM         bool   `json:"bom"`
	Truncated   bool   `json:"truncated"`
	Sampled     int    `json:"sampled"`
	ContentType string `json:"content_type,omitempty"`
	Extension   string `json:"extension"`
}

// Classify reads up to sampleSize bytes from r and classifies them. A
// sampleSize of zero uses DefaultSampleSize. r is left positioned after the
// sample.
func Classify(r io.Reader, sampleSize int) (Classification, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	// One extra byte tells a complete input apart from a prefix.
	buf := make([]byte, sampleSize+1)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Classification{}, fmt.Errorf("read sample: %w", err)
	}

	truncated := n > sampleSize
	if truncated {
		n = sampleSize
	}
	return ClassifyBytes(buf[:n], truncated), nil
}

// ClassifyBytes classifies sample. truncated reports whether sample is a
// strict prefix of a longer input, in which case trailing partial groups and
// partial runes are ignored.
func ClassifyBytes(sample []byte, truncated bool) Classification {
	c := Classification{Sampled: len(sample), Truncated: truncated, Extension: ".bin"}

	if bytes.HasPrefix(sample, utf8BOM) {
		c.BOM = true
		sample = sample[len(utf8BOM):]
	}

	clean := codec.StripWhitespace(string(sample))
	if truncated {
		clean = clean[:len(clean)/4*4]
	}
	if !codec.IsValidBase64(clean) {
		return c
	}
	c.Base64 = true

	decoded, err := codec.DecodeLenient(clean)
	if err != nil {
		return c
	}

	c.ContentType = http.DetectContentType(decoded)
	text := decoded
	if truncated {
		text = text[:len(text)-incompleteTrailingBytes(text)]
	}
	c.Text = utf8.Valid(text)

	switch {
	case c.Text:
		c.Extension = ".txt"
	default:
		c.Extension = extensionForType(c.ContentType)
	}
	return c
}

var typeExtensions = map[string]string{
	"image/png":          ".png",
	"image/jpeg":         ".jpg",
	"image/gif":          ".gif",
	"image/webp":         ".webp",
	"image/bmp":          ".bmp",
	"application/pdf":    ".pdf",
	"application/zip":    ".zip",
	"application/x-gzip": ".gz",
	"audio/mpeg":         ".mp3",
	"video/mp4":          ".mp4",
}

func extensionForType(contentType string) string {
	if ext, ok := typeExtensions[contentType]; ok {
		return ext
	}
	return ".bin"
}

// incompleteTrailingBytes returns how many bytes at the end of data begin a
// multi-byte sequence that the cut-off sample did not finish.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
