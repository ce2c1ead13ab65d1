// Package transcode streams Base64 encoding and decoding between an
// io.Reader and an io.Writer.
//
// Input is consumed in fixed-size chunks. The encoder carries 0-2 bytes
// between chunks so every emitted group is complete; the decoder filters each
// chunk down to alphabet characters and carries 0-3 characters until a full
// 4-character group is available. Memory use is bounded by one chunk plus the
// carry regardless of input size.
package transcode

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

const (
	// DefaultChunkSize is used for file and network sources.
	DefaultChunkSize = 1 << 20

	// StringChunkSize is used for in-memory string input.
	StringChunkSize = 64 << 10

	// MaxNotices bounds the invalid-byte diagnostics kept per call.
	MaxNotices = 20

	// MIMELineLength is the conventional wrap column for encoded output.
	MIMELineLength = 76

	// UnknownSize disables size discovery and yields a single progress
	// report at completion.
	UnknownSize int64 = -1
)

// ErrCancelled is returned when the context is cancelled between chunks.
// The returned error also wraps the context's error.
var ErrCancelled = errors.New("transcode cancelled")

// ProgressFunc receives a percentage in [0,100]. Successive values within one
// call never decrease and the final value on success is exactly 100.
type ProgressFunc func(percent float64)

// Mode selects how the decoder treats bytes outside the Base64 alphabet.
type Mode int

const (
	// ModeLenient drops any non-alphabet byte and pads a truncated final
	// group with '='.
	ModeLenient Mode = iota

	// ModeStrict tolerates only ASCII whitespace; any other stray byte or a
	// truncated final group is malformed input.
	ModeStrict
)

func (m Mode) String() string {
	switch m {
	case ModeLenient:
		return "lenient"
	case ModeStrict:
		return "strict"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "lenient" or "strict".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "lenient":
		return ModeLenient, nil
	case "strict":
		return ModeStrict, nil
	default:
		return ModeLenient, fmt.Errorf("unknown decode mode %q", s)
	}
}

// Options configures a single transcode call. The zero value is usable.
type Options struct {
	// ChunkSize is the number of source bytes read per step.
	ChunkSize int

	// TotalSize is the source length used for progress. Zero means discover
	// it from the source (Size() or Stat()); UnknownSize disables discovery.
	TotalSize int64

	Progress ProgressFunc

	// Mode applies to decoding only.
	Mode Mode

	// RequireText makes decoding fail with an InvalidText error when the
	// decoded stream is not valid UTF-8.
	RequireText bool

	// WrapColumn inserts a newline after every WrapColumn encoded
	// characters. Zero disables wrapping. Encoding only.
	WrapColumn int

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Notice records one skipped input byte.
type Notice struct {
	Offset int64 `json:"offset"`
	Value  byte  `json:"value"`
}

// Stats summarizes a completed (or aborted) call.
type Stats struct {
	BytesRead    int64    `json:"bytes_read"`
	BytesWritten int64    `json:"bytes_written"`
	InvalidBytes int64    `json:"invalid_bytes"`
	PaddingAdded int      `json:"padding_added"`
	BOM          bool     `json:"bom"`
	Notices      []Notice `json:"notices,omitempty"`
}

// sourceSize reports the total length of r when it can be learned without
// consuming it.
func sourceSize(r io.Reader) int64 {
	switch s := r.(type) {
	case interface{ Size() int64 }:
		return s.Size()
	case interface{ Stat() (os.FileInfo, error) }:
		info, err := s.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return UnknownSize
		}
		return info.Size()
	}
	return UnknownSize
}

func (o Options) total(src io.Reader) int64 {
	if o.TotalSize != 0 {
		return o.TotalSize
	}
	return sourceSize(src)
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}

// flushSink flushes w if it buffers output.
func flushSink(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
