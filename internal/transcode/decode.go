package transcode

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/beb64/internal/codec"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// DecodeStream reads Base64 text from src and writes the decoded bytes to dst.
//
// A leading UTF-8 BOM is skipped. Bytes outside the alphabet are dropped
// (ModeLenient) or rejected (ModeStrict, whitespace excepted). Each chunk
// decodes the longest run of complete groups and carries the rest. At end of
// input a lenient decode pads a remainder of two or three characters with '=';
// a single leftover character cannot be padded and is malformed. Groups
// written before a failure stay written. For data after padding that is every
// group up to and including the padded one, whatever the chunk size.
func DecodeStream(ctx context.Context, src io.Reader, dst io.Writer, opts Options) (stats Stats, err error) {
	opts = opts.withDefaults()
	log := opts.Logger

	counter := &countingReader{r: src}
	bom := newBOMReader(counter)
	sink := &countingWriter{w: dst}
	progress := newProgressTracker(opts.Progress, opts.total(src))

	defer func() {
		stats.BytesRead = counter.n
		stats.BytesWritten = sink.n
		stats.BOM = bom.skipped
	}()

	var out io.Writer = sink
	var validator *transform.Writer
	if opts.RequireText {
		validator = transform.NewWriter(sink, encoding.UTF8Validator)
		out = validator
	}

	buf := make([]byte, opts.ChunkSize)
	pending := make([]byte, 0, opts.ChunkSize+3)
	decoded := make([]byte, base64.StdEncoding.DecodedLen(opts.ChunkSize+3))

	var pos int64 // offset into the source after the BOM
	padded := false

	writeGroups := func(groups []byte) error {
		n, err := codec.DecodeBlock(decoded, groups)
		if err != nil {
			return fmt.Errorf("decode near source offset %d: %w", pos+bom.bomLen(), err)
		}
		if _, err := out.Write(decoded[:n]); err != nil {
			return sinkError(err)
		}
		padded = groups[len(groups)-1] == '='
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, cancelled(err)
		}

		n, rerr := bom.Read(buf)
		if n > 0 {
			base := pos + bom.bomLen()

			for i, c := range buf[:n] {
				if codec.IsEncodingChar(c) {
					pending = append(pending, c)
					continue
				}
				if codec.IsSpace(c) && opts.Mode == ModeStrict {
					continue
				}
				if opts.Mode == ModeStrict {
					return stats, codec.Malformed(fmt.Sprintf("illegal character %q", c), base+int64(i))
				}

				stats.InvalidBytes++
				if len(stats.Notices) < MaxNotices {
					stats.Notices = append(stats.Notices, Notice{Offset: base + int64(i), Value: c})
					log.Debug("skipping non-base64 byte",
						"offset", base+int64(i),
						"byte", fmt.Sprintf("0x%02X", c),
					)
				}
			}
			pos += int64(n)

			if whole := len(pending) / 4 * 4; whole > 0 {
				if padded {
					return stats, codec.Malformed("data after padding", base)
				}
				groups := pending[:whole]
				if i := bytes.IndexByte(groups, '='); i >= 0 {
					groups = groups[:i/4*4+4]
				}
				if err := writeGroups(groups); err != nil {
					return stats, err
				}
				if len(groups) < whole {
					return stats, codec.Malformed("data after padding", base)
				}
				pending = pending[:copy(pending, pending[whole:])]
			}

			progress.update(counter.n)
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return stats, codec.IOFault("read source", rerr)
		}
	}

	if len(pending) > 0 {
		if padded {
			return stats, codec.Malformed("data after padding", pos+bom.bomLen())
		}
		if opts.Mode == ModeStrict {
			return stats, codec.Malformed(
				fmt.Sprintf("truncated final group of %d characters", len(pending)),
				pos+bom.bomLen(),
			)
		}

		if len(pending)%4 == 1 {
			return stats, codec.Malformed("truncated final group of 1 character", pos+bom.bomLen())
		}
		for len(pending)%4 != 0 {
			pending = append(pending, '=')
			stats.PaddingAdded++
		}
		if err := writeGroups(pending); err != nil {
			return stats, err
		}
	}

	if validator != nil {
		if err := validator.Close(); err != nil {
			return stats, sinkError(err)
		}
	}

	if err := flushSink(dst); err != nil {
		return stats, codec.IOFault("flush sink", err)
	}

	if stats.InvalidBytes > 0 {
		log.Debug("skipped non-base64 bytes",
			"count", stats.InvalidBytes,
			"reported", len(stats.Notices),
		)
	}

	progress.finish()
	return stats, nil
}

// sinkError classifies a write failure. The text validator reports invalid
// UTF-8 through the write path; everything else is an I/O fault.
func sinkError(err error) error {
	if errors.Is(err, encoding.ErrInvalidUTF8) {
		return &codec.Error{
			Kind:   codec.KindInvalidText,
			Reason: "decoded data is not valid UTF-8",
			Offset: -1,
			Cause:  err,
		}
	}
	return codec.IOFault("write sink", err)
}
