package transcode

import (
	"context"
	"encoding/base64"
	"io"

	"github.com/JonMunkholm/beb64/internal/codec"
	"github.com/emersion/go-textwrapper"
)

// EncodeStream reads src to EOF and writes its padded Base64 representation
// to dst.
//
// Up to two trailing bytes of each chunk are carried into the next read so
// that only whole 3-byte blocks are encoded mid-stream; the final partial
// block is padded once the source is exhausted. On success dst is flushed if
// it implements Flush() error. On failure or cancellation dst holds whatever
// complete groups were written and is not flushed.
func EncodeStream(ctx context.Context, src io.Reader, dst io.Writer, opts Options) (stats Stats, err error) {
	opts = opts.withDefaults()

	counter := &countingReader{r: src}
	sink := &countingWriter{w: dst}
	progress := newProgressTracker(opts.Progress, opts.total(src))

	defer func() {
		stats.BytesRead = counter.n
		stats.BytesWritten = sink.n
	}()

	var out io.Writer = sink
	if opts.WrapColumn > 0 {
		out = textwrapper.New(sink, "\n", opts.WrapColumn)
	}

	// buf[:carry] holds bytes left over from the previous read.
	buf := make([]byte, opts.ChunkSize+2)
	encoded := make([]byte, base64.StdEncoding.EncodedLen(opts.ChunkSize+2))
	carry := 0

	for {
		if err := ctx.Err(); err != nil {
			return stats, cancelled(err)
		}

		n, rerr := counter.Read(buf[carry : carry+opts.ChunkSize])
		if n > 0 {
			avail := carry + n
			whole := avail / 3 * 3
			if whole > 0 {
				base64.StdEncoding.Encode(encoded, buf[:whole])
				if _, err := out.Write(encoded[:base64.StdEncoding.EncodedLen(whole)]); err != nil {
					return stats, codec.IOFault("write sink", err)
				}
			}
			carry = copy(buf, buf[whole:avail])
			progress.update(counter.n)
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return stats, codec.IOFault("read source", rerr)
		}
	}

	if carry > 0 {
		base64.StdEncoding.Encode(encoded, buf[:carry])
		if _, err := out.Write(encoded[:4]); err != nil {
			return stats, codec.IOFault("write sink", err)
		}
	}

	if err := flushSink(dst); err != nil {
		return stats, codec.IOFault("flush sink", err)
	}

	progress.finish()
	opts.Logger.Debug("encode complete",
		"bytes_read", counter.n,
		"bytes_written", sink.n,
	)
	return stats, nil
}
