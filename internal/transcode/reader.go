package transcode

import (
	"bytes"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomReader drops a leading UTF-8 byte-order mark. Bytes read while probing
// that turn out not to be a BOM are replayed before any further reads.
type bomReader struct {
	r       io.Reader
	checked bool
	skipped bool
	eof     bool
	probe   [3]byte
	held    []byte
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{r: r}
}

func (b *bomReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if !b.checked {
		b.checked = true

		n, err := io.ReadFull(b.r, b.probe[:])
		switch err {
		case nil:
		case io.EOF, io.ErrUnexpectedEOF:
			b.eof = true
		default:
			return 0, err
		}

		if n == len(utf8BOM) && bytes.Equal(b.probe[:], utf8BOM) {
			b.skipped = true
		} else {
			b.held = b.probe[:n]
		}
	}

	if len(b.held) > 0 {
		n := copy(p, b.held)
		b.held = b.held[n:]
		if len(b.held) > 0 {
			return n, nil
		}
		if b.eof {
			return n, io.EOF
		}
		if n < len(p) {
			m, err := b.r.Read(p[n:])
			return n + m, err
		}
		return n, nil
	}

	if b.eof {
		return 0, io.EOF
	}
	return b.r.Read(p)
}

// bomLen is the number of source bytes consumed by the mark, if any.
func (b *bomReader) bomLen() int64 {
	if b.skipped {
		return int64(len(utf8BOM))
	}
	return 0
}

// countingReader tracks bytes consumed from the caller's source.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// countingWriter tracks bytes accepted by the caller's sink.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// progressTracker turns a consumed byte count into monotone percentages.
type progressTracker struct {
	fn    ProgressFunc
	total int64
	last  float64
}

func newProgressTracker(fn ProgressFunc, total int64) *progressTracker {
	return &progressTracker{fn: fn, total: total}
}

// update reports consumed/total. Without a known total nothing is reported
// until finish.
func (p *progressTracker) update(consumed int64) {
	if p.fn == nil || p.total <= 0 {
		return
	}

	pct := float64(consumed) / float64(p.total) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < p.last {
		pct = p.last
	}
	p.last = pct
	p.fn(pct)
}

func (p *progressTracker) finish() {
	if p.fn == nil {
		return
	}
	p.last = 100
	p.fn(100)
}
