package archive

import (
	"io"

	"go.uber.org/zap"
)

// Entry is one named byte blob inside a container. The Reader is only
// valid until the walk advances to the next entry.
type Entry struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// WalkFunc is called once per entry, in container-native order. Returning
// an error stops the walk and propagates.
type WalkFunc func(entry Entry) error

// ProgressFunc receives traversal progress as a percentage
type ProgressFunc func(percent int)

// Walker produces a lazy, finite, forward-only sequence of entries from
// one container. A Walker is single-use; there is no restart.
type Walker interface {
	Walk(fn WalkFunc) error
}

// NewWalker creates the walker for a detected container kind
func NewWalker(path string, kind Kind, logger *zap.Logger, progress ProgressFunc) Walker {
	switch kind {
	case KindZip:
		return newZipWalker(path, progress)
	default:
		return newTarGzWalker(path, logger, progress)
	}
}

// progressEmitter de-duplicates progress notifications: a value is
// forwarded only when it strictly exceeds the last forwarded value.
type progressEmitter struct {
	fn   ProgressFunc
	last int
}

func newProgressEmitter(fn ProgressFunc) *progressEmitter {
	return &progressEmitter{fn: fn, last: -1}
}

func (p *progressEmitter) emit(consumed, total int64) {
	if p.fn == nil || total <= 0 {
		return
	}
	percent := int(100 * consumed / total)
	if percent > p.last {
		p.last = percent
		p.fn(percent)
	}
}

// countingReader tracks how many bytes have been read through it
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
