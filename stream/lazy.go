package stream

import (
	"errors"
	"io"
	"math"
	"slices"
	"sync"

	"github.com/morkt/GARbro-sub001/errs"
)

const lazyChunk = 32 << 10

// Lazy makes a forward-only reader seekable by keeping every byte consumed
// from it. Backward seeks are served from memory; once the origin is
// drained all reads are.
type Lazy struct {
	mu     sync.Mutex
	origin io.Reader
	buf    []byte
	err    error // sticky origin error; io.EOF once drained
	pos    int64
}

// NewLazy returns a Lazy over r.
func NewLazy(r io.Reader) *Lazy {
	return &Lazy{origin: r}
}

// fill buffers the origin until upto bytes are held or it runs dry.
func (s *Lazy) fill(upto int64) error {
	for int64(len(s.buf)) < upto && s.err == nil {
		s.buf = slices.Grow(s.buf, lazyChunk)
		n, err := s.origin.Read(s.buf[len(s.buf):cap(s.buf)])
		s.buf = s.buf[:len(s.buf)+n]
		if err != nil {
			s.err = err
		}
	}
	if s.err != nil && !errors.Is(s.err, io.EOF) {
		return s.err
	}
	return nil
}

// Read implements io.Reader.
func (s *Lazy) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.readAt(p, s.pos, false)
	s.pos += int64(n)
	return n, err
}

// ReadAt implements io.ReaderAt. Reads past what has been consumed so far
// pull more from the origin.
func (s *Lazy) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAt(p, off, true)
}

func (s *Lazy) readAt(p []byte, off int64, full bool) (int, error) {
	if off < 0 {
		return 0, &errs.RangeError{Offset: off, Size: int64(len(p))}
	}
	upto := off + 1
	if full {
		upto = off + int64(len(p))
	}
	if int64(len(s.buf)) < upto {
		if err := s.fill(upto); err != nil {
			return 0, err
		}
	}
	if off >= int64(len(s.buf)) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[off:])
	if full && n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek implements io.Seeker. Seeking relative to the end drains the origin.
func (s *Lazy) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var size int64
	if whence == io.SeekEnd {
		if err := s.fill(math.MaxInt64); err != nil {
			return s.pos, err
		}
		size = int64(len(s.buf))
	}
	pos, err := seekPos(s.pos, size, offset, whence)
	if err != nil {
		return s.pos, err
	}
	s.pos = pos
	return pos, nil
}

// Size drains the origin and returns the total length. A read failure on the
// origin is reported by subsequent reads; Size then counts only the bytes
// buffered before it.
func (s *Lazy) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fill(math.MaxInt64)
	return int64(len(s.buf))
}

// Drained reports whether the origin has been read to its end.
func (s *Lazy) Drained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Is(s.err, io.EOF)
}
