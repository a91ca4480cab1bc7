// Package stream provides seekable adapters used to hand archive entries to
// callers: a window onto a random-access source, an in-memory header glued
// in front of a stream, and a buffering wrapper over forward-only input.
package stream

import (
	"errors"
	"io"

	"github.com/morkt/GARbro-sub001/errs"
)

var errWhence = errors.New("stream: invalid whence")

// Region exposes [begin, begin+length) of an io.ReaderAt as a zero-based
// stream. It never reads outside that range.
type Region struct {
	r      io.ReaderAt
	begin  int64
	length int64
	pos    int64
}

// NewRegion returns a Region over r. When r reports its size, the range is
// checked against it.
func NewRegion(r io.ReaderAt, begin, length int64) (*Region, error) {
	limit := int64(1<<63 - 1)
	if s, ok := r.(interface{ Size() int64 }); ok {
		limit = s.Size()
	}
	if err := errs.CheckRange(begin, length, limit); err != nil {
		return nil, err
	}
	return &Region{r: r, begin: begin, length: length}, nil
}

// Size returns the length of the region.
func (s *Region) Size() int64 { return s.length }

// Read implements io.Reader.
func (s *Region) Read(p []byte) (int, error) {
	n, err := s.ReadAt(p, s.pos)
	s.pos += int64(n)
	return n, err
}

// ReadAt implements io.ReaderAt relative to the region start.
func (s *Region) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, &errs.RangeError{Offset: off, Size: int64(len(p)), Limit: s.length}
	}
	if off >= s.length {
		return 0, io.EOF
	}
	want := len(p)
	if int64(want) > s.length-off {
		p = p[:s.length-off]
	}
	n, err := s.r.ReadAt(p, s.begin+off)
	if err == nil && n < want {
		err = io.EOF
	}
	return n, err
}

// Seek implements io.Seeker. Positions past the end are allowed and read as EOF.
func (s *Region) Seek(offset int64, whence int) (int64, error) {
	pos, err := seekPos(s.pos, s.length, offset, whence)
	if err != nil {
		return s.pos, err
	}
	s.pos = pos
	return pos, nil
}

func seekPos(cur, size, offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += cur
	case io.SeekEnd:
		offset += size
	default:
		return 0, errWhence
	}
	if offset < 0 {
		return 0, &errs.RangeError{Offset: offset, Limit: size}
	}
	return offset, nil
}
