package stream

import "io"

// Prefixed presents an in-memory header followed by a seekable stream as one
// continuous stream. Positions inside the header are served from memory,
// later positions from the stream at pos - len(header).
type Prefixed struct {
	header []byte
	r      io.ReadSeeker
	pos    int64

	// position of r, or -1 when unknown
	rpos int64
}

// NewPrefixed returns a Prefixed over header and r. The header is not copied.
func NewPrefixed(header []byte, r io.ReadSeeker) *Prefixed {
	return &Prefixed{header: header, r: r, rpos: -1}
}

// Read implements io.Reader.
func (s *Prefixed) Read(p []byte) (int, error) {
	hlen := int64(len(s.header))
	if s.pos < hlen {
		n := copy(p, s.header[s.pos:])
		s.pos += int64(n)
		return n, nil
	}

	want := s.pos - hlen
	if s.rpos != want {
		if _, err := s.r.Seek(want, io.SeekStart); err != nil {
			s.rpos = -1
			return 0, err
		}
		s.rpos = want
	}
	n, err := s.r.Read(p)
	s.pos += int64(n)
	s.rpos += int64(n)
	return n, err
}

// Seek implements io.Seeker.
func (s *Prefixed) Seek(offset int64, whence int) (int64, error) {
	var size int64
	if whence == io.SeekEnd {
		end, err := s.r.Seek(0, io.SeekEnd)
		if err != nil {
			s.rpos = -1
			return s.pos, err
		}
		s.rpos = end
		size = int64(len(s.header)) + end
	}
	pos, err := seekPos(s.pos, size, offset, whence)
	if err != nil {
		return s.pos, err
	}
	s.pos = pos
	return pos, nil
}
