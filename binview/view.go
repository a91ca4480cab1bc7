// Package binview provides bounds-checked, offset-based random access over a
// byte source. All reads are positionless, so one View may be shared by
// concurrent readers when its Source supports concurrent ReadAt calls.
package binview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/morkt/GARbro-sub001/errs"
)

// Source is an immutable byte source with a known total length.
type Source interface {
	io.ReaderAt
	Size() int64
}

// View is a (source, base, length) window; base+length never exceeds the source size.
type View struct {
	src    Source
	base   int64
	length int64
}

// New returns a view of length bytes of src starting at base.
func New(src Source, base, length int64) (*View, error) {
	if err := errs.CheckRange(base, length, src.Size()); err != nil {
		return nil, err
	}
	return &View{src: src, base: base, length: length}, nil
}

// FromBytes returns a view over the whole of b.
func FromBytes(b []byte) *View {
	return &View{src: bytes.NewReader(b), length: int64(len(b))}
}

// Open returns a view over the whole file at path. The returned closer
// releases the file.
func Open(path string) (*View, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return &View{src: io.NewSectionReader(f, 0, fi.Size()), length: fi.Size()}, f, nil
}

// Len returns the length of the view.
func (v *View) Len() int64 { return v.length }

// Base returns the absolute offset of the view within its source.
func (v *View) Base() int64 { return v.base }

// Size implements Source.
func (v *View) Size() int64 { return v.length }

// Reserve reports whether [offset, offset+length) relative to the view base lies
// within the source's total extent. Use it to reject size fields read from
// untrusted data before allocating.
func (v *View) Reserve(offset, length int64) bool {
	if offset < 0 || length < 0 || offset > v.src.Size() {
		return false
	}
	return errs.CheckRange(v.base+offset, length, v.src.Size()) == nil
}

// Slice returns a narrower view of length bytes starting at offset.
func (v *View) Slice(offset, length int64) (*View, error) {
	if err := errs.CheckRange(offset, length, v.length); err != nil {
		return nil, err
	}
	return &View{src: v.src, base: v.base + offset, length: length}, nil
}

// ReadAt implements io.ReaderAt restricted to the view.
func (v *View) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, &errs.RangeError{Offset: off, Size: int64(len(p)), Limit: v.length}
	}
	if off >= v.length {
		return 0, io.EOF
	}
	want := len(p)
	if int64(want) > v.length-off {
		p = p[:v.length-off]
	}
	n, err := v.src.ReadAt(p, v.base+off)
	if err == nil && n < want {
		err = io.EOF
	}
	return n, err
}

// ReadBytes returns a copy of count bytes at offset.
func (v *View) ReadBytes(offset, count int64) ([]byte, error) {
	if err := errs.CheckRange(offset, count, v.length); err != nil {
		return nil, err
	}
	buf := make([]byte, count)
	if err := v.fill(buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

// Bytes materializes the whole view.
func (v *View) Bytes() ([]byte, error) {
	return v.ReadBytes(0, v.length)
}

// fill reads exactly len(buf) bytes at offset; the range was checked by the caller.
func (v *View) fill(buf []byte, offset int64) error {
	n, err := v.src.ReadAt(buf, v.base+offset)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		// The source shrank below its declared size.
		return &errs.RangeError{Offset: offset + int64(n), Size: int64(len(buf) - n), Limit: v.length}
	}
	return err
}

func (v *View) read(offset int64, size int, scratch *[8]byte) ([]byte, error) {
	if err := errs.CheckRange(offset, int64(size), v.length); err != nil {
		return nil, err
	}
	b := scratch[:size]
	if err := v.fill(b, offset); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadU8 reads a byte at offset.
func (v *View) ReadU8(offset int64) (uint8, error) {
	var s [8]byte
	b, err := v.read(offset, 1, &s)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian uint16 at offset.
func (v *View) ReadU16(offset int64) (uint16, error) {
	var s [8]byte
	b, err := v.read(offset, 2, &s)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32 at offset.
func (v *View) ReadU32(offset int64) (uint32, error) {
	var s [8]byte
	b, err := v.read(offset, 4, &s)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64 at offset.
func (v *View) ReadU64(offset int64) (uint64, error) {
	var s [8]byte
	b, err := v.read(offset, 8, &s)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI16 reads a little-endian int16 at offset.
func (v *View) ReadI16(offset int64) (int16, error) {
	u, err := v.ReadU16(offset)
	return int16(u), err
}

// ReadI32 reads a little-endian int32 at offset.
func (v *View) ReadI32(offset int64) (int32, error) {
	u, err := v.ReadU32(offset)
	return int32(u), err
}

// ReadU16BE reads a big-endian uint16 at offset.
func (v *View) ReadU16BE(offset int64) (uint16, error) {
	var s [8]byte
	b, err := v.read(offset, 2, &s)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU32BE reads a big-endian uint32 at offset.
func (v *View) ReadU32BE(offset int64) (uint32, error) {
	var s [8]byte
	b, err := v.read(offset, 4, &s)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadU64BE reads a big-endian uint64 at offset.
func (v *View) ReadU64BE(offset int64) (uint64, error) {
	var s [8]byte
	b, err := v.read(offset, 8, &s)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadUint reads an unsigned integer of width 1, 2, 4 or 8 bytes at offset.
// A zero width reads nothing and returns 0.
func (v *View) ReadUint(offset int64, width int, bigEndian bool) (uint64, error) {
	switch width {
	case 0:
		return 0, nil
	case 1:
		b, err := v.ReadU8(offset)
		return uint64(b), err
	case 2:
		if bigEndian {
			u, err := v.ReadU16BE(offset)
			return uint64(u), err
		}
		u, err := v.ReadU16(offset)
		return uint64(u), err
	case 4:
		if bigEndian {
			u, err := v.ReadU32BE(offset)
			return uint64(u), err
		}
		u, err := v.ReadU32(offset)
		return uint64(u), err
	case 8:
		if bigEndian {
			return v.ReadU64BE(offset)
		}
		return v.ReadU64(offset)
	default:
		return 0, errs.Invalid("unsupported integer width %d", width)
	}
}

// ReadString reads at most maxBytes at offset and decodes them with cs up to
// the first NUL unit. The whole maxBytes range must lie within the view.
func (v *View) ReadString(offset, maxBytes int64, cs *Charset) (string, error) {
	b, err := v.ReadBytes(offset, maxBytes)
	if err != nil {
		return "", err
	}
	if cs == nil {
		cs = Raw
	}
	return cs.Decode(b)
}
