package bits

import (
	"errors"
	"io"

	"github.com/morkt/GARbro-sub001/errs"
)

// Order selects which end of a byte is consumed first.
type Order int

const (
	MSBFirst Order = iota
	LSBFirst
)

// String returns "msb" or "lsb".
func (o Order) String() string {
	if o == LSBFirst {
		return "lsb"
	}
	return "msb"
}

// ParseOrder parses "msb" or "lsb".
func ParseOrder(s string) (Order, error) {
	switch s {
	case "msb", "":
		return MSBFirst, nil
	case "lsb":
		return LSBFirst, nil
	default:
		return 0, errs.Invalid("unknown bit order %q", s)
	}
}

// Reader yields one bit at a time from a byte stream. When the current byte
// is used up it pulls exactly one more.
type Reader struct {
	in    io.ByteReader
	order Order
	cur   uint
	left  int // unread bits of cur
}

// NewReader returns a bit reader over in.
func NewReader(in io.ByteReader, order Order) *Reader {
	return &Reader{in: in, order: order}
}

// NextBit returns the next bit.
func (r *Reader) NextBit() (uint, error) {
	if r.left == 0 {
		b, err := r.in.ReadByte()
		if err != nil {
			return 0, eos(err, "bit")
		}
		r.cur = uint(b)
		r.left = 8
	}
	r.left--
	if r.order == LSBFirst {
		bit := r.cur & 1
		r.cur >>= 1
		return bit, nil
	}
	return (r.cur >> r.left) & 1, nil
}

// NextBits assembles count bits, first bit most significant.
func (r *Reader) NextBits(count int) (uint, error) {
	if count < 0 || count > 32 {
		return 0, errs.Invalid("bit field of width %d", count)
	}
	var v uint
	for range count {
		bit, err := r.NextBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | bit
	}
	return v, nil
}

// Align drops the unread bits of the current byte.
func (r *Reader) Align() {
	r.left = 0
}

// FlagReader is a control-bit register primed with a sentinel so that an
// exhausted register is distinguishable from a zero byte. Control bytes are
// fetched only when a bit is needed, so data bytes read from the same input
// in between stay in stream order.
type FlagReader struct {
	in    io.ByteReader
	order Order
	ctl   uint
}

// NewFlagReader returns a control-bit reader over in.
func NewFlagReader(in io.ByteReader, order Order) *FlagReader {
	return &FlagReader{in: in, order: order}
}

// Next returns the next control bit.
func (f *FlagReader) Next() (bool, error) {
	if f.order == LSBFirst {
		f.ctl >>= 1
		if f.ctl&0x100 == 0 {
			b, err := f.in.ReadByte()
			if err != nil {
				return false, eos(err, "control byte")
			}
			f.ctl = uint(b) | 0xff00
		}
		return f.ctl&1 != 0, nil
	}

	f.ctl = (f.ctl << 1) & 0x1ff
	if f.ctl&0xff == 0 {
		b, err := f.in.ReadByte()
		if err != nil {
			return false, eos(err, "control byte")
		}
		f.ctl = uint(b)<<1 | 1
	}
	return f.ctl&0x100 != 0, nil
}

func eos(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, errs.ErrEndOfStream) {
		return errs.EndOfStream(what)
	}
	return err
}
