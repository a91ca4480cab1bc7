// Package backref decodes LZ streams whose matches refer back into the
// output produced so far: MSB-first control bits (1 = match) and big-endian
// 16-bit tokens holding a 12-bit distance.
package backref

import (
	"errors"
	"fmt"

	"github.com/morkt/GARbro-sub001/compress/bits"
	"github.com/morkt/GARbro-sub001/errs"
	"github.com/morkt/GARbro-sub001/utils"
)

var ErrInvalidDistance = fmt.Errorf("backref: %w: distance before start of output", errs.ErrInvalidFormat)

// Mode selects how the length field is read.
type Mode int

const (
	// Plain: length is the top nibble plus 3.
	Plain Mode = iota
	// Tiered: a top nibble of 0 or 1 escapes to one or two extension bytes.
	Tiered
)

// Decompress decodes src into at most size bytes. Running out of input ends
// the stream and returns what was decoded.
func Decompress(src []byte, size int, mode Mode) ([]byte, error) {
	if size < 0 {
		return nil, errs.Invalid("backref: negative output size %d", size)
	}
	out := make([]byte, size)
	dst := 0

	in := bits.NewInput(src)
	flags := bits.NewFlagReader(in, bits.MSBFirst)

	for dst < size {
		isMatch, err := flags.Next()
		if err != nil {
			return end(out, dst, err)
		}

		if !isMatch {
			b, err := in.ReadByte()
			if err != nil {
				return end(out, dst, err)
			}
			out[dst] = b
			dst++
			continue
		}

		length, dist, err := readMatch(in, mode)
		if err != nil {
			return end(out, dst, err)
		}
		if dist > dst {
			return nil, fmt.Errorf("%w: distance %d at %d", ErrInvalidDistance, dist, dst)
		}

		length = min(length, size-dst)
		if err := utils.CopyOverlapped(out, dst-dist, dst, length); err != nil {
			return nil, err
		}
		dst += length
	}

	return out, nil
}

func readMatch(in *bits.Input, mode Mode) (length, dist int, err error) {
	w, err := in.ReadU16BE()
	if err != nil {
		return 0, 0, err
	}
	n := int(w)
	if mode == Plain {
		return n>>12 + 3, n&0xfff + 1, nil
	}

	switch n >> 12 {
	case 0:
		b, err := in.ReadByte()
		if err != nil {
			return 0, 0, err
		}
		n = (n&0xfff)<<8 | int(b)
		length = 0x11
	case 1:
		// n does not exceed 28 bits.
		e, err := in.ReadU16BE()
		if err != nil {
			return 0, 0, err
		}
		n = (n&0xfff)<<16 | int(e)
		length = 0x111
	default:
		length = 1
	}
	return length + n>>12, n&0xfff + 1, nil
}

func end(out []byte, dst int, err error) ([]byte, error) {
	if errors.Is(err, errs.ErrEndOfStream) {
		return out[:dst], nil
	}
	return nil, err
}
