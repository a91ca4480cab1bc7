// Package prs decodes bit-oriented LZ streams where LSB-first control bits
// are interleaved with the data bytes they describe.
//
//	1        literal byte follows
//	0 0 b b  short match: length bb+2, one byte holding 256-distance
//	0 1      long match: 16-bit word, 13-bit 8192-distance and 3-bit length;
//	         length 0 escapes to one byte holding length-1, a zero word ends the stream
package prs

import (
	"errors"
	"fmt"

	"github.com/morkt/GARbro-sub001/compress/bits"
	"github.com/morkt/GARbro-sub001/errs"
	"github.com/morkt/GARbro-sub001/utils"
)

var ErrInvalidDistance = fmt.Errorf("prs: %w: distance before start of output", errs.ErrInvalidFormat)

type decoder struct {
	in    *bits.Input
	flags *bits.FlagReader
	out   []byte
	dst   int
}

// Decompress decodes src into at most size bytes. The stream ends at its end
// marker, at size bytes, or when the input runs out.
func Decompress(src []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, errs.Invalid("prs: negative output size %d", size)
	}
	in := bits.NewInput(src)
	d := &decoder{
		in:    in,
		flags: bits.NewFlagReader(in, bits.LSBFirst),
		out:   make([]byte, size),
	}
	err := d.run()
	if err != nil && !errors.Is(err, errs.ErrEndOfStream) {
		return nil, err
	}
	return d.out[:d.dst], nil
}

func (d *decoder) run() error {
	for d.dst < len(d.out) {
		literal, err := d.flags.Next()
		if err != nil {
			return err
		}
		if literal {
			b, err := d.in.ReadByte()
			if err != nil {
				return err
			}
			d.out[d.dst] = b
			d.dst++
			continue
		}

		long, err := d.flags.Next()
		if err != nil {
			return err
		}

		var length, dist int
		if long {
			w, err := d.in.ReadU16LE()
			if err != nil {
				return err
			}
			if w == 0 {
				return nil
			}
			dist = 0x2000 - int(w>>3)
			length = int(w&7) + 2
			if length == 2 {
				b, err := d.in.ReadByte()
				if err != nil {
					return err
				}
				length = int(b) + 1
			}
		} else {
			hi, err := d.flags.Next()
			if err != nil {
				return err
			}
			lo, err := d.flags.Next()
			if err != nil {
				return err
			}
			length = 2
			if hi {
				length += 2
			}
			if lo {
				length++
			}
			b, err := d.in.ReadByte()
			if err != nil {
				return err
			}
			dist = 0x100 - int(b)
		}

		if dist > d.dst {
			return fmt.Errorf("%w: distance %d at %d", ErrInvalidDistance, dist, d.dst)
		}
		length = min(length, len(d.out)-d.dst)
		if err := utils.CopyOverlapped(d.out, d.dst-dist, d.dst, length); err != nil {
			return err
		}
		d.dst += length
	}
	return nil
}
