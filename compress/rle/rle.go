// Package rle implements the run-length codings found in image and script
// resources: PackBits, pixel packets and escape-byte runs. Every decoder
// writes at most size bytes and stops quietly when the input runs out.
package rle

import (
	"fmt"

	"github.com/morkt/GARbro-sub001/compress/bits"
	"github.com/morkt/GARbro-sub001/errs"
	"github.com/morkt/GARbro-sub001/utils"
)

const MaxPixelSize = 16

var ErrInvalidPixelSize = fmt.Errorf("rle: %w: pixel size out of range", errs.ErrInvalidFormat)

// PackBits decodes the Apple PackBits scheme. A control byte n in 0..127
// copies n+1 literal bytes, -127..-1 repeats the next byte 1-n times and -128
// is skipped.
func PackBits(src []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, errs.Invalid("rle: negative output size %d", size)
	}
	in := bits.NewInput(src)
	out := make([]byte, size)
	dst := 0
	for dst < size {
		c, err := in.ReadByte()
		if err != nil {
			break
		}
		n := int(int8(c))
		switch {
		case n >= 0:
			count := min(n+1, size-dst, in.Remaining())
			lit, err := in.Next(count)
			if err != nil {
				return nil, err
			}
			dst += copy(out[dst:], lit)
			if count < n+1 {
				return out[:dst], nil
			}
		case n != -128:
			b, err := in.ReadByte()
			if err != nil {
				return out[:dst], nil
			}
			count := min(1-n, size-dst)
			for i := range count {
				out[dst+i] = b
			}
			dst += count
		}
	}
	return out[:dst], nil
}

// Packets decodes run-length packets of pixelSize-byte pixels. The low seven
// bits of the control byte hold the pixel count minus one; with the high bit
// set a single pixel follows and is repeated, otherwise the pixels follow
// verbatim.
func Packets(src []byte, size, pixelSize int) ([]byte, error) {
	if size < 0 {
		return nil, errs.Invalid("rle: negative output size %d", size)
	}
	if pixelSize < 1 || pixelSize > MaxPixelSize {
		return nil, ErrInvalidPixelSize
	}
	in := bits.NewInput(src)
	out := make([]byte, size)
	dst := 0
	for dst < size {
		c, err := in.ReadByte()
		if err != nil {
			break
		}
		count := (int(c&0x7f) + 1) * pixelSize
		if c&0x80 == 0 {
			n := min(count, size-dst, in.Remaining())
			lit, err := in.Next(n)
			if err != nil {
				return nil, err
			}
			dst += copy(out[dst:], lit)
			if n < count {
				break
			}
			continue
		}

		px, err := in.Next(pixelSize)
		if err != nil {
			break
		}
		count = min(count, size-dst)
		start := dst
		dst += copy(out[dst:dst+count], px)
		if rest := count - (dst - start); rest > 0 {
			if err := utils.CopyOverlapped(out, start, dst, rest); err != nil {
				return nil, err
			}
			dst += rest
		}
	}
	return out[:dst], nil
}

// Escape decodes runs introduced by the byte esc. The escape is followed by
// a count and the byte to repeat; a zero count stands for the escape byte
// itself. Any other byte is a literal.
func Escape(src []byte, size int, esc byte) ([]byte, error) {
	if size < 0 {
		return nil, errs.Invalid("rle: negative output size %d", size)
	}
	in := bits.NewInput(src)
	out := make([]byte, size)
	dst := 0
	for dst < size {
		b, err := in.ReadByte()
		if err != nil {
			break
		}
		if b != esc {
			out[dst] = b
			dst++
			continue
		}
		count, err := in.ReadByte()
		if err != nil {
			break
		}
		if count == 0 {
			out[dst] = esc
			dst++
			continue
		}
		v, err := in.ReadByte()
		if err != nil {
			break
		}
		n := min(int(count), size-dst)
		for i := range n {
			out[dst+i] = v
		}
		dst += n
	}
	return out[:dst], nil
}

