// Package lzss decodes ring-window LZSS streams: control bits select a
// literal byte or a two-byte (offset, length) token that refers into a
// fixed-size circular frame of recently emitted bytes.
package lzss

import (
	"errors"
	"fmt"

	"github.com/morkt/GARbro-sub001/compress/bits"
	"github.com/morkt/GARbro-sub001/errs"
	"github.com/morkt/GARbro-sub001/utils"
)

var (
	// Decompression errors.
	ErrUnexpectedEOF = fmt.Errorf("lzss: %w", errs.ErrEndOfStream)
	ErrInvalidParams = fmt.Errorf("lzss: %w: invalid parameters", errs.ErrInvalidFormat)
)

// MaxFrameSize bounds the sliding window allocated for one stream.
const MaxFrameSize = 1 << 24

// Layout selects how a match token packs offset and length.
type Layout int

const (
	// Layout12x4: offset = b0 | (b1&0xF0)<<4, length = b1&0x0F.
	Layout12x4 Layout = iota
	// Layout4x12: big-endian word, length in the top nibble, offset in the low 12 bits.
	Layout4x12
	// Layout4x12LE: as Layout4x12 but the word is little-endian.
	Layout4x12LE
)

var layoutNames = map[Layout]string{
	Layout12x4:   "12x4",
	Layout4x12:   "4x12",
	Layout4x12LE: "4x12le",
}

func (l Layout) String() string {
	if s, ok := layoutNames[l]; ok {
		return s
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// ParseLayout parses a layout name as printed by String.
func ParseLayout(s string) (Layout, error) {
	for l, name := range layoutNames {
		if name == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown token layout %q", ErrInvalidParams, s)
}

// Params describes one LZSS flavour.
type Params struct {
	FrameSize    int        // size of the circular frame
	FrameFill    byte       // initial content of the frame
	FrameInitPos int        // frame cursor before the first byte is emitted
	FlagOrder    bits.Order // order in which control bits are taken from a control byte
	LiteralBit   bool       // control bit value that selects a literal
	Layout       Layout
	MinMatch     int  // added to the length field
	Relative     bool // offset field is a distance back from the frame cursor, minus one
	Strict       bool // running out of input before size bytes is an error
}

// DefaultParams returns the common flavour: 4 KiB zero-filled frame, cursor
// at 0xFEE, control bits low-to-high with 1 selecting a literal.
func DefaultParams() Params {
	return Params{
		FrameSize:    0x1000,
		FrameFill:    0,
		FrameInitPos: 0xfee,
		FlagOrder:    bits.LSBFirst,
		LiteralBit:   true,
		Layout:       Layout12x4,
		MinMatch:     3,
	}
}

// Validate checks the parameters for consistency.
func (p Params) Validate() error {
	if p.FrameSize <= 0 || p.FrameSize > MaxFrameSize {
		return fmt.Errorf("%w: frame size %d", ErrInvalidParams, p.FrameSize)
	}
	if p.FrameInitPos < 0 || p.FrameInitPos >= p.FrameSize {
		return fmt.Errorf("%w: frame cursor %#x outside frame of %#x", ErrInvalidParams, p.FrameInitPos, p.FrameSize)
	}
	if p.MinMatch < 0 {
		return fmt.Errorf("%w: minimum match %d", ErrInvalidParams, p.MinMatch)
	}
	if _, ok := layoutNames[p.Layout]; !ok {
		return fmt.Errorf("%w: layout %v", ErrInvalidParams, p.Layout)
	}
	return nil
}

// Decompress decodes src into at most size bytes. Decoding ends when size
// bytes are produced or, unless p.Strict, when the input runs out, in which
// case the bytes produced so far are returned.
func Decompress(src []byte, size int, p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, errs.Invalid("lzss: negative output size %d", size)
	}

	frame := make([]byte, p.FrameSize)
	utils.Fill(frame, p.FrameFill)
	framePos := p.FrameInitPos

	out := make([]byte, size)
	dst := 0

	in := bits.NewInput(src)
	flags := bits.NewFlagReader(in, p.FlagOrder)

	// Stop at end of input: an error in strict mode, a truncation otherwise.
	stop := func(err error) ([]byte, error) {
		if !errors.Is(err, errs.ErrEndOfStream) {
			return nil, err
		}
		if p.Strict {
			return nil, fmt.Errorf("%w: %d of %d bytes decoded", ErrUnexpectedEOF, dst, size)
		}
		return out[:dst], nil
	}

	for dst < size {
		bit, err := flags.Next()
		if err != nil {
			return stop(err)
		}

		if bit == p.LiteralBit {
			b, err := in.ReadByte()
			if err != nil {
				return stop(err)
			}
			out[dst] = b
			dst++
			frame[framePos] = b
			framePos = (framePos + 1) % p.FrameSize
			continue
		}

		tok, err := in.Next(2)
		if err != nil {
			return stop(err)
		}
		offset, length := p.token(tok[0], tok[1])
		if p.Relative {
			offset = framePos - offset - 1
		}
		offset %= p.FrameSize
		if offset < 0 {
			offset += p.FrameSize
		}

		for range length {
			if dst >= size {
				break
			}
			b := frame[offset]
			offset = (offset + 1) % p.FrameSize
			out[dst] = b
			dst++
			frame[framePos] = b
			framePos = (framePos + 1) % p.FrameSize
		}
	}

	return out, nil
}

// token splits a two-byte match token into its offset and length.
func (p Params) token(b0, b1 byte) (offset, length int) {
	switch p.Layout {
	case Layout4x12:
		n := int(b0)<<8 | int(b1)
		return n & 0xfff, n>>12 + p.MinMatch
	case Layout4x12LE:
		n := int(b1)<<8 | int(b0)
		return n & 0xfff, n>>12 + p.MinMatch
	default:
		return int(b0) | int(b1&0xf0)<<4, int(b1&0x0f) + p.MinMatch
	}
}
