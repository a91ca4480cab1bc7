// Package lz77 decodes plain LZ77 streams with 32-bit flag words: 13-bit
// back-reference distances and 3-bit lengths extended through a shared
// nibble, then a byte, then a 16-bit and finally a 32-bit length.
package lz77

import (
	"encoding/binary"
	"fmt"

	"github.com/morkt/GARbro-sub001/errs"
	"github.com/morkt/GARbro-sub001/utils"
)

var (
	ErrInvalidFormat = fmt.Errorf("lz77: %w: invalid compressed stream", errs.ErrInvalidFormat)
	ErrUnexpectedEOF = fmt.Errorf("lz77: %w", errs.ErrEndOfStream)
	ErrInvalidOffset = fmt.Errorf("lz77: %w: invalid match offset", errs.ErrInvalidFormat)
)

// LZ77 uses a 13-bit offset => 1..8192.
const (
	windowSize = 8192
	minMatch   = 3
)

// Decompress decodes src into at most size bytes. Input that ends on a flag
// word boundary ends the stream; input that ends inside a token is an error.
// A match that would run past size is cut at size.
func Decompress(src []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, errs.Invalid("lz77: negative output size %d", size)
	}
	out := make([]byte, size)
	dst := 0

	in := 0
	var flags uint32
	flagCount := 0

	// Nibble state for the "4-bit length" extension.
	// When we read a new byte for low nibble, the high nibble is saved for the *next* use.
	haveHighNibble := false
	var savedNibbleByte byte

	readU8 := func() (byte, error) {
		if in >= len(src) {
			return 0, ErrUnexpectedEOF
		}
		b := src[in]
		in++
		return b, nil
	}

	readU16 := func() (uint16, error) {
		if in+2 > len(src) {
			return 0, ErrUnexpectedEOF
		}
		v := binary.LittleEndian.Uint16(src[in : in+2])
		in += 2
		return v, nil
	}

	readU32 := func() (uint32, error) {
		if in+4 > len(src) {
			return 0, ErrUnexpectedEOF
		}
		v := binary.LittleEndian.Uint32(src[in : in+4])
		in += 4
		return v, nil
	}

	for dst < size {
		// Refill flags if empty.
		if flagCount == 0 {
			// No more input: the stream is complete.
			if in >= len(src) {
				return out[:dst], nil
			}

			v, err := readU32()
			if err != nil {
				return nil, err
			}
			flags = v
			flagCount = 32
		}

		flagCount--
		isMatch := ((flags >> uint(flagCount)) & 1) != 0

		if !isMatch {
			b, err := readU8()
			if err != nil {
				return nil, err
			}
			out[dst] = b
			dst++
			continue
		}

		// A match flag right at the end of input is padding.
		if in == len(src) {
			return out[:dst], nil
		}

		tok, err := readU16()
		if err != nil {
			return nil, err
		}

		baseLen := int(tok & 0x7) // 0..7
		offset := int(tok>>3) + 1 // 1..8192
		if offset > windowSize || offset > dst {
			return nil, fmt.Errorf("%w: distance %d at output position %d", ErrInvalidOffset, offset, dst)
		}

		length := 0
		if baseLen < 7 {
			length = baseLen + minMatch
		} else {
			// Read 4-bit value (packed into nibbles).
			var nib int
			if !haveHighNibble {
				b, err := readU8()
				if err != nil {
					return nil, err
				}
				savedNibbleByte = b
				nib = int(b & 0x0f)
				haveHighNibble = true
			} else {
				nib = int(savedNibbleByte >> 4)
				haveHighNibble = false
			}

			if nib < 15 {
				length = nib + 7 + minMatch
			} else {
				b, err := readU8()
				if err != nil {
					return nil, err
				}

				if b < 255 {
					length = int(b) + 15 + 7 + minMatch
				} else {
					// b == 255 => 16-bit length, and if 0 then 32-bit length.
					v16, err := readU16()
					if err != nil {
						return nil, err
					}

					m := uint32(v16)
					if v16 == 0 {
						if m, err = readU32(); err != nil {
							return nil, err
						}
					}

					// m encodes (MatchLength - 3). Must be >= 22 for this path.
					if m < 15+7 {
						return nil, ErrInvalidFormat
					}
					length = int(min(m, uint32(size))) + minMatch
				}
			}
		}

		length = min(length, size-dst)
		if err := utils.CopyOverlapped(out, dst-offset, dst, length); err != nil {
			return nil, err
		}
		dst += length
	}

	return out, nil
}
