// Package lznt1 decodes LZNT1 streams: a sequence of chunks of up to 4 KiB,
// each either stored or compressed with an offset/length split that adapts
// to the position inside the chunk.
package lznt1

import (
	"encoding/binary"
	"fmt"

	"github.com/morkt/GARbro-sub001/errs"
	"github.com/morkt/GARbro-sub001/utils"
)

var (
	// Decompression errors.
	ErrUnexpectedEOF = fmt.Errorf("lznt1: %w", errs.ErrEndOfStream)
	ErrInvalidOffset = fmt.Errorf("lznt1: %w: lookback offset out of bounds", errs.ErrInvalidFormat)
	ErrInputTooShort = fmt.Errorf("lznt1: %w: input buffer too short for expected data", errs.ErrInvalidFormat)
)

const (
	headerSizeMask       = uint16(0x0fff) // Bitmask to extract the chunk size (lower 12 bits) from the header
	headerCompressedFlag = uint16(0x8000) // Bit flag indicating if the chunk is compressed (0xBxxx) or raw (0x3xxx)
	tagGroupSize         = 8              // Number of items (literals or tuples) in a single tag group
	initialSplit         = 12             // Initial bit width for the length component of a match tuple
	initialThreshold     = 16             // Initial threshold for the uncompressed size before adaptive state update
)

// Decompress decodes an LZNT1 stream into at most size bytes.
// The stream ends at a zero chunk header, a trailing NUL byte, or the end of
// input; output beyond size is discarded.
func Decompress(src []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, errs.Invalid("lznt1: negative output size %d", size)
	}
	d := decoder{out: make([]byte, size)}

	inPos := 0
	end := len(src)
	for inPos < end && d.dst < size {
		// LZNT1 streams may be null-terminated (single 0x00 byte at EOF).
		if inPos+1 == end && src[inPos] == 0 {
			break
		}

		// Ensure we can read the 2-byte header.
		if inPos+2 > end {
			return nil, ErrUnexpectedEOF
		}

		header := binary.LittleEndian.Uint16(src[inPos : inPos+2])
		inPos += 2

		if header == 0 {
			break // Standard End-of-Stream marker
		}

		chunkSize := int((header & headerSizeMask) + 1)
		isCompressed := (header & headerCompressedFlag) != 0

		// Ensure the chunk body is within bounds.
		if inPos+chunkSize > end {
			return nil, ErrInputTooShort
		}

		block := src[inPos : inPos+chunkSize]
		if isCompressed {
			if err := d.block(block); err != nil {
				return nil, err
			}
		} else {
			// Raw block: direct copy.
			d.dst += copy(d.out[d.dst:], block)
		}

		inPos += chunkSize
	}

	return d.out[:d.dst], nil
}

type decoder struct {
	out []byte
	dst int
}

// block decodes a single compressed chunk.
func (d *decoder) block(src []byte) error {
	inIdx := 0
	end := len(src)

	// Adaptive state.
	split := initialSplit
	mask := (1 << split) - 1
	threshold := initialThreshold
	start := d.dst

	for inIdx < end {
		// 1. Load tag byte.
		tagByte := src[inIdx]
		inIdx++

		// 2. Mixed literals/links loop.
		for i := range tagGroupSize {
			if d.dst >= len(d.out) {
				return nil
			}

			if (tagByte>>i)&1 != 0 {
				// Ensure we have 2 bytes for the tuple.
				if inIdx+2 > end {
					return ErrUnexpectedEOF
				}

				tuple := int(binary.LittleEndian.Uint16(src[inIdx : inIdx+2]))
				inIdx += 2

				// Decode length/offset using the current adaptive split.
				length := (tuple & mask) + 3
				offset := (tuple >> split) + 1
				if offset > d.dst-start {
					return fmt.Errorf("%w: offset %d at chunk position %d", ErrInvalidOffset, offset, d.dst-start)
				}

				length = min(length, len(d.out)-d.dst)
				if err := utils.CopyOverlapped(d.out, d.dst-offset, d.dst, length); err != nil {
					return err
				}
				d.dst += length
			} else {
				// Valid end of stream inside a literal tag group.
				if inIdx >= end {
					return nil
				}

				d.out[d.dst] = src[inIdx]
				d.dst++
				inIdx++
			}

			// Update adaptive parameters after *every* item.
			updateAdaptiveState(d.dst-start, &threshold, &split, &mask)

			if inIdx >= end {
				return nil
			}
		}
	}

	return nil
}

// updateAdaptiveState updates the adaptive window parameters (split, mask, threshold)
// based on the current uncompressed block size.
func updateAdaptiveState(currentLen int, threshold, split, mask *int) {
	for currentLen > *threshold {
		if *split > 0 {
			*split -= 1
			*mask = (1 << *split) - 1
		}
		*threshold <<= 1
	}
}
