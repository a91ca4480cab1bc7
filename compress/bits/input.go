// Package bits provides the byte cursor and bit readers shared by the decoders.
package bits

import (
	"encoding/binary"

	"github.com/morkt/GARbro-sub001/errs"
)

// Input is a forward byte cursor over a compressed buffer.
type Input struct {
	data []byte
	pos  int
}

// NewInput returns a cursor at the start of data.
func NewInput(data []byte) *Input {
	return &Input{data: data}
}

// Pos returns the number of bytes consumed.
func (in *Input) Pos() int { return in.pos }

// Len returns the total input length.
func (in *Input) Len() int { return len(in.data) }

// Remaining returns the number of unread bytes.
func (in *Input) Remaining() int { return len(in.data) - in.pos }

// EOF reports whether the input is exhausted.
func (in *Input) EOF() bool { return in.pos >= len(in.data) }

// ReadByte implements io.ByteReader. Exhaustion yields ErrEndOfStream.
func (in *Input) ReadByte() (byte, error) {
	if in.pos >= len(in.data) {
		return 0, errs.ErrEndOfStream
	}
	b := in.data[in.pos]
	in.pos++
	return b, nil
}

// Next returns the next n bytes without copying.
func (in *Input) Next(n int) ([]byte, error) {
	if n < 0 || n > len(in.data)-in.pos {
		return nil, errs.ErrEndOfStream
	}
	b := in.data[in.pos : in.pos+n]
	in.pos += n
	return b, nil
}

// ReadU16LE reads a little-endian uint16.
func (in *Input) ReadU16LE() (uint16, error) {
	b, err := in.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU16BE reads a big-endian uint16.
func (in *Input) ReadU16BE() (uint16, error) {
	b, err := in.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU32LE reads a little-endian uint32.
func (in *Input) ReadU32LE() (uint32, error) {
	b, err := in.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
