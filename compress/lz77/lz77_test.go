package lz77

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/morkt/GARbro-sub001/errs"
)

// flagWord packs up to 32 flags, first flag in the most significant bit.
// Unused flags are padded with ones, as an encoder does for the last word.
func flagWord(flags ...bool) []byte {
	w := uint32(1)<<(32-len(flags)) - 1
	for i, f := range flags {
		if f {
			w |= 1 << (31 - i)
		}
	}
	return binary.LittleEndian.AppendUint32(nil, w)
}

func token(offset, baseLen int) []byte {
	return binary.LittleEndian.AppendUint16(nil, uint16((offset-1)<<3|baseLen))
}

func TestDecompress(t *testing.T) {
	// "abc" then distance 3 length 6: "abcabcabc".
	src := flagWord(false, false, false, true)
	src = append(src, 'a', 'b', 'c')
	src = append(src, token(3, 3)...)
	out, err := Decompress(src, 9)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "abcabcabc" {
		t.Fatalf("got %q", out)
	}

	// Declared size smaller than the stream produces.
	out, err = Decompress(src, 5)
	if err != nil || string(out) != "abcab" {
		t.Fatalf("truncated: %q, %v", out, err)
	}

	// Declared size larger: the stream ends at the flag word boundary.
	out, err = Decompress(src, 100)
	if err != nil || string(out) != "abcabcabc" {
		t.Fatalf("short stream: %q, %v", out, err)
	}
}

func TestLengthEscapes(t *testing.T) {
	tests := []struct {
		name   string
		ext    []byte
		length int
	}{
		{"nibble", []byte{0x04}, 4 + 7 + 3},
		{"byte", []byte{0x0f, 0x10}, 0x10 + 15 + 7 + 3},
		{"word", []byte{0x0f, 0xff, 0x2c, 0x01}, 300 + 3},
		{"dword", []byte{0x0f, 0xff, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00}, 0x200 + 3},
	}
	for _, tt := range tests {
		src := flagWord(false, true)
		src = append(src, 'z')
		src = append(src, token(1, 7)...)
		src = append(src, tt.ext...)
		out, err := Decompress(src, 1+tt.length)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if want := bytes.Repeat([]byte{'z'}, 1+tt.length); !bytes.Equal(out, want) {
			t.Errorf("%s: got %d bytes, want %d", tt.name, len(out), len(want))
		}
	}
}

func TestSharedNibble(t *testing.T) {
	// Two extended matches share one nibble byte: low nibble first.
	src := flagWord(false, true, true)
	src = append(src, 'q')
	src = append(src, token(1, 7)...)
	src = append(src, 0x21) // low nibble 1, high nibble 2
	src = append(src, token(1, 7)...)
	out, err := Decompress(src, 1+11+12)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 24 {
		t.Fatalf("got %d bytes", len(out))
	}
}

func TestMalformed(t *testing.T) {
	src := flagWord(true)
	src = append(src, token(4, 0)...)
	if _, err := Decompress(src, 10); !errors.Is(err, errs.ErrInvalidFormat) {
		t.Errorf("distance before start: %v", err)
	}

	src = flagWord(false)
	if _, err := Decompress(src, 10); !errors.Is(err, errs.ErrEndOfStream) {
		t.Errorf("missing literal: %v", err)
	}

	src = flagWord(false, true)
	src = append(src, 'a', 0x07)
	if _, err := Decompress(src, 10); !errors.Is(err, errs.ErrEndOfStream) {
		t.Errorf("half token: %v", err)
	}

	src = flagWord(false, true)
	src = append(src, 'a')
	src = append(src, token(1, 7)...)
	src = append(src, 0x0f, 0xff, 0x05, 0x00)
	if _, err := Decompress(src, 100); !errors.Is(err, errs.ErrInvalidFormat) {
		t.Errorf("short explicit length: %v", err)
	}
}

func FuzzDecompress(f *testing.F) {
	f.Add([]byte{0, 0, 0, 0x10, 'a', 'b', 'c', 0x13, 0x00}, uint16(9))
	f.Fuzz(func(t *testing.T, src []byte, size uint16) {
		out, err := Decompress(src, int(size))
		if err == nil && len(out) > int(size) {
			t.Fatalf("wrote %d bytes, declared %d", len(out), size)
		}
	})
}
