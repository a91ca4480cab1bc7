package lznt1

import (
	"errors"
	"testing"

	"github.com/morkt/GARbro-sub001/errs"
)

// stream holds a compressed chunk ("abc" + tuple distance 3 length 9),
// a stored chunk "xyz" and the end marker.
var stream = []byte{
	0x05, 0xb0, 0x08, 'a', 'b', 'c', 0x06, 0x20,
	0x02, 0x30, 'x', 'y', 'z',
	0x00, 0x00,
}

func TestDecompress(t *testing.T) {
	out, err := Decompress(stream, 64)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "abcabcabcabcxyz" {
		t.Fatalf("got %q", out)
	}
}

func TestTruncate(t *testing.T) {
	for _, size := range []int{0, 10, 13} {
		out, err := Decompress(stream, size)
		if err != nil {
			t.Fatal(err)
		}
		if want := "abcabcabcabcxyz"[:size]; string(out) != want {
			t.Errorf("size %d: got %q, want %q", size, out, want)
		}
	}
}

func TestAdaptiveSplit(t *testing.T) {
	block := []byte{0x00}
	block = append(block, "ABCDEFGH"...)
	block = append(block, 0x00)
	block = append(block, "IJKLMNOP"...)
	block = append(block, 0x02, 'Q', 0x01, 0x80)
	src := append([]byte{byte(len(block) - 1), 0xb0}, block...)
	src = append(src, 0x00) // trailing NUL terminator

	out, err := Decompress(src, 100)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "ABCDEFGHIJKLMNOPQABCD" {
		t.Fatalf("got %q", out)
	}
}

func TestMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
		want error
	}{
		{"offset before chunk", []byte{0x05, 0xb0, 0x08, 'a', 'b', 'c', 0x06, 0x40}, errs.ErrInvalidFormat},
		{"chunk past input", []byte{0x10, 0xb0, 0x00, 'a'}, errs.ErrInvalidFormat},
		{"half header", []byte{0x02, 0x30, 'x', 'y', 'z', 0x01}, errs.ErrEndOfStream},
		{"run from one byte", []byte{0x03, 0xb0, 0x02, 'a', 0x00, 0x00}, nil},
		{"cut tuple", []byte{0x02, 0xb0, 0x02, 'a', 0x06}, errs.ErrEndOfStream},
	}
	for _, tt := range tests {
		_, err := Decompress(tt.src, 100)
		if tt.want == nil {
			if err != nil {
				t.Errorf("%s: %v", tt.name, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}

func FuzzDecompress(f *testing.F) {
	f.Add(stream, uint16(15))
	f.Fuzz(func(t *testing.T, src []byte, size uint16) {
		out, err := Decompress(src, int(size))
		if err == nil && len(out) > int(size) {
			t.Fatalf("wrote %d bytes, declared %d", len(out), size)
		}
	})
}
