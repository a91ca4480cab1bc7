package rle

import (
	"bytes"
	"errors"
	"testing"

	"github.com/morkt/GARbro-sub001/errs"
)

func TestPackBits(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
		size int
		want []byte
	}{
		{"literal", []byte{0x02, 'a', 'b', 'c'}, 3, []byte("abc")},
		{"run", []byte{0xfd, 'x'}, 4, []byte("xxxx")},
		{"noop", []byte{0x80, 0x00, 'q'}, 1, []byte("q")},
		{"mixed", []byte{0x01, 'a', 'b', 0xfe, 'c', 0x00, 'd'}, 6, []byte("abcccd")},
		{"clipped run", []byte{0x81, 'z'}, 5, []byte("zzzzz")},
		{"short literal", []byte{0x05, 'a', 'b'}, 10, []byte("ab")},
		{"literal header only", []byte{0x05}, 10, []byte{}},
		{"missing run byte", []byte{0x00, 'a', 0xff}, 10, []byte("a")},
		{"empty", nil, 8, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PackBits(tt.src, tt.size)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPackets(t *testing.T) {
	// Three copies of a BGR pixel, then two raw pixels.
	src := []byte{0x82, 1, 2, 3, 0x01, 4, 5, 6, 7, 8, 9}
	want := []byte{1, 2, 3, 1, 2, 3, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	got, err := Packets(src, len(want), 3)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v", got)
	}

	// Output ends in the middle of a run.
	got, err = Packets(src, 7, 3)
	if err != nil || !bytes.Equal(got, want[:7]) {
		t.Fatalf("clipped: %v, %v", got, err)
	}

	// Input ends in the middle of a raw packet.
	got, err = Packets(src[:7], 100, 3)
	if err != nil || !bytes.Equal(got, want[:11]) {
		t.Fatalf("truncated: %v, %v", got, err)
	}

	for _, px := range []int{0, -1, MaxPixelSize + 1} {
		if _, err := Packets(src, 4, px); !errors.Is(err, errs.ErrInvalidFormat) {
			t.Errorf("pixel size %d: %v", px, err)
		}
	}
}

func TestEscape(t *testing.T) {
	src := []byte{'a', 0xff, 0x04, 'b', 0xff, 0x00, 'c', 0xff, 0x10}
	got, err := Escape(src, 100, 0xff)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte("abbbb\xffc"); !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	got, _ = Escape(src, 3, 0xff)
	if string(got) != "abb" {
		t.Fatalf("clipped: %q", got)
	}
}

func TestNegativeSize(t *testing.T) {
	if _, err := PackBits(nil, -1); !errors.Is(err, errs.ErrInvalidFormat) {
		t.Error(err)
	}
	if _, err := Packets(nil, -1, 1); !errors.Is(err, errs.ErrInvalidFormat) {
		t.Error(err)
	}
	if _, err := Escape(nil, -1, 0); !errors.Is(err, errs.ErrInvalidFormat) {
		t.Error(err)
	}
}

func FuzzPackets(f *testing.F) {
	f.Add([]byte{0x82, 1, 2, 3, 0x01, 4, 5, 6, 7, 8, 9}, uint16(15), uint8(3))
	f.Fuzz(func(t *testing.T, src []byte, size uint16, px uint8) {
		pixelSize := int(px%MaxPixelSize) + 1
		out, err := Packets(src, int(size), pixelSize)
		if err != nil {
			t.Fatal(err)
		}
		if len(out) > int(size) {
			t.Fatalf("wrote %d bytes, declared %d", len(out), size)
		}
		if out, _ := PackBits(src, int(size)); len(out) > int(size) {
			t.Fatalf("packbits wrote %d bytes", len(out))
		}
	})
}
