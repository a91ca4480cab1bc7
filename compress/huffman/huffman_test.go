package huffman

import (
	"errors"
	"testing"

	"github.com/morkt/GARbro-sub001/errs"
)

// bitWriter packs bits MSB first.
type bitWriter struct {
	out []byte
	n   int
}

func (w *bitWriter) put(v uint, width int) {
	for i := width - 1; i >= 0; i-- {
		if w.n%8 == 0 {
			w.out = append(w.out, 0)
		}
		if v>>i&1 != 0 {
			w.out[len(w.out)-1] |= 0x80 >> (w.n % 8)
		}
		w.n++
	}
}

// abcTree writes the tree ((a b) c): codes a=00, b=01, c=1.
func abcTree(w *bitWriter) {
	w.put(1, 1)
	w.put(1, 1)
	w.put(0, 1)
	w.put('a', 8)
	w.put(0, 1)
	w.put('b', 8)
	w.put(0, 1)
	w.put('c', 8)
}

func TestDecompress(t *testing.T) {
	var w bitWriter
	abcTree(&w)
	codes := map[byte][2]uint{'a': {0, 2}, 'b': {1, 2}, 'c': {1, 1}}
	const text = "abacabcc"
	for i := range len(text) {
		c := codes[text[i]]
		w.put(c[0], int(c[1]))
	}

	out, err := Decompress(w.out, len(text))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != text {
		t.Fatalf("got %q", out)
	}

	// Padding bits of the last byte decode as extra symbols; the input then runs out.
	out, err = Decompress(w.out, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) < len(text) || string(out[:len(text)]) != text {
		t.Fatalf("long size: %q", out)
	}
}

func TestSingleLeaf(t *testing.T) {
	var w bitWriter
	w.put(0, 1)
	w.put('z', 8)
	out, err := Decompress(w.out, 5)
	if err != nil || string(out) != "zzzzz" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestMalformedTree(t *testing.T) {
	if _, err := Decompress([]byte{0xc0}, 4); !errors.Is(err, errs.ErrEndOfStream) {
		t.Errorf("truncated tree: %v", err)
	}
	// A run of 1 bits opens internal nodes until the node table is full.
	deep := make([]byte, 64)
	for i := range deep {
		deep[i] = 0xff
	}
	if _, err := Decompress(deep, 4); !errors.Is(err, errs.ErrInvalidFormat) {
		t.Errorf("overflowing tree: %v", err)
	}
}

func FuzzDecompress(f *testing.F) {
	f.Add([]byte{0xc0, 0xc2, 0x06, 0x2c, 0x60}, uint16(8))
	f.Fuzz(func(t *testing.T, src []byte, size uint16) {
		out, err := Decompress(src, int(size))
		if err == nil && len(out) > int(size) {
			t.Fatalf("wrote %d bytes, declared %d", len(out), size)
		}
	})
}
