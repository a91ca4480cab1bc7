// Package huffman decodes byte streams coded with a Huffman tree that is
// transmitted in front of the data. The tree is written pre-order, MSB
// first: a 1 bit opens an internal node followed by its left and right
// subtrees, a 0 bit is a leaf followed by its 8-bit symbol.
package huffman

import (
	"errors"
	"fmt"

	"github.com/morkt/GARbro-sub001/compress/bits"
	"github.com/morkt/GARbro-sub001/errs"
)

const (
	symbols  = 256
	maxNodes = 2 * symbols
)

var ErrTreeOverflow = fmt.Errorf("huffman: %w: more than %d internal nodes", errs.ErrInvalidFormat, maxNodes-symbols-1)

type tree struct {
	lhs  [maxNodes]uint16
	rhs  [maxNodes]uint16
	next uint16
}

// Decompress decodes src into at most size bytes. Input that ends inside
// the tree is an error; input that ends inside the data truncates the output.
func Decompress(src []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, errs.Invalid("huffman: negative output size %d", size)
	}
	br := bits.NewReader(bits.NewInput(src), bits.MSBFirst)

	t := &tree{next: symbols}
	root, err := t.build(br)
	if err != nil {
		return nil, err
	}

	out := make([]byte, size)
	for dst := range out {
		node := root
		for node >= symbols {
			bit, err := br.NextBit()
			if err != nil {
				if errors.Is(err, errs.ErrEndOfStream) {
					return out[:dst], nil
				}
				return nil, err
			}
			if bit != 0 {
				node = t.rhs[node]
			} else {
				node = t.lhs[node]
			}
		}
		out[dst] = byte(node)
	}
	return out, nil
}

// build reads one subtree and returns its node index. Recursion depth is
// bounded by the number of internal nodes.
func (t *tree) build(br *bits.Reader) (uint16, error) {
	bit, err := br.NextBit()
	if err != nil {
		return 0, err
	}
	if bit == 0 {
		sym, err := br.NextBits(8)
		if err != nil {
			return 0, err
		}
		return uint16(sym), nil
	}

	if t.next >= maxNodes-1 {
		return 0, ErrTreeOverflow
	}
	v := t.next
	t.next++
	if t.lhs[v], err = t.build(br); err != nil {
		return 0, err
	}
	if t.rhs[v], err = t.build(br); err != nil {
		return 0, err
	}
	return v, nil
}
