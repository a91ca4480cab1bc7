// Package compress dispatches decoding to the codec named by an Algorithm.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/morkt/GARbro-sub001/binview"
	"github.com/morkt/GARbro-sub001/compress/backref"
	"github.com/morkt/GARbro-sub001/compress/huffman"
	"github.com/morkt/GARbro-sub001/compress/lz77"
	"github.com/morkt/GARbro-sub001/compress/lznt1"
	"github.com/morkt/GARbro-sub001/compress/lzss"
	"github.com/morkt/GARbro-sub001/compress/prs"
	"github.com/morkt/GARbro-sub001/compress/rle"
	"github.com/morkt/GARbro-sub001/compress/transform"
	"github.com/morkt/GARbro-sub001/errs"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"
)

// MaxOutputSize caps the declared output size of a single decode.
const MaxOutputSize = 1 << 30

// Algorithm identifies a codec.
type Algorithm uint16

const (
	None Algorithm = iota
	LZSS
	LZ77
	LZNT1
	LZ10
	LZ11
	PRS
	Huffman
	PackBits
	Packets
	EscapeRLE
	LZ4
	Zlib
	LZMA
)

var algorithmNames = [...]string{
	None:      "none",
	LZSS:      "lzss",
	LZ77:      "lz77",
	LZNT1:     "lznt1",
	LZ10:      "lz10",
	LZ11:      "lz11",
	PRS:       "prs",
	Huffman:   "huffman",
	PackBits:  "packbits",
	Packets:   "packets",
	EscapeRLE: "escape",
	LZ4:       "lz4",
	Zlib:      "zlib",
	LZMA:      "lzma",
}

var (
	ErrUnknownAlgorithm = fmt.Errorf("compress: %w: unknown algorithm", errs.ErrInvalidFormat)
	ErrOutputSize       = fmt.Errorf("compress: %w: output size out of range", errs.ErrInvalidFormat)
)

func (a Algorithm) String() string {
	if int(a) < len(algorithmNames) {
		return algorithmNames[a]
	}
	return fmt.Sprintf("Algorithm(%d)", uint16(a))
}

// ParseAlgorithm returns the algorithm printed as s by String.
func ParseAlgorithm(s string) (Algorithm, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range algorithmNames {
		if name == s {
			return Algorithm(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownAlgorithm, s)
}

// Options carries the per-codec parameters. Fields a codec does not use are
// ignored.
type Options struct {
	// LZSS flavour; the zero value selects lzss.DefaultParams.
	LZSS lzss.Params

	// Bytes per pixel for Packets.
	PixelSize int

	// Escape byte for EscapeRLE.
	Escape byte

	// Post-passes applied to the decoded bytes, in order.
	Post []transform.Step
}

// Decompressor performs decompression of data.
type Decompressor struct {
	algorithm Algorithm
	opts      Options
}

// New returns an initialized Decompressor.
func New(algo Algorithm, opts Options) *Decompressor {
	if opts.LZSS == (lzss.Params{}) {
		opts.LZSS = lzss.DefaultParams()
	}
	return &Decompressor{algorithm: algo, opts: opts}
}

// Algorithm returns the codec d dispatches to.
func (d *Decompressor) Algorithm() Algorithm {
	return d.algorithm
}

// Decompress decodes src into at most size bytes and applies the
// post-passes. A stream that ends early yields a shorter result.
func (d *Decompressor) Decompress(src []byte, size int) ([]byte, error) {
	if size < 0 || size > MaxOutputSize {
		return nil, fmt.Errorf("%w: %d", ErrOutputSize, size)
	}

	dst, err := d.decode(src, size)
	if err != nil {
		return nil, err
	}
	if err := transform.Apply(dst, d.opts.Post...); err != nil {
		return nil, err
	}
	return dst, nil
}

// DecompressView decodes the whole of v.
func (d *Decompressor) DecompressView(v *binview.View, size int) ([]byte, error) {
	src, err := v.Bytes()
	if err != nil {
		return nil, err
	}
	return d.Decompress(src, size)
}

func (d *Decompressor) decode(src []byte, size int) ([]byte, error) {
	switch d.algorithm {
	case None:
		dst := make([]byte, min(size, len(src)))
		copy(dst, src)
		return dst, nil

	case LZSS:
		return lzss.Decompress(src, size, d.opts.LZSS)

	case LZ77:
		return lz77.Decompress(src, size)

	case LZNT1:
		return lznt1.Decompress(src, size)

	case LZ10:
		return backref.Decompress(src, size, backref.Plain)

	case LZ11:
		return backref.Decompress(src, size, backref.Tiered)

	case PRS:
		return prs.Decompress(src, size)

	case Huffman:
		return huffman.Decompress(src, size)

	case PackBits:
		return rle.PackBits(src, size)

	case Packets:
		return rle.Packets(src, size, d.opts.PixelSize)

	case EscapeRLE:
		return rle.Escape(src, size, d.opts.Escape)

	case LZ4:
		return decodeLZ4(src, size)

	case Zlib:
		r, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("zlib: %w: %v", errs.ErrInvalidFormat, err)
		}
		defer r.Close()
		return readBounded("zlib", r, size)

	case LZMA:
		r, err := lzma.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("lzma: %w: %v", errs.ErrInvalidFormat, err)
		}
		return readBounded("lzma", r, size)

	default:
		return nil, fmt.Errorf("%w %d", ErrUnknownAlgorithm, uint16(d.algorithm))
	}
}

// decodeLZ4 decodes a raw LZ4 block. The block API refuses to stop at the
// end of dst, so a block longer than size is decoded whole into a buffer
// sized for the format's maximum ratio and then cut to size.
func decodeLZ4(src []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(src, dst)
	if err == nil {
		return dst[:n], nil
	}
	if bound := min(255*len(src)+16, MaxOutputSize); bound > size {
		big := make([]byte, bound)
		if n, err := lz4.UncompressBlock(src, big); err == nil {
			return bytes.Clone(big[:min(n, size)]), nil
		}
	}
	return nil, fmt.Errorf("lz4: %w: %v", errs.ErrInvalidFormat, err)
}

// readBounded reads up to size bytes from r. Running out of data early is a
// truncation; any other read failure means a corrupt stream.
func readBounded(name string, r io.Reader, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, err := io.ReadFull(r, dst)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%s: %w: %v", name, errs.ErrInvalidFormat, err)
	}
	return dst[:n], nil
}
