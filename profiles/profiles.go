// Package profiles reads named codec profiles and index layouts from YAML.
package profiles

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/morkt/GARbro-sub001/binview"
	"github.com/morkt/GARbro-sub001/compress"
	"github.com/morkt/GARbro-sub001/compress/bits"
	"github.com/morkt/GARbro-sub001/compress/lzss"
	"github.com/morkt/GARbro-sub001/compress/transform"
	"github.com/morkt/GARbro-sub001/entry"
	"github.com/morkt/GARbro-sub001/errs"
	"github.com/morkt/GARbro-sub001/indextree"
	"gopkg.in/yaml.v3"
)

// LZSSConfig lists the LZSS parameters. Omitted fields take the values of
// lzss.DefaultParams.
type LZSSConfig struct {
	FrameSize    int    `yaml:"frameSize,omitempty"`
	FrameFill    uint8  `yaml:"frameFill,omitempty"`
	FrameInitPos *int   `yaml:"frameInitPos,omitempty"`
	FlagOrder    string `yaml:"flagOrder,omitempty"`
	LiteralBit   *bool  `yaml:"literalBit,omitempty"`
	Layout       string `yaml:"layout,omitempty"`
	MinMatch     *int   `yaml:"minMatch,omitempty"`
	Relative     bool   `yaml:"relative,omitempty"`
	Strict       bool   `yaml:"strict,omitempty"`
}

// Params converts lc into lzss.Params.
func (lc *LZSSConfig) Params() (lzss.Params, error) {
	p := lzss.DefaultParams()
	if lc == nil {
		return p, nil
	}
	if lc.FrameSize != 0 {
		p.FrameSize = lc.FrameSize
	}
	p.FrameFill = lc.FrameFill
	if lc.FrameInitPos != nil {
		p.FrameInitPos = *lc.FrameInitPos
	}
	if lc.FlagOrder != "" {
		order, err := bits.ParseOrder(lc.FlagOrder)
		if err != nil {
			return p, err
		}
		p.FlagOrder = order
	}
	if lc.LiteralBit != nil {
		p.LiteralBit = *lc.LiteralBit
	}
	if lc.Layout != "" {
		layout, err := lzss.ParseLayout(lc.Layout)
		if err != nil {
			return p, err
		}
		p.Layout = layout
	}
	if lc.MinMatch != nil {
		p.MinMatch = *lc.MinMatch
	}
	p.Relative = lc.Relative
	p.Strict = lc.Strict
	return p, p.Validate()
}

// Step is one post-pass applied after decoding.
type Step struct {
	Op  string `yaml:"op"`
	Arg int    `yaml:"arg,omitempty"`
}

// Profile describes how the entries of one format are decoded.
type Profile struct {
	Algorithm string      `yaml:"algorithm"`
	LZSS      *LZSSConfig `yaml:"lzss,omitempty"`
	PixelSize int         `yaml:"pixelSize,omitempty"`
	Escape    uint8       `yaml:"escape,omitempty"`
	Post      []Step      `yaml:"post,omitempty"`
	Key       string      `yaml:"key,omitempty"` // hex-encoded Blowfish key
}

// Decompressor builds the decoder described by p.
func (p Profile) Decompressor() (*compress.Decompressor, error) {
	algo, err := compress.ParseAlgorithm(p.Algorithm)
	if err != nil {
		return nil, err
	}
	opts := compress.Options{PixelSize: p.PixelSize, Escape: p.Escape}
	if algo == compress.LZSS {
		if opts.LZSS, err = p.LZSS.Params(); err != nil {
			return nil, err
		}
	} else if p.LZSS != nil {
		return nil, errs.Invalid("lzss parameters given for %s", algo)
	}
	if algo == compress.Packets && (p.PixelSize < 1 || p.PixelSize > 16) {
		return nil, errs.Invalid("pixel size %d", p.PixelSize)
	}
	for _, s := range p.Post {
		step, err := transform.ParseStep(s.Op, s.Arg)
		if err != nil {
			return nil, err
		}
		opts.Post = append(opts.Post, step)
	}
	return compress.New(algo, opts), nil
}

// Decrypter returns the Blowfish decrypter for p, or nil when p has no key.
func (p Profile) Decrypter() (entry.Decrypter, error) {
	if p.Key == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(p.Key)
	if err != nil {
		return nil, errs.Invalid("blowfish key: %v", err)
	}
	bf, err := entry.NewBlowfish(key)
	if err != nil {
		return nil, errs.Invalid("blowfish key: %v", err)
	}
	return bf, nil
}

// IndexLayout mirrors indextree.Layout. Zero limits take the defaults.
type IndexLayout struct {
	CountSize     int    `yaml:"countSize"`
	PointerSize   int    `yaml:"pointerSize"`
	RecordOffset  int64  `yaml:"recordOffset"`
	RecordSize    int64  `yaml:"recordSize"`
	OffsetSize    int    `yaml:"offsetSize"`
	SizeSize      int    `yaml:"sizeSize"`
	UnpackedSize  int    `yaml:"unpackedSize,omitempty"`
	FlagsSize     int    `yaml:"flagsSize,omitempty"`
	OffsetShift   uint   `yaml:"offsetShift,omitempty"`
	BigEndian     bool   `yaml:"bigEndian,omitempty"`
	MaxNameLength int    `yaml:"maxNameLength,omitempty"`
	MaxEntries    int    `yaml:"maxEntries,omitempty"`
	Charset       string `yaml:"charset,omitempty"`
}

// Layout converts il into an indextree.Layout.
func (il IndexLayout) Layout() (indextree.Layout, error) {
	def := indextree.DefaultLayout()
	l := indextree.Layout{
		CountSize:     il.CountSize,
		PointerSize:   il.PointerSize,
		RecordOffset:  il.RecordOffset,
		RecordSize:    il.RecordSize,
		OffsetSize:    il.OffsetSize,
		SizeSize:      il.SizeSize,
		UnpackedSize:  il.UnpackedSize,
		FlagsSize:     il.FlagsSize,
		OffsetShift:   il.OffsetShift,
		BigEndian:     il.BigEndian,
		MaxNameLength: il.MaxNameLength,
		MaxEntries:    il.MaxEntries,
	}
	if l.MaxNameLength == 0 {
		l.MaxNameLength = def.MaxNameLength
	}
	if l.MaxEntries == 0 {
		l.MaxEntries = def.MaxEntries
	}
	return l, l.Validate()
}

// Reader builds an index reader for il.
func (il IndexLayout) Reader() (*indextree.Reader, error) {
	l, err := il.Layout()
	if err != nil {
		return nil, err
	}
	cs, err := binview.CharsetByName(il.Charset)
	if err != nil {
		return nil, err
	}
	return indextree.NewReader(l, cs)
}

// Config lists the config fields.
type Config struct {
	Profiles map[string]Profile     `yaml:"profiles"`
	Indexes  map[string]IndexLayout `yaml:"indexes,omitempty"`
}

// Profile looks up a profile by name.
func (c Config) Profile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

// Index looks up an index layout by name.
func (c Config) Index(name string) (IndexLayout, error) {
	il, ok := c.Indexes[name]
	if !ok {
		return IndexLayout{}, fmt.Errorf("unknown index layout %q", name)
	}
	return il, nil
}

// ReadConfig tries to read the config from the specified file. Profiles and
// layouts in the file are added to the defaults, replacing those of the same
// name.
func ReadConfig(path string) (cfg Config, err error) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a config from r on top of DefaultConfig.
func Decode(r io.Reader) (cfg Config, err error) {
	cfg = DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err = dec.Decode(&cfg); err == io.EOF {
		err = nil
	}
	return
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

// DefaultConfig returns the built-in profiles and index layouts.
func DefaultConfig() Config {
	return Config{
		Profiles: map[string]Profile{
			"none":    {Algorithm: "none"},
			"lzss":    {Algorithm: "lzss"},
			"tamsoft": {Algorithm: "lzss", LZSS: &LZSSConfig{Strict: true}},
			"lzss-be": {
				Algorithm: "lzss",
				LZSS: &LZSSConfig{
					FrameInitPos: intPtr(0),
					FlagOrder:    "msb",
					LiteralBit:   boolPtr(false),
					Layout:       "4x12",
					MinMatch:     intPtr(2),
					Relative:     true,
				},
			},
			"lz77":     {Algorithm: "lz77"},
			"lznt1":    {Algorithm: "lznt1"},
			"lz10":     {Algorithm: "lz10"},
			"lz11":     {Algorithm: "lz11"},
			"prs":      {Algorithm: "prs"},
			"huffman":  {Algorithm: "huffman"},
			"packbits": {Algorithm: "packbits"},
			"tga":      {Algorithm: "packets", PixelSize: 4},
			"escape":   {Algorithm: "escape", Escape: 0xff},
			"lz4":      {Algorithm: "lz4"},
			"zlib":     {Algorithm: "zlib"},
			"lzma":     {Algorithm: "lzma"},
		},
		Indexes: map[string]IndexLayout{
			"default": {
				CountSize:    1,
				PointerSize:  4,
				RecordSize:   12,
				OffsetSize:   4,
				SizeSize:     4,
				UnpackedSize: 4,
			},
		},
	}
}
