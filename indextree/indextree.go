// Package indextree walks the packed prefix trees some archives use as their
// directory. A node is a branch count followed by (letter, pointer) pairs.
// A non-zero letter extends the current name by one byte and the pointer is
// the offset of the child node; a zero letter ends the name and the pointer
// is the index of a fixed-size entry record.
package indextree

import (
	"fmt"

	"github.com/morkt/GARbro-sub001/binview"
	"github.com/morkt/GARbro-sub001/errs"
)

var (
	ErrCycle        = fmt.Errorf("indextree: %w: node refers back into its own path", errs.ErrInvalidFormat)
	ErrSharedNode   = fmt.Errorf("indextree: %w: node reached from more than one parent", errs.ErrInvalidFormat)
	ErrNameTooLong  = fmt.Errorf("indextree: %w: name exceeds maximum length", errs.ErrInvalidFormat)
	ErrTooManyItems = fmt.Errorf("indextree: %w: too many entries", errs.ErrInvalidFormat)
	ErrEmptyName    = fmt.Errorf("indextree: %w: entry with empty name", errs.ErrInvalidFormat)
	ErrInvalidField = fmt.Errorf("indextree: %w: invalid layout", errs.ErrInvalidFormat)
)

// Layout describes the field widths of one index format. Widths are in
// bytes and may be 0 (absent), 1, 2, 4 or 8.
type Layout struct {
	// Width of a node's branch count and of a branch pointer.
	CountSize   int
	PointerSize int

	// Position of record 0 within the index and the distance between
	// consecutive records.
	RecordOffset int64
	RecordSize   int64

	// Record field widths, stored in this order. UnpackedSize 0 means the
	// entry is stored as is; FlagsSize 0 means no flags.
	OffsetSize   int
	SizeSize     int
	UnpackedSize int
	FlagsSize    int

	// Stored offsets are shifted right by this many bits.
	OffsetShift uint
	BigEndian   bool

	MaxNameLength int
	MaxEntries    int
}

// DefaultLayout returns a little-endian layout with one-byte counts, 32-bit
// pointers and a 12-byte record of offset, size and unpacked size.
func DefaultLayout() Layout {
	return Layout{
		CountSize:     1,
		PointerSize:   4,
		RecordSize:    12,
		OffsetSize:    4,
		SizeSize:      4,
		UnpackedSize:  4,
		MaxNameLength: 255,
		MaxEntries:    1 << 20,
	}
}

func validWidth(w int) bool {
	switch w {
	case 0, 1, 2, 4, 8:
		return true
	}
	return false
}

// Validate checks l for consistency.
func (l Layout) Validate() error {
	for _, w := range []int{l.CountSize, l.PointerSize, l.OffsetSize, l.SizeSize, l.UnpackedSize, l.FlagsSize} {
		if !validWidth(w) {
			return fmt.Errorf("%w: field width %d", ErrInvalidField, w)
		}
	}
	switch {
	case l.CountSize == 0 || l.PointerSize == 0:
		return fmt.Errorf("%w: node fields must be present", ErrInvalidField)
	case l.OffsetSize == 0 || l.SizeSize == 0:
		return fmt.Errorf("%w: record needs offset and size", ErrInvalidField)
	case l.FlagsSize > 4:
		return fmt.Errorf("%w: flags wider than 32 bits", ErrInvalidField)
	case l.RecordOffset < 0:
		return fmt.Errorf("%w: record offset %d", ErrInvalidField, l.RecordOffset)
	case l.RecordSize < int64(l.OffsetSize+l.SizeSize+l.UnpackedSize+l.FlagsSize):
		return fmt.Errorf("%w: record size %d smaller than its fields", ErrInvalidField, l.RecordSize)
	case l.OffsetShift > 32:
		return fmt.Errorf("%w: offset shift %d", ErrInvalidField, l.OffsetShift)
	case l.MaxNameLength <= 0 || l.MaxEntries <= 0:
		return fmt.Errorf("%w: limits must be positive", ErrInvalidField)
	}
	return nil
}

// Entry is one file recovered from the tree.
type Entry struct {
	Name         string
	Offset       int64
	Size         int64
	UnpackedSize int64
	Flags        uint32
}

// Reader traverses trees of a single layout. It holds no per-traversal
// state and may be shared.
type Reader struct {
	layout  Layout
	charset *binview.Charset
}

// NewReader returns a Reader for l. Names are decoded with cs, or kept as
// raw bytes when cs is nil.
func NewReader(l Layout, cs *binview.Charset) (*Reader, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if cs == nil {
		cs = binview.Raw
	}
	return &Reader{layout: l, charset: cs}, nil
}

type walk struct {
	*Reader
	index   *binview.View
	name    []byte
	onPath  map[int64]bool
	visited map[int64]bool
	entries []Entry
}

// Traverse walks the tree rooted at start and returns its entries in branch
// order.
func (r *Reader) Traverse(index *binview.View, start int64) ([]Entry, error) {
	w := &walk{
		Reader:  r,
		index:   index,
		name:    make([]byte, 0, r.layout.MaxNameLength),
		onPath:  make(map[int64]bool),
		visited: make(map[int64]bool),
	}
	if err := w.node(start); err != nil {
		return nil, err
	}
	return w.entries, nil
}

func (w *walk) node(offset int64) error {
	if w.onPath[offset] {
		return fmt.Errorf("%w: node at %#x", ErrCycle, offset)
	}
	// A trie has exactly one path to each node.
	if w.visited[offset] {
		return fmt.Errorf("%w: node at %#x", ErrSharedNode, offset)
	}
	w.onPath[offset] = true
	w.visited[offset] = true
	defer delete(w.onPath, offset)

	l := &w.layout
	count, err := w.index.ReadUint(offset, l.CountSize, l.BigEndian)
	if err != nil {
		return err
	}
	pos := offset + int64(l.CountSize)
	branch := int64(1 + l.PointerSize)
	if count > uint64(w.index.Len()) {
		return errs.Invalid("indextree: node at %#x has %d branches", offset, count)
	}
	if err := errs.CheckRange(pos, int64(count)*branch, w.index.Len()); err != nil {
		return err
	}

	for range count {
		letter, err := w.index.ReadU8(pos)
		if err != nil {
			return err
		}
		ptr, err := w.index.ReadUint(pos+1, l.PointerSize, l.BigEndian)
		if err != nil {
			return err
		}
		pos += branch

		if letter == 0 {
			if err := w.record(ptr); err != nil {
				return err
			}
			continue
		}

		if len(w.name) >= l.MaxNameLength {
			return fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(w.name)+1)
		}
		if ptr >= uint64(w.index.Len()) {
			return errs.Invalid("indextree: child pointer %#x past end of index", ptr)
		}
		w.name = append(w.name, letter)
		err = w.node(int64(ptr))
		w.name = w.name[:len(w.name)-1]
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *walk) record(index uint64) error {
	l := &w.layout
	if len(w.name) == 0 {
		return ErrEmptyName
	}
	if len(w.entries) >= l.MaxEntries {
		return fmt.Errorf("%w: more than %d", ErrTooManyItems, l.MaxEntries)
	}
	if index >= uint64(w.index.Len()) {
		return errs.Invalid("indextree: record index %d past end of index", index)
	}
	pos := l.RecordOffset + int64(index)*l.RecordSize

	var fields [4]uint64
	for i, width := range []int{l.OffsetSize, l.SizeSize, l.UnpackedSize, l.FlagsSize} {
		v, err := w.index.ReadUint(pos, width, l.BigEndian)
		if err != nil {
			return err
		}
		fields[i] = v
		pos += int64(width)
	}

	name, err := w.charset.Decode(w.name)
	if err != nil {
		return err
	}
	e := Entry{
		Name:   name,
		Offset: int64(fields[0] << l.OffsetShift),
		Size:   int64(fields[1]),
		Flags:  uint32(fields[3]),
	}
	if l.UnpackedSize != 0 {
		e.UnpackedSize = int64(fields[2])
	} else {
		e.UnpackedSize = e.Size
	}
	if e.Offset < 0 || e.Size < 0 || e.UnpackedSize < 0 {
		return errs.Invalid("indextree: record %d has negative fields", index)
	}
	w.entries = append(w.entries, e)
	return nil
}
