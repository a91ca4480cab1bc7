// Package entry turns archive entries into readable streams: stored entries
// are exposed as regions of the archive, packed ones are decrypted and
// decoded into memory first.
package entry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/morkt/GARbro-sub001/binview"
	"github.com/morkt/GARbro-sub001/compress"
	"github.com/morkt/GARbro-sub001/errs"
	"github.com/morkt/GARbro-sub001/stream"
)

// Entry locates one file inside an archive.
type Entry struct {
	Name         string
	Offset       int64
	Size         int64
	UnpackedSize int64
	Packed       bool

	// Header is prepended to the entry data when it is opened, for formats
	// that strip a file signature on packing.
	Header []byte
}

// Decrypter reverses an archive's encryption in place.
type Decrypter interface {
	Decrypt(buf []byte) error
}

// cacheKey names one decoding of one byte range. Decompressors and
// decrypters are compared by identity.
type cacheKey struct {
	offset int64
	size   int64
	d      *compress.Decompressor
	dec    Decrypter
}

// Opener opens entries of one archive. It is safe for concurrent use.
type Opener struct {
	view  *binview.View
	cache *lru.Cache[cacheKey, []byte]
}

// NewOpener returns an Opener over the archive view. Up to cacheSize decoded
// entries are kept in memory; zero disables caching.
func NewOpener(view *binview.View, cacheSize int) (*Opener, error) {
	o := &Opener{view: view}
	if cacheSize > 0 {
		c, err := lru.New[cacheKey, []byte](cacheSize)
		if err != nil {
			return nil, err
		}
		o.cache = c
	}
	return o, nil
}

// Open returns a stream over the contents of e. Packed entries go through
// dec, when not nil, and then d. An entry that fails to decode as malformed
// data is returned as stored.
func (o *Opener) Open(e Entry, d *compress.Decompressor, dec Decrypter) (io.ReadSeeker, error) {
	raw, err := o.view.Slice(e.Offset, e.Size)
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", e.Name, err)
	}

	var r io.ReadSeeker
	if e.Packed && d != nil {
		data, err := o.unpack(e, raw, d, dec)
		switch {
		case err == nil:
			r = bytes.NewReader(data)
		case errors.Is(err, errs.ErrInvalidFormat):
		default:
			return nil, fmt.Errorf("entry %q: %w", e.Name, err)
		}
	}
	if r == nil {
		region, err := stream.NewRegion(raw, 0, raw.Len())
		if err != nil {
			return nil, err
		}
		r = region
	}

	if len(e.Header) > 0 {
		return stream.NewPrefixed(e.Header, r), nil
	}
	return r, nil
}

func (o *Opener) unpack(e Entry, raw *binview.View, d *compress.Decompressor, dec Decrypter) ([]byte, error) {
	key := cacheKey{offset: raw.Base(), size: raw.Len(), d: d, dec: dec}
	// Decrypters that cannot serve as map keys bypass the cache.
	cache := o.cache
	if dec != nil && !reflect.TypeOf(dec).Comparable() {
		cache = nil
	}
	if cache != nil {
		if data, ok := o.cache.Get(key); ok {
			return data, nil
		}
	}

	if e.UnpackedSize < 0 || e.UnpackedSize > compress.MaxOutputSize {
		return nil, errs.Invalid("unpacked size %d", e.UnpackedSize)
	}
	src, err := raw.Bytes()
	if err != nil {
		return nil, err
	}
	if dec != nil {
		if err := dec.Decrypt(src); err != nil {
			return nil, err
		}
	}
	data, err := d.Decompress(src, int(e.UnpackedSize))
	if err != nil {
		return nil, err
	}

	if cache != nil {
		cache.Add(key, data)
	}
	return data, nil
}
