package entry

import (
	"golang.org/x/crypto/blowfish"
)

// Blowfish decrypts with Blowfish in ECB mode. A trailing partial block is
// left as it is.
type Blowfish struct {
	c *blowfish.Cipher
}

// NewBlowfish returns a Blowfish decrypter for key (1 to 56 bytes).
func NewBlowfish(key []byte) (*Blowfish, error) {
	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Blowfish{c: c}, nil
}

// Decrypt implements Decrypter.
func (b *Blowfish) Decrypt(buf []byte) error {
	for i := 0; i+blowfish.BlockSize <= len(buf); i += blowfish.BlockSize {
		blk := buf[i : i+blowfish.BlockSize]
		b.c.Decrypt(blk, blk)
	}
	return nil
}
