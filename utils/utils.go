// Package utils holds byte-buffer helpers shared by the decoders.
package utils

import (
	"github.com/morkt/GARbro-sub001/errs"
)

// CopyOverlapped copies count bytes within buf from src to dst as if one byte
// at a time in increasing index order, so a destination that starts inside
// the source range repeats the bytes already written by the same call.
func CopyOverlapped(buf []byte, src, dst, count int) error {
	if src < 0 || dst < 0 || count < 0 {
		return errs.Invalid("overlapped copy of %d bytes from %d to %d", count, src, dst)
	}
	if count == 0 {
		return nil
	}
	if err := errs.CheckRange(int64(src), int64(count), int64(len(buf))); err != nil {
		return err
	}
	if err := errs.CheckRange(int64(dst), int64(count), int64(len(buf))); err != nil {
		return err
	}

	// Only a forward overlap differs from memmove.
	if dst <= src || dst >= src+count {
		copy(buf[dst:dst+count], buf[src:src+count])
		return nil
	}

	// Double the copied span each pass: every chunk only reads bytes that are final.
	dist := dst - src
	for count > 0 {
		n := min(dist, count)
		copy(buf[dst:dst+n], buf[src:src+n])
		dst += n
		count -= n
		dist += n
	}
	return nil
}

// Fill sets every byte of buf to b.
func Fill(buf []byte, b byte) {
	for i := range buf {
		buf[i] = b
	}
}
