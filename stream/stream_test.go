package stream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/morkt/GARbro-sub001/binview"
	"github.com/morkt/GARbro-sub001/errs"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

func TestRegion(t *testing.T) {
	r, err := NewRegion(strings.NewReader(alphabet), 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if r.Size() != 10 {
		t.Fatalf("size %d", r.Size())
	}
	all, err := io.ReadAll(r)
	if err != nil || string(all) != "fghijklmno" {
		t.Fatalf("read all: %q, %v", all, err)
	}
	if n, err := r.Read(make([]byte, 4)); n != 0 || err != io.EOF {
		t.Fatalf("read at end: %d, %v", n, err)
	}

	if pos, err := r.Seek(-3, io.SeekEnd); err != nil || pos != 7 {
		t.Fatalf("seek: %d, %v", pos, err)
	}
	buf := make([]byte, 8)
	n, err := io.ReadFull(r, buf)
	if n != 3 || string(buf[:n]) != "mno" || err != io.ErrUnexpectedEOF {
		t.Fatalf("short read: %q, %v", buf[:n], err)
	}

	n, err = r.ReadAt(buf[:4], 8)
	if n != 2 || err != io.EOF || string(buf[:n]) != "no" {
		t.Fatalf("read at: %q, %v", buf[:n], err)
	}
	if _, err := r.Seek(-1, io.SeekStart); !errors.Is(err, errs.ErrOutOfRange) {
		t.Fatalf("negative seek: %v", err)
	}
	if _, err := r.Seek(0, 7); err == nil {
		t.Fatal("bad whence accepted")
	}

	if _, err := NewRegion(strings.NewReader(alphabet), 20, 10); !errors.Is(err, errs.ErrOutOfRange) {
		t.Fatalf("region past source: %v", err)
	}
}

func TestRegionReader(t *testing.T) {
	r, err := NewRegion(strings.NewReader(alphabet), 1, 25)
	if err != nil {
		t.Fatal(err)
	}
	if err := iotest.TestReader(r, []byte(alphabet[1:])); err != nil {
		t.Fatal(err)
	}
}

func TestPrefixed(t *testing.T) {
	p := NewPrefixed([]byte("HEAD"), strings.NewReader("body"))
	all, err := io.ReadAll(p)
	if err != nil || string(all) != "HEADbody" {
		t.Fatalf("read all: %q, %v", all, err)
	}

	if pos, err := p.Seek(2, io.SeekStart); err != nil || pos != 2 {
		t.Fatalf("seek into header: %d, %v", pos, err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(p, buf); err != nil || string(buf) != "ADbo" {
		t.Fatalf("across boundary: %q, %v", buf, err)
	}

	if pos, err := p.Seek(-2, io.SeekEnd); err != nil || pos != 6 {
		t.Fatalf("seek from end: %d, %v", pos, err)
	}
	if _, err := io.ReadFull(p, buf[:2]); err != nil || string(buf[:2]) != "dy" {
		t.Fatalf("tail: %q, %v", buf[:2], err)
	}

	if _, err := p.Seek(5, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadFull(p, buf[:3]); err != nil || string(buf[:3]) != "ody" {
		t.Fatalf("after seek: %q, %v", buf[:3], err)
	}
}

func TestPrefixedReader(t *testing.T) {
	p := NewPrefixed([]byte("0123"), strings.NewReader(alphabet))
	if err := iotest.TestReader(p, []byte("0123"+alphabet)); err != nil {
		t.Fatal(err)
	}
}

func TestLazy(t *testing.T) {
	l := NewLazy(iotest.OneByteReader(strings.NewReader(alphabet)))

	buf := make([]byte, 3)
	if _, err := io.ReadFull(l, buf); err != nil || string(buf) != "abc" {
		t.Fatalf("first read: %q, %v", buf, err)
	}
	if l.Drained() {
		t.Fatal("drained after three bytes")
	}
	if _, err := l.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadFull(l, buf); err != nil || string(buf) != "abc" {
		t.Fatalf("reread: %q, %v", buf, err)
	}

	n, err := l.ReadAt(buf, 20)
	if err != nil || string(buf[:n]) != "uvw" {
		t.Fatalf("read ahead: %q, %v", buf[:n], err)
	}
	n, err = l.ReadAt(buf, 24)
	if n != 2 || err != io.EOF || string(buf[:n]) != "yz" {
		t.Fatalf("read at end: %q, %v", buf[:n], err)
	}

	if l.Size() != int64(len(alphabet)) || !l.Drained() {
		t.Fatalf("size %d", l.Size())
	}
	if pos, err := l.Seek(-1, io.SeekEnd); err != nil || pos != 25 {
		t.Fatalf("seek end: %d, %v", pos, err)
	}
	rest, err := io.ReadAll(l)
	if err != nil || string(rest) != "z" {
		t.Fatalf("tail: %q, %v", rest, err)
	}
}

func TestLazyOriginError(t *testing.T) {
	boom := errors.New("boom")
	origin := io.MultiReader(strings.NewReader("abc"), iotest.ErrReader(boom))
	l := NewLazy(origin)
	buf := make([]byte, 8)
	if _, err := l.ReadAt(buf, 0); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	// Buffered bytes stay readable.
	n, err := l.ReadAt(buf[:2], 1)
	if err != nil || string(buf[:n]) != "bc" {
		t.Fatalf("buffered: %q, %v", buf[:n], err)
	}
}

func TestLazyAsViewSource(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 3000)
	l := NewLazy(bytes.NewReader(data))
	v, err := binview.New(l, 4, 8)
	if err != nil {
		t.Fatal(err)
	}
	got, err := v.ReadU32BE(4)
	if err != nil || got != 0x01020304 {
		t.Fatalf("got %#x, %v", got, err)
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := make([]byte, 4)
			if _, err := l.ReadAt(b, int64(i*1000)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}
