package binview

import (
	"strings"

	"github.com/morkt/GARbro-sub001/errs"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// Charset decodes NUL-terminated names stored in resource headers.
type Charset struct {
	name string
	enc  encoding.Encoding // nil: bytes are taken as they are
	unit int               // width of the NUL terminator
}

var (
	Raw         = &Charset{name: "raw", unit: 1}
	ShiftJIS    = &Charset{name: "shift_jis", enc: japanese.ShiftJIS, unit: 1}
	EUCJP       = &Charset{name: "euc-jp", enc: japanese.EUCJP, unit: 1}
	GBK         = &Charset{name: "gbk", enc: simplifiedchinese.GBK, unit: 1}
	EUCKR       = &Charset{name: "euc-kr", enc: korean.EUCKR, unit: 1}
	Windows1252 = &Charset{name: "windows-1252", enc: charmap.Windows1252, unit: 1}
	UTF16LE     = &Charset{name: "utf-16le", enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), unit: 2}
)

var charsets = map[string]*Charset{
	"":             Raw,
	"raw":          Raw,
	"ascii":        Raw,
	"utf-8":        Raw,
	"shift_jis":    ShiftJIS,
	"sjis":         ShiftJIS,
	"cp932":        ShiftJIS,
	"euc-jp":       EUCJP,
	"gbk":          GBK,
	"cp936":        GBK,
	"euc-kr":       EUCKR,
	"windows-1252": Windows1252,
	"cp1252":       Windows1252,
	"utf-16le":     UTF16LE,
}

// CharsetByName looks a charset up by a case-insensitive name.
func CharsetByName(name string) (*Charset, error) {
	cs, ok := charsets[strings.ToLower(name)]
	if !ok {
		return nil, errs.Invalid("unknown charset %q", name)
	}
	return cs, nil
}

// Name returns the canonical name of the charset.
func (cs *Charset) Name() string { return cs.name }

// Decode converts b up to its first NUL unit.
func (cs *Charset) Decode(b []byte) (string, error) {
	b = cs.trim(b)
	if cs.enc == nil {
		return string(b), nil
	}
	out, err := cs.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", errs.Invalid("%s name: %v", cs.name, err)
	}
	return string(out), nil
}

func (cs *Charset) trim(b []byte) []byte {
	if cs.unit == 1 {
		for i, c := range b {
			if c == 0 {
				return b[:i]
			}
		}
		return b
	}
	n := len(b) - len(b)%cs.unit
	for i := 0; i < n; i += cs.unit {
		zero := true
		for _, c := range b[i : i+cs.unit] {
			if c != 0 {
				zero = false
				break
			}
		}
		if zero {
			return b[:i]
		}
	}
	return b[:n]
}
