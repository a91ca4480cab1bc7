// Package transform holds the byte-wise post-passes some formats apply to
// decoded data: bit inversion, XOR with a constant, bit rotation and delta
// coding.
package transform

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/morkt/GARbro-sub001/errs"
)

// Op identifies a post-pass.
type Op uint8

const (
	Not Op = iota + 1
	Xor
	RotL
	RotR
	Delta
)

var opNames = map[Op]string{
	Not:   "not",
	Xor:   "xor",
	RotL:  "rotl",
	RotR:  "rotr",
	Delta: "delta",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", op)
}

// Step is one post-pass with its argument: the XOR key, the rotation count
// or the delta stride.
type Step struct {
	Op  Op
	Arg int
}

func (s Step) String() string {
	if s.Op == Not {
		return s.Op.String()
	}
	return fmt.Sprintf("%s:%d", s.Op, s.Arg)
}

// ParseStep builds a step from its configuration name and argument.
func ParseStep(name string, arg int) (Step, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for op, s := range opNames {
		if s == name {
			step := Step{Op: op, Arg: arg}
			return step, step.Validate()
		}
	}
	return Step{}, errs.Invalid("transform: unknown step %q", name)
}

// Validate checks the argument range of s.
func (s Step) Validate() error {
	switch s.Op {
	case Not:
	case Xor:
		if s.Arg < 0 || s.Arg > 0xff {
			return errs.Invalid("transform: xor key %d out of byte range", s.Arg)
		}
	case RotL, RotR:
		if s.Arg < 0 || s.Arg > 7 {
			return errs.Invalid("transform: rotation %d out of range", s.Arg)
		}
	case Delta:
		if s.Arg < 1 {
			return errs.Invalid("transform: delta stride %d", s.Arg)
		}
	default:
		return errs.Invalid("transform: unknown op %d", s.Op)
	}
	return nil
}

// Apply runs s over buf in place.
func (s Step) Apply(buf []byte) error {
	if err := s.Validate(); err != nil {
		return err
	}
	switch s.Op {
	case Not:
		for i := range buf {
			buf[i] = ^buf[i]
		}
	case Xor:
		k := byte(s.Arg)
		for i := range buf {
			buf[i] ^= k
		}
	case RotL:
		for i := range buf {
			buf[i] = bits.RotateLeft8(buf[i], s.Arg)
		}
	case RotR:
		for i := range buf {
			buf[i] = bits.RotateLeft8(buf[i], -s.Arg)
		}
	case Delta:
		for i := s.Arg; i < len(buf); i++ {
			buf[i] += buf[i-s.Arg]
		}
	}
	return nil
}

// Apply runs steps over buf in order.
func Apply(buf []byte, steps ...Step) error {
	for _, s := range steps {
		if err := s.Apply(buf); err != nil {
			return err
		}
	}
	return nil
}
