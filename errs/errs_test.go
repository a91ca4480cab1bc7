package errs

import (
	"errors"
	"testing"
)

func TestCheckRange(t *testing.T) {
	tests := []struct {
		offset, size, limit int64
		ok                  bool
	}{
		{0, 0, 0, true},
		{0, 10, 10, true},
		{10, 0, 10, true},
		{9, 1, 10, true},
		{9, 2, 10, false},
		{11, 0, 10, false},
		{-1, 1, 10, false},
		{0, -1, 10, false},
		{1, 1<<63 - 1, 10, false},
	}
	for _, tt := range tests {
		err := CheckRange(tt.offset, tt.size, tt.limit)
		if (err == nil) != tt.ok {
			t.Errorf("CheckRange(%d, %d, %d) = %v", tt.offset, tt.size, tt.limit, err)
		}
		if err != nil && !errors.Is(err, ErrOutOfRange) {
			t.Errorf("CheckRange(%d, %d, %d) does not unwrap to ErrOutOfRange", tt.offset, tt.size, tt.limit)
		}
	}
}

func TestWrapping(t *testing.T) {
	if err := Invalid("bad node at %d", 12); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("Invalid: %v", err)
	}
	if err := EndOfStream("control byte"); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("EndOfStream: %v", err)
	}
}
