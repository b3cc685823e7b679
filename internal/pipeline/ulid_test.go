package pipeline

import (
	"strings"
	"testing"
)

func TestEncodeULID_Extremes(t *testing.T) {
	var zero [16]byte
	if got := encodeULID(zero); got != strings.Repeat("0", 26) {
		t.Errorf("zero encoded as %q", got)
	}

	var ones [16]byte
	for i := range ones {
		ones[i] = 0xFF
	}
	if got := encodeULID(ones); got != "7"+strings.Repeat("Z", 25) {
		t.Errorf("all ones encoded as %q", got)
	}
}

func TestEncodeULID_LowBits(t *testing.T) {
	var b [16]byte
	b[15] = 33 // 0b100001
	if got := encodeULID(b); got != strings.Repeat("0", 24)+"11" {
		t.Errorf("got %q", got)
	}
}

func TestGenerateULID_SortedAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for range 1000 {
		id := generateULID()
		if len(id) != 26 {
			t.Fatalf("expected 26 chars, got %q", id)
		}
		if strings.Trim(id, crockford) != "" {
			t.Fatalf("unexpected characters in %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		if id <= prev {
			t.Fatalf("ids not increasing: %q then %q", prev, id)
		}
		seen[id] = true
		prev = id
	}
}
