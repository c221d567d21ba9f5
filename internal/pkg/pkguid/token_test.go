package pkguid

import (
	"encoding/hex"
	"testing"
)

func TestTokenGenerate(t *testing.T) {
	gen := NewToken()
	a := gen.Generate()
	b := gen.Generate()

	if len(a) != 40 {
		t.Fatalf("expected 40 chars, got %d", len(a))
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Fatalf("expected hex token, got %q", a)
	}
	if a == b {
		t.Fatalf("expected unique tokens, got %q twice", a)
	}
}
