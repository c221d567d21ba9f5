package pkguid

import (
	"crypto/rand"
	"encoding/hex"
)

const tokenBytes = 20

// Token generates opaque 40-character hex strings used as API tokens.
type Token struct{}

// NewToken returns a Token generator.
func NewToken() *Token {
	return &Token{}
}

// Generate returns a new random token.
func (t *Token) Generate() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}

	return hex.EncodeToString(buf)
}
