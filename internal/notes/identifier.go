package notes

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
)

const idEntropyBytes = 15 // 120 bits

var lowerBase32 = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// IDProvider issues identifiers for newly created notes.
type IDProvider interface {
	NewID() (string, error)
}

type randomIDProvider struct{}

// NewRandomIDProvider constructs an IDProvider backed by crypto/rand. Each
// identifier carries 120 bits of entropy encoded base32 lowercase without
// padding, yielding a 24-character URL-safe string.
//
// Identifiers are never checked for uniqueness against storage; only the
// canonical path carries a uniqueness constraint. With 120 bits of entropy a
// collision is not expected within the lifetime of any realistic corpus, and
// that exposure is accepted rather than papered over with a lookup.
func NewRandomIDProvider() IDProvider {
	return &randomIDProvider{}
}

func (p *randomIDProvider) NewID() (string, error) {
	buf := make([]byte, idEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("notes: reading random id bytes: %w", err)
	}
	return lowerBase32.EncodeToString(buf), nil
}
