package wire

import (
	"crypto/rand"
	"fmt"
)

// NewMaskKey generates a cryptographically random masking key.
// Predictable masks let intermediaries be confused into caching or
// reinterpreting traffic, so there is no weak fallback here.
func NewMaskKey() [4]byte {
	var key [4]byte
	if _, err := rand.Read(key[:]); err != nil {
		// SECURITY: Fatal on entropy failure - predictable masks are dangerous
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return key
}

// Mask XORs b in place with the masking key (b[i] ^= key[i mod 4]).
// The transform is its own inverse: applying it twice restores the input.
func Mask(key [4]byte, b []byte) {
	maskBytes(key, b)
}

func maskBytes(key [4]byte, b []byte) {
	for i := range b {
		b[i] ^= key[i&3]
	}
}
