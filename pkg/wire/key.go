package wire

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
)

// acceptGUID is the fixed GUID every server appends to the client's key
// before hashing, per RFC 6455 §1.3.
const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// NewKey generates a Sec-WebSocket-Key value: 16 cryptographically random
// bytes, base64-encoded.
func NewKey() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// SECURITY: Fatal on entropy failure - predictable keys are dangerous
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return base64.StdEncoding.EncodeToString(b)
}

// AcceptKey computes the Sec-WebSocket-Accept value a server must echo for
// the given Sec-WebSocket-Key: base64(SHA-1(key + acceptGUID)).
func AcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(acceptGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
