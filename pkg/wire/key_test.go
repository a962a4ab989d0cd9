package wire

import (
	"encoding/base64"
	"testing"
)

func TestAcceptKeyRFCVector(t *testing.T) {
	// The worked example from RFC 6455 §1.3.
	got := AcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Errorf("AcceptKey = %q, want %q", got, want)
	}
}

func TestNewKeyShape(t *testing.T) {
	key := NewKey()
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		t.Fatalf("key %q is not valid base64: %v", key, err)
	}
	if len(raw) != 16 {
		t.Errorf("key decodes to %d bytes, want 16", len(raw))
	}
}

func TestNewKeyVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		key := NewKey()
		if seen[key] {
			t.Fatalf("NewKey repeated %q", key)
		}
		seen[key] = true
	}
}
