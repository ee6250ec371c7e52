// Package pointid maps opaque external message identifiers onto UUID-shaped
// point identifiers accepted by the vector store.
package pointid

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

var canonical = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsCanonical reports whether s is already in 8-4-4-4-12 hex form.
func IsCanonical(s string) bool {
	return canonical.MatchString(s)
}

// FromMessageID returns a deterministic version-4 shaped UUID for externalID.
// Canonical UUIDs are returned unchanged.
func FromMessageID(externalID string) string {
	if IsCanonical(externalID) {
		return externalID
	}

	sum := sha256.Sum256([]byte(externalID))
	h := []byte(hex.EncodeToString(sum[:])[:32])

	h[12] = '4'
	// variant: top two bits of the nibble are 10
	h[16] = "89ab"[hexValue(h[16])&0x3]

	s := string(h)
	return s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:32]
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}
	return 0
}
