// Package digest computes the content hash that binds a claim, its audit
// trail, and its capability token to one specific image payload.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// PrefixLen is the number of hex characters of the digest carried inside a
// capability token. Enough to bind the token to one payload without bloating
// the wire format.
const PrefixLen = 16

// Sum returns the lowercase hex SHA-256 of the payload. Pure and total.
func Sum(payload []byte) string {
	h := sha256.Sum256(payload)
	return hex.EncodeToString(h[:])
}

// Prefix returns the token-embeddable prefix of a digest, or "none" for an
// empty digest. The literal "none" is part of the token wire format.
func Prefix(d string) string {
	if d == "" {
		return "none"
	}
	if len(d) < PrefixLen {
		return d
	}
	return d[:PrefixLen]
}
