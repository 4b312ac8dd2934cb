package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MaxNamespaceLength is the longest namespace accepted by hosted vector stores.
const MaxNamespaceLength = 128

// namespaceHashLen is the number of hex digest characters kept when a
// namespace has to be shortened.
const namespaceHashLen = 16

// Namespace derives the vector store namespace for a document storage key.
//
// The mapping is deterministic and ASCII-only. Letters, digits, '-' and '.'
// are kept as-is; every other byte, including '_', is written as "_XX" so two
// different keys never produce the same escaped form. Escaped forms longer
// than MaxNamespaceLength are shortened to a prefix plus "~" and a digest of
// the original key. Only that shortened form can collide, and only on a
// truncated sha256 collision.
func Namespace(key string) string {
	const hexDigits = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '.':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
		}
	}

	ns := b.String()
	if len(ns) <= MaxNamespaceLength {
		return ns
	}

	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])[:namespaceHashLen]
	return ns[:MaxNamespaceLength-namespaceHashLen-1] + "~" + digest
}
