// Package auth owns ingestion credentials: key material, hashing, and
// resolution of a presented key to its tenant/project identity.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// KeyPrefix is the fixed literal every ingestion key starts with.
const KeyPrefix = "lgfy_"

// displayPrefixLen is how much of a key is retained for display
// ("lgfy_" plus the first seven secret characters).
const displayPrefixLen = 12

const secretLen = 40

const keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// GenerateKey returns a new raw key and its display prefix. The raw key is
// shown to the owner once; callers store only HashKey(raw) and the prefix.
func GenerateKey() (key string, prefix string, err error) {
	buf := make([]byte, secretLen)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	var b strings.Builder
	b.WriteString(KeyPrefix)
	for _, c := range buf {
		b.WriteByte(keyAlphabet[int(c)%len(keyAlphabet)])
	}
	key = b.String()
	return key, key[:displayPrefixLen], nil
}

// HashKey returns the hex SHA-256 digest of a raw key. Keys are looked up
// by digest, so the clear text never needs to be stored or compared.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
