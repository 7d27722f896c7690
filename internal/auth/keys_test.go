package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey_Shape(t *testing.T) {
	key, prefix, err := GenerateKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, KeyPrefix))
	assert.Len(t, key, len(KeyPrefix)+secretLen)
	assert.Equal(t, key[:displayPrefixLen], prefix)
	assert.True(t, strings.HasPrefix(prefix, KeyPrefix))
}

func TestHashKey_DeterministicAndDistinct(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 150; i++ {
		key, _, err := GenerateKey()
		require.NoError(t, err)

		digest := HashKey(key)
		assert.Equal(t, digest, HashKey(key), "same secret hashes to the same digest")
		assert.Len(t, digest, 64)
		assert.NotContains(t, digest, key[len(KeyPrefix):], "digest must not leak the secret")

		if prev, dup := seen[digest]; dup {
			t.Fatalf("digest collision between %q and %q", prev, key)
		}
		seen[digest] = key
	}
}
