package passhash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHash_DeterministicForSameSalt(t *testing.T) {
	h1 := Hash("abc123", "00112233445566778899aabbccddeeff")
	h2 := Hash("abc123", "00112233445566778899aabbccddeeff")
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
}

func TestHash_DifferentSaltsDiffer(t *testing.T) {
	h1 := Hash("abc123", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	h2 := Hash("abc123", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	require.NotEqual(t, h1, h2)
}

func TestNewSalt(t *testing.T) {
	s1, err := NewSalt()
	require.NoError(t, err)
	require.Len(t, s1, 32)

	s2, err := NewSalt()
	require.NoError(t, err)
	require.NotEqual(t, s1, s2)
}

func TestVerify(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	digest := Hash("abc123", salt)

	require.True(t, Verify("abc123", digest, salt))
	require.False(t, Verify("wrong12", digest, salt))
	require.False(t, Verify("abc123", digest, "othersaltothersaltothersaltother"))
}

func TestLegacy(t *testing.T) {
	// sha256("abc123")
	digest := LegacyHash("abc123")
	require.Equal(t, "6ca13d52ca70c883e0f0bb101e425a89e8624de51db2d2392593af6a84118090", digest)

	require.True(t, VerifyLegacy("abc123", digest))
	require.False(t, VerifyLegacy("abc124", digest))
}

func TestClassify(t *testing.T) {
	require.Equal(t, SchemeLegacy, Classify(nil))

	salt := "00112233445566778899aabbccddeeff"
	require.Equal(t, SchemeSalted, Classify(&salt))
}
