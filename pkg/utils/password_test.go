package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"acquisitions/internal/domain"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher()

	for _, pw := range []string{"secret1", "", "pässwörd ✓", strings.Repeat("a", 72)} {
		digest, err := h.Hash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, digest)

		ok, err := h.Verify(pw, digest)
		require.NoError(t, err)
		assert.True(t, ok, "verify(%q, hash(%q))", pw, pw)
	}
}

func TestBcryptHasher_DifferentPlaintextDoesNotVerify(t *testing.T) {
	h := NewBcryptHasher()
	digest, err := h.Hash("secret1")
	require.NoError(t, err)

	for _, other := range []string{"secret2", "Secret1", "secret1 ", ""} {
		ok, err := h.Verify(other, digest)
		require.NoError(t, err)
		assert.False(t, ok, "verify(%q, hash(secret1))", other)
	}
}

func TestBcryptHasher_UsesFixedCost(t *testing.T) {
	digest, err := NewBcryptHasher().Hash("secret1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)
}

func TestBcryptHasher_SaltsEachDigest(t *testing.T) {
	h := NewBcryptHasher()
	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_HashFailureIsHashingError(t *testing.T) {
	_, err := NewBcryptHasher().Hash(strings.Repeat("x", 73))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrHashing))
}

func TestBcryptHasher_MalformedDigestIsComparisonError(t *testing.T) {
	ok, err := NewBcryptHasher().Verify("secret1", "not-a-bcrypt-digest")
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrComparison))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@x.com", NormalizeEmail("  Ann@X.com "))
}
