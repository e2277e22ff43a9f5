package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_DeriveVerify(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	for _, secret := range []string{"pw1", "correct horse battery staple", "ünïcødé", strings.Repeat("x", 72)} {
		rep, err := h.Derive(secret)
		require.NoError(t, err)
		assert.NotEqual(t, secret, rep)
		assert.True(t, h.Verify(secret, rep))
		assert.False(t, h.Verify(secret+"!", rep))
	}
}

func TestHasher_VerifyRejectsOverlongSecretWithMatchingPrefix(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	secret := strings.Repeat("a", MaxSecretBytes)
	rep, err := h.Derive(secret)
	require.NoError(t, err)

	assert.True(t, h.Verify(secret, rep))
	for _, suffix := range []string{"!", "a", "-not-the-password"} {
		assert.False(t, h.Verify(secret+suffix, rep), "suffix %q", suffix)
	}
}

func TestHasher_FreshSaltEachCall(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	a, err := h.Derive("same-secret")
	require.NoError(t, err)
	b, err := h.Derive("same-secret")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same-secret", a))
	assert.True(t, h.Verify("same-secret", b))
}

func TestHasher_InvalidInput(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	_, err := h.Derive("")
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = h.Derive(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrSecretTooLong)
}

func TestHasher_VerifyMalformedRepresentation(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)
	for _, rep := range []string{"", "plain", "$2a$", "$2a$10$short", "pw1"} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("pw1", rep))
		})
	}
}

func TestNewHasher_CostClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).Cost)
	assert.Equal(t, 12, NewHasher(12).Cost)
}
