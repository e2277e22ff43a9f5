package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestIssueAndParse_Success(t *testing.T) {
	t.Parallel()

	j := NewJWTer("super-secret", "catalog-api", time.Hour)
	tok, err := j.Issue("user-123", "admin")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", c.UID)
	assert.Equal(t, "admin", c.Role)
	assert.Equal(t, "catalog-api", c.Issuer)
}

func TestParse_LifetimeBoundary(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	j := NewJWTer("k", "catalog-api", 0)
	j.Now = fixedClock(issuedAt)

	tok, err := j.Issue("u1", "standard")
	require.NoError(t, err)

	j.Now = fixedClock(issuedAt.Add(59 * time.Minute))
	_, err = j.Parse(tok)
	require.NoError(t, err, "token must still be valid at T+59m")

	j.Now = fixedClock(issuedAt.Add(61 * time.Minute))
	_, err = j.Parse(tok)
	require.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, "expired", Reason(err))
}

func TestParse_Rejections(t *testing.T) {
	t.Parallel()

	good := NewJWTer("right-secret", "catalog-api", time.Hour)
	valid, err := good.Issue("u2", "standard")
	require.NoError(t, err)

	past := NewJWTer("right-secret", "catalog-api", time.Hour)
	past.Now = fixedClock(time.Now().Add(-2 * time.Hour))
	expired, err := past.Issue("u2", "standard")
	require.NoError(t, err)

	otherIssuer, err := NewJWTer("right-secret", "someone-else", time.Hour).Issue("u2", "standard")
	require.NoError(t, err)

	noneTok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UID: "u2", Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name  string
		token string
		j     *JWTer
		want  error
	}{
		{"empty", "", good, ErrTokenMalformed},
		{"garbage", "not-a-token", good, ErrTokenMalformed},
		{"bad segments", "not.a.jwt", good, ErrTokenMalformed},
		{"wrong secret", valid, NewJWTer("wrong-secret", "catalog-api", time.Hour), ErrTokenSignatureInvalid},
		{"tampered signature", tampered, good, ErrTokenSignatureInvalid},
		{"expired", expired, good, ErrTokenExpired},
		{"wrong issuer", otherIssuer, good, ErrTokenInvalid},
		{"alg none", noneTok, good, ErrTokenSignatureInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c *Claims
			var err error
			require.NotPanics(t, func() { c, err = tt.j.Parse(tt.token) })
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewJWTer_FallbackSecret(t *testing.T) {
	t.Parallel()

	j := NewJWTer("", "", 0)
	assert.True(t, j.UsesFallbackSecret())
	assert.Equal(t, DefaultTTL, j.TTL)

	assert.False(t, NewJWTer("configured", "", 0).UsesFallbackSecret())
}
