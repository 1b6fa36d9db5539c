package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/userreg/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	fixed := time.Now().Truncate(time.Second)
	i := NewIssuer([]byte("super-secret-signing-key"), 24*time.Hour)
	i.now = func() time.Time { return fixed }

	tok, err := i.Issue("a@b.com", "user-123")
	require.NoError(t, err)

	claims, err := i.ParseToken(tok)
	require.NoError(t, err)

	assert.Equal(t, "a@b.com", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "user-123", claims.Issuer)
	assert.True(t, fixed.Equal(claims.IssuedAt.Time))
	assert.True(t, fixed.Add(24*time.Hour).Equal(claims.ExpiresAt.Time))
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	i := NewIssuer([]byte("secret"), -time.Minute)
	tok, err := i.Issue("a@b.com", "u1")
	require.NoError(t, err)

	_, err = i.ParseToken(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseToken_Invalid(t *testing.T) {
	t.Parallel()

	tok, err := NewIssuer([]byte("right-secret"), time.Hour).Issue("a@b.com", "u2")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "a@b.com"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: tok},
		{name: "malformed", token: "not.a.jwt"},
		{name: "alg none", token: unsigned},
	}

	wrong := NewIssuer([]byte("wrong-secret"), time.Hour)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wrong.ParseToken(tt.token)
			assert.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}
}
