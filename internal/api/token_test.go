package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken(t *testing.T) {
	now := time.Now()

	token, err := IssueToken("secret", "alice", 2*time.Hour, now)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, now.Add(2*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestIssueToken_Validation(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		subject string
		ttl     time.Duration
	}{
		{"missing secret", "", "alice", time.Hour},
		{"missing subject", "secret", "", time.Hour},
		{"zero ttl", "secret", "alice", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IssueToken(tt.secret, tt.subject, tt.ttl, time.Now())
			assert.Error(t, err)
		})
	}
}

func TestParseToken_Rejects(t *testing.T) {
	t.Run("wrong issuer", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = ParseToken("secret", signed)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("no expiry", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:  TokenIssuer,
			Subject: "alice",
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = ParseToken("secret", signed)
		assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = ParseToken("secret", signed)
		assert.Error(t, err)
	})
}
