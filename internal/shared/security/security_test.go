package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *TokenManager {
	return NewTokenManager(TokenOptions{
		Secret:        "test-secret",
		Issuer:        "ips-test",
		AccessExpire:  time.Hour,
		RefreshExpire: 24 * time.Hour,
		ResetExpire:   15 * time.Minute,
	}, NewMemoryTokenStore())
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)
	hashed, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hashed)

	assert.NoError(t, h.Compare(hashed, "s3cret"))
	assert.ErrorIs(t, h.Compare(hashed, "wrong"), ErrPasswordMismatch)
}

func TestIssuePairCarriesRole(t *testing.T) {
	m := newTestManager()
	pair, err := m.IssuePair(context.Background(), Subject{UserID: "u1", Name: "Ana", Role: "driver"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(pair.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", claims["uid"])
	assert.Equal(t, []interface{}{"driver"}, claims["roles"])
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	pair, err := m.IssuePair(ctx, Subject{UserID: "u1", Role: "worker"})
	require.NoError(t, err)

	userID, err := m.ConsumeRefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	_, err = m.ConsumeRefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	reset, err := m.IssueResetToken(ctx, "u1")
	require.NoError(t, err)
	_, err = m.ConsumeRefreshToken(ctx, reset)
	assert.ErrorIs(t, err, ErrInvalidToken)

	userID, err := m.ConsumeResetToken(ctx, reset)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestResetTokenRejectsForeignSignature(t *testing.T) {
	other := NewTokenManager(TokenOptions{Secret: "other", ResetExpire: time.Minute}, NewMemoryTokenStore())
	token, err := other.IssueResetToken(context.Background(), "u1")
	require.NoError(t, err)

	_, err = newTestManager().ConsumeResetToken(context.Background(), token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestMemoryTokenStoreExpiry(t *testing.T) {
	s := NewMemoryTokenStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "k", "v", time.Minute))
	now = now.Add(2 * time.Minute)
	_, err := s.Take(ctx, "k")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
