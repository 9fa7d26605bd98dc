package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "unit-test-secret"

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	i, err := NewTokenIssuer(testSecret)
	require.NoError(t, err)
	return i
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("")
	assert.Error(t, err)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	token, err := issuer.Issue("user-42")
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, fixed.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixed.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())

	// 载荷中使用 userID 字段
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "user-42", parsed.Claims.(jwt.MapClaims)["userID"])
}

func TestTokenIssuer_Expiry(t *testing.T) {
	issuer := newTestIssuer(t)
	start := time.Now()
	issuer.now = func() time.Time { return start }
	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(23 * time.Hour) }
	_, err = issuer.Parse(token)
	assert.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(24*time.Hour + time.Second) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	issuer := newTestIssuer(t)
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = issuer.Parse(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	h1, err := h.Hash("s3cret")
	require.NoError(t, err)
	h2, err := h.Hash("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", h1)
	assert.NotEqual(t, h1, h2, "each hash uses a fresh salt")
	assert.True(t, h.Verify("s3cret", h1))
	assert.True(t, h.Verify("s3cret", h2))
	assert.False(t, h.Verify("S3cret", h1))

	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).Cost)

	_, err = h.Hash(strings.Repeat("x", 100))
	assert.Error(t, err)
}

func TestContextUserID(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), "u-9"))
	assert.True(t, ok)
	assert.Equal(t, "u-9", id)
}
