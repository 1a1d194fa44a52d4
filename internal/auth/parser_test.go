package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/signmate-contracts/internal/model"
)

func TestParserRoundTrip(t *testing.T) {
	p := NewParser("secret")

	token, err := p.Issue(model.Principal{UserID: 42, Role: model.RoleAdmin}, time.Minute)
	require.NoError(t, err)

	principal, err := p.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), principal.UserID)
	assert.True(t, principal.IsAdmin())
}

func TestParserDefaultsRoleToUser(t *testing.T) {
	p := NewParser("secret")

	token, err := p.Issue(model.Principal{UserID: 7}, time.Minute)
	require.NoError(t, err)

	principal, err := p.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, principal.Role)
}

func TestParserRejects(t *testing.T) {
	p := NewParser("secret")

	expired, err := p.Issue(model.Principal{UserID: 7}, -time.Minute)
	require.NoError(t, err)
	_, err = p.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := NewParser("other").Issue(model.Principal{UserID: 7}, time.Minute)
	require.NoError(t, err)
	_, err = p.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-number",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = p.Parse(badSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "ROOT",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = p.Parse(badRole)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "7"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = p.Parse(noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
