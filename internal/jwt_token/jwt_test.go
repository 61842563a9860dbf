package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "userflat/pkg/domain-errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)

const (
	subject   = "provisioning-job"
	clientID  = "test-client"
	expiresIn = time.Hour
)

func Test_GenerateToken(t *testing.T) {
	token, err := jwtService.GenerateToken(subject, clientID, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
	assert.Equal(t, clientID, claims.ClientID)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.EqualError(t, err, "invalid token")
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateToken(subject, clientID, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.EqualError(t, err, "token has expired")
}

func Test_ValidateToken_WrongAudience(t *testing.T) {
	other := NewJWTService("test-signing-key", "test-issuer", "someone-else")
	token, err := other.GenerateToken(subject, clientID, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.EqualError(t, err, "invalid token")
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("another-key", "test-issuer", "test-audience")
	token, err := other.GenerateToken(subject, clientID, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Adapter(t *testing.T) {
	token, err := jwtService.GenerateToken(subject, clientID, expiresIn)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
	assert.Equal(t, clientID, claims.ClientID)
}

func Test_ValidateToken_Clock(t *testing.T) {
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	svc := NewJWTService("k", "iss", "aud",
		WithClock(func() time.Time { return now }),
		WithLeeway(30*time.Second),
	)
	token, err := svc.GenerateToken(subject, clientID, time.Minute)
	require.NoError(t, err)

	now = issued.Add(80 * time.Second)
	_, err = svc.ValidateToken(token)
	assert.NoError(t, err, "within leeway")

	now = issued.Add(2 * time.Minute)
	_, err = svc.ValidateToken(token)
	assert.EqualError(t, err, "token has expired")
}

func Test_ValidateToken_NoSubject(t *testing.T) {
	token, err := jwtService.GenerateToken("", clientID, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.EqualError(t, err, "token has no subject")
}
