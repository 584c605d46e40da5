package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key-at-least-32-chars", time.Hour, "payment-core")
	accountID := uuid.New()

	token, expiry, err := svc.Generate(accountID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
}

func TestJWTTokenService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key-at-least-32-chars", -time.Minute, "payment-core")

	token, _, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
}

func TestJWTTokenService_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTTokenService("secret-one-aaaaaaaaaaaaaaaaaaaaaa", time.Hour, "payment-core")
	verifier := NewJWTTokenService("secret-two-bbbbbbbbbbbbbbbbbbbbbb", time.Hour, "payment-core")

	token, _, err := issuer.Generate(uuid.New())
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
}

func TestJWTTokenService_RejectsGarbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key-at-least-32-chars", time.Hour, "payment-core")

	_, err := svc.Validate("not.a.token")
	require.Error(t, err)

	_, err = svc.Validate("")
	require.Error(t, err)
}
