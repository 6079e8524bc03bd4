package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, "pix-link-gateway")
	merchantID := uuid.New()

	token, expiresAt, err := svc.Generate(merchantID, "lojista@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, merchantID, claims.MerchantID)
	assert.Equal(t, "lojista@example.com", claims.Email)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour, "pix-link-gateway")
	verifier := NewTokenService("secret-b", time.Hour, "pix-link-gateway")

	token, _, err := issuer.Generate(uuid.New(), "lojista@example.com")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute, "pix-link-gateway")

	token, _, err := svc.Generate(uuid.New(), "lojista@example.com")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	issuer := NewTokenService("test-secret", time.Hour, "someone-else")
	verifier := NewTokenService("test-secret", time.Hour, "pix-link-gateway")

	token, _, err := issuer.Generate(uuid.New(), "lojista@example.com")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, "pix-link-gateway")

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}
