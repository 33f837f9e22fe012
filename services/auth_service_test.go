package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthServiceLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService("admin", string(hash), "test-signing-key")

	token, err := svc.Login(context.Background(), LoginInput{Username: "admin", Password: "hunter2"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-signing-key"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "admin", claims.Subject)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService("admin", string(hash), "test-signing-key")

	_, err = svc.Login(context.Background(), LoginInput{Username: "admin", Password: "hunter3"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceLoginUnknownUsername(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService("admin", string(hash), "test-signing-key")

	_, err = svc.Login(context.Background(), LoginInput{Username: "intruder", Password: "hunter2"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
