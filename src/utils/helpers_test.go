package utils

import (
	"ems/src/types"
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
)

func TestWithSuffix(t *testing.T) {
	os.Setenv("API_ENV", "local")
	assert.Equal(t, "PendingPayments-local", WithSuffix("PendingPayments"))

	os.Setenv("API_ENV", "production")
	assert.Equal(t, "PendingPayments", WithSuffix("PendingPayments"))

	os.Setenv("API_ENV", "")
	assert.Equal(t, "PendingPayments-local", WithSuffix("PendingPayments"))
}

func TestGenerateJWT(t *testing.T) {
	token, err := GenerateJWT("someone@example.com", 42, types.ROLE_ORGANISER)
	assert.Nil(t, err)
	assert.NotEmpty(t, token)

	claims := &types.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tkn *jwt.Token) (any, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	assert.Nil(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "someone@example.com", claims.Username)
	assert.Equal(t, types.ROLE_ORGANISER, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}
