package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jo-service/marketplace-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupConfig() {
	config.AppConfig = &config.Config{
		JWTSecret:    "test_secret_key_12345",
		JWTExpiresIn: time.Hour,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	setupConfig()

	token, err := GenerateToken("user-1", TypeUser, "")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.ID)
	assert.Equal(t, TypeUser, claims.Type)
	assert.NotEmpty(t, claims.GetJTI())
	assert.True(t, claims.ExpiresIn() > 59*time.Minute)
}

func TestGenerateTokenRequiresIDAndType(t *testing.T) {
	setupConfig()

	_, err := GenerateToken("", TypeUser, "")
	assert.Error(t, err)

	_, err = GenerateToken("user-1", "admin", "")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	setupConfig()
	token, err := GenerateToken("provider-1", TypeProvider, "")
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "another_secret"
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsMissingClaims(t *testing.T) {
	setupConfig()

	// Signed correctly but carries no type claim
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString([]byte(config.AppConfig.JWTSecret))
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	setupConfig()

	claims := &Claims{
		ID:   "user-1",
		Type: TypeUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.AppConfig.JWTSecret))
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestIDHelpers(t *testing.T) {
	id := GenerateID()
	assert.True(t, IsUUID(id))
	assert.NotEqual(t, id, GenerateID())
	assert.False(t, IsUUID("not-a-uuid"))
	assert.False(t, IsUUID(""))
}
