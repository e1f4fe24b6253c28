package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jo-service/marketplace-backend/internal/config"
)

// Participant types carried in the token's "type" claim
const (
	TypeUser     = "user"
	TypeProvider = "provider"
)

const defaultTokenTTL = time.Hour

type Claims struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GetJTI returns the token id used for revocation
func (c *Claims) GetJTI() string {
	return c.RegisteredClaims.ID
}

// ExpiresIn returns the remaining lifetime of the token
func (c *Claims) ExpiresIn() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return time.Until(c.ExpiresAt.Time)
}

func GenerateToken(id, participantType, role string) (string, error) {
	if id == "" || (participantType != TypeUser && participantType != TypeProvider) {
		return "", errors.New("token generation failed: id and type are required")
	}

	ttl := config.AppConfig.JWTExpiresIn
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := time.Now()

	claims := &Claims{
		ID:   id,
		Type: participantType,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        GenerateID(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "marketplace-backend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken verifies the signature and expiry of tokenString and requires
// the id and type claims.
func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ID == "" || (claims.Type != TypeUser && claims.Type != TypeProvider) {
		return nil, errors.New("invalid token payload")
	}
	return claims, nil
}
