package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/pkg/utils"
)

// Context keys set by AuthMiddleware
const (
	ContextParticipantID   = "userId"
	ContextParticipantType = "userType"
	ContextClaims          = "claims"
)

var errTokenRevoked = errors.New("token has been revoked")

// VerifyToken validates a bearer token and rejects revoked ones. The REST
// middleware and the websocket relay share it.
func VerifyToken(token string) (*utils.Claims, error) {
	claims, err := utils.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if database.IsTokenBlacklisted(claims.GetJTI()) {
		return nil, errTokenRevoked
	}
	return claims, nil
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, errTokenRevoked) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token: " + err.Error()})
			}
			c.Abort()
			return
		}

		participantType, _ := models.ParticipantTypeFromClaim(claims.Type)

		// The account must still exist and be allowed to act
		if participantType == models.ParticipantProvider {
			var provider models.Provider
			if err := database.DB.Select("id").First(&provider, "id = ?", claims.ID).Error; err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Provider not found or inactive"})
				c.Abort()
				return
			}
		} else {
			var user models.User
			if err := database.DB.Select("id", "account_status").First(&user, "id = ?", claims.ID).Error; err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found or inactive"})
				c.Abort()
				return
			}
			if user.AccountStatus == models.AccountSuspended {
				c.JSON(http.StatusForbidden, gin.H{"error": "Account suspended"})
				c.Abort()
				return
			}
		}

		c.Set(ContextParticipantID, claims.ID)
		c.Set(ContextParticipantType, participantType)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// Participant returns the authenticated id and type set by AuthMiddleware.
func Participant(c *gin.Context) (string, models.ParticipantType) {
	id := c.GetString(ContextParticipantID)
	t, _ := c.Get(ContextParticipantType)
	participantType, _ := t.(models.ParticipantType)
	return id, participantType
}

// Claims returns the verified token claims set by AuthMiddleware.
func Claims(c *gin.Context) *utils.Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*utils.Claims)
	return claims
}

func requireType(want models.ParticipantType, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, t := Participant(c); t != want {
			c.JSON(http.StatusForbidden, gin.H{"error": message})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireUser only lets user accounts through.
func RequireUser() gin.HandlerFunc {
	return requireType(models.ParticipantUser, "Access denied. Users only.")
}

// RequireProvider only lets provider accounts through.
func RequireProvider() gin.HandlerFunc {
	return requireType(models.ParticipantProvider, "Access denied. Providers only.")
}

func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, participantType := Participant(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		if participantType != models.ParticipantUser {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}

		if user.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
