package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/jo-service/marketplace-backend/internal/database"
	"github.com/jo-service/marketplace-backend/internal/middleware"
	"github.com/jo-service/marketplace-backend/internal/models"
	"github.com/jo-service/marketplace-backend/pkg/logger"
	"github.com/jo-service/marketplace-backend/pkg/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	loginAttemptLimit  = 5
	loginAttemptWindow = 15 * time.Minute
)

// --- Helper Functions ---

func validatePasswordStrength(password string) error {
	var (
		hasMinLen = len(password) >= 8
		hasUpper  = false
		hasLower  = false
		hasNumber = false
	)
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	if !hasMinLen || !hasUpper || !hasLower || !hasNumber {
		return fmt.Errorf("password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// allowLoginAttempt throttles password guessing per account email.
func allowLoginAttempt(c *gin.Context, email string) bool {
	allowed, err := database.CheckRateLimit("login:"+email, loginAttemptLimit, loginAttemptWindow)
	if err != nil {
		logger.Warn().Err(err).Msg("Login rate limit check failed")
		return true
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts. Please try again later."})
	}
	return allowed
}

// --- Users ---

type RegisterUserInput struct {
	FullName    string `json:"fullName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func RegisterUser(c *gin.Context) {
	var input RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := utils.NormalizeEmail(input.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validatePasswordStrength(input.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	database.DB.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists. Please sign in instead."})
		return
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		FullName:             strings.TrimSpace(input.FullName),
		Email:                email,
		Password:             hashedPassword,
		PhoneNumber:          strings.TrimSpace(input.PhoneNumber),
		NotificationSettings: models.DefaultNotificationSettings(),
	}
	if err := database.DB.Create(&user).Error; err != nil {
		logger.Warn().Err(err).Str("email", email).Msg("User registration failed")
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	token, err := utils.GenerateToken(user.ID, utils.TypeUser, string(user.Role))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User registered successfully")

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	})
}

func LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !allowLoginAttempt(c, email) {
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		logger.Warn().Str("email", email).Msg("Login failed: user not found")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		logger.Warn().Str("email", email).Msg("Login failed: invalid password")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.AccountStatus == models.AccountSuspended {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account suspended"})
		return
	}

	token, err := utils.GenerateToken(user.ID, utils.TypeUser, string(user.Role))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User logged in")

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// --- Providers ---

type RegisterProviderInput struct {
	FullName           string  `json:"fullName" binding:"required"`
	Email              string  `json:"email" binding:"required,email"`
	Password           string  `json:"password" binding:"required"`
	PhoneNumber        string  `json:"phoneNumber"`
	ServiceType        string  `json:"serviceType" binding:"required"`
	ServiceDescription string  `json:"serviceDescription"`
	HourlyRate         float64 `json:"hourlyRate" binding:"gte=0"`
}

// RegisterProvider creates a provider account awaiting verification.
func RegisterProvider(c *gin.Context) {
	var input RegisterProviderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := utils.NormalizeEmail(input.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validatePasswordStrength(input.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Provider
	err = database.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A provider with this email already exists."})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error().Err(err).Msg("Provider lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register provider"})
		return
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	provider := models.Provider{
		FullName:             strings.TrimSpace(input.FullName),
		Email:                email,
		Password:             hashedPassword,
		PhoneNumber:          strings.TrimSpace(input.PhoneNumber),
		ServiceType:          strings.TrimSpace(input.ServiceType),
		ServiceDescription:   utils.SanitizeNotes(input.ServiceDescription),
		HourlyRate:           input.HourlyRate,
		VerificationStatus:   models.VerificationPending,
		IsAvailable:          true,
		NotificationSettings: models.DefaultNotificationSettings(),
	}
	if err := database.DB.Create(&provider).Error; err != nil {
		logger.Warn().Err(err).Str("email", email).Msg("Provider registration failed")
		c.JSON(http.StatusConflict, gin.H{"error": "A provider with this email already exists."})
		return
	}

	token, err := utils.GenerateToken(provider.ID, utils.TypeProvider, "")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info().Str("provider_id", provider.ID).Msg("Provider registered successfully")

	c.JSON(http.StatusCreated, gin.H{
		"token":    token,
		"provider": provider,
	})
}

func LoginProvider(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !allowLoginAttempt(c, email) {
		return
	}

	var provider models.Provider
	if err := database.DB.Where("email = ?", email).First(&provider).Error; err != nil {
		logger.Warn().Str("email", email).Msg("Provider login failed: not found")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(provider.Password), []byte(input.Password)); err != nil {
		logger.Warn().Str("email", email).Msg("Provider login failed: invalid password")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateToken(provider.ID, utils.TypeProvider, "")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info().Str("provider_id", provider.ID).Msg("Provider logged in")

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"provider": provider,
	})
}

// Logout revokes the caller's token until it would have expired.
func Logout(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Already logged out"})
		return
	}

	jti := claims.GetJTI()
	ttl := claims.ExpiresIn()
	if jti == "" || ttl <= 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
		return
	}

	if err := database.BlacklistToken(jti, ttl); err != nil {
		// Still a successful logout from the client's point of view
		logger.Error().Err(err).Str("jti", jti).Msg("Failed to blacklist token")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
