package seeds

import (
	"log"

	"github.com/jo-service/marketplace-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account
const DemoPassword = "Password123"

func hashDemoPassword() (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	return string(hash), err
}

// GetOrCreateUser returns the user with email, creating it when missing.
func GetOrCreateUser(db *gorm.DB, fullName, email string, role models.Role) (models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err == nil {
		log.Printf("   ✅ User found: %s", user.Email)
		return user, nil
	}

	hash, err := hashDemoPassword()
	if err != nil {
		return models.User{}, err
	}
	user = models.User{
		FullName:             fullName,
		Email:                email,
		Password:             hash,
		Role:                 role,
		NotificationSettings: models.DefaultNotificationSettings(),
	}
	if err := db.Create(&user).Error; err != nil {
		return models.User{}, err
	}

	log.Printf("   ✅ User created: %s (%s)", user.Email, user.Role)
	return user, nil
}
