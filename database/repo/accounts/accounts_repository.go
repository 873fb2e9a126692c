package accounts

import (
	"errors"
	"fmt"

	"github.com/nerith/photofold/database/models"
	"github.com/nerith/photofold/utils"
	cryptoutil "github.com/nerith/photofold/utils/crypto"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var userGroup singleflight.Group

// Repository handles admin account persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateDefaultAdminUser creates the "admin" user with a random password on
// first boot. Returns the plaintext password so it can be printed once, or
// "" when the user already exists.
func (r *Repository) CreateDefaultAdminUser() (string, error) {
	var count int64
	if err := r.db.Model(&models.User{}).Where("username = ?", "admin").Count(&count).Error; err != nil {
		return "", fmt.Errorf("failed to check admin user existence: %w", err)
	}
	if count > 0 {
		return "", nil
	}

	randomPassword, err := utils.GenerateRandomToken(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate random password: %w", err)
	}

	hashedPassword, err := cryptoutil.GenerateFromPassword(randomPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash default password: %w", err)
	}

	user := &models.User{
		Username: "admin",
		Password: hashedPassword,
		Role:     models.RoleAdmin,
	}
	if err := r.db.Create(user).Error; err != nil {
		return "", fmt.Errorf("failed to create default admin user: %w", err)
	}

	return randomPassword, nil
}

// GetUserByUsername returns (nil, nil) when no such user exists. Lookups for
// the same username are deduplicated while one is in flight.
func (r *Repository) GetUserByUsername(username string) (*models.User, error) {
	v, err, _ := userGroup.Do("username:"+username, func() (interface{}, error) {
		var user models.User
		err := r.db.Where("username = ?", username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return (*models.User)(nil), nil
		}
		if err != nil {
			return nil, err
		}
		return &user, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.User), nil
}

func (r *Repository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword replaces the stored hash for the given user.
func (r *Repository) UpdatePassword(userID uint, passwordHash string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("password", passwordHash).Error
}

// UpdateTwoFactor writes the TOTP secret, enabled flag and backup codes in
// one statement.
func (r *Repository) UpdateTwoFactor(userID uint, secret *string, enabled bool, backupCodes *string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"totp_secret":  secret,
			"totp_enabled": enabled,
			"backup_codes": backupCodes,
		}).Error
}

// UpdateBackupCodes rewrites only the backup code list.
func (r *Repository) UpdateBackupCodes(userID uint, backupCodes *string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("backup_codes", backupCodes).Error
}
