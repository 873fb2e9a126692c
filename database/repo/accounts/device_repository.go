package accounts

import (
	"errors"
	"time"

	"github.com/nerith/photofold/database/models"
	"gorm.io/gorm"
)

// DeviceRepository tracks logged-in sessions and their refresh tokens.
type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// CreateLoginDevice stores a fresh refresh token for a new session.
func (r *DeviceRepository) CreateLoginDevice(userID uint, deviceID, refreshToken string, expiry time.Time) error {
	device := &models.Device{
		UserID:       userID,
		DeviceID:     deviceID,
		RefreshToken: refreshToken,
		Expiry:       expiry,
	}
	return r.db.Create(device).Error
}

// GetDeviceByRefreshTokenAndDeviceID returns (nil, nil) when no live session
// matches; expired sessions do not match.
func (r *DeviceRepository) GetDeviceByRefreshTokenAndDeviceID(refreshToken, deviceID string) (*models.Device, error) {
	var device models.Device
	err := r.db.
		Where("refresh_token = ? AND device_id = ? AND expiry > ?", refreshToken, deviceID, time.Now()).
		First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// RotateRefreshToken swaps in a new refresh token for an existing session.
func (r *DeviceRepository) RotateRefreshToken(userID uint, deviceID, newToken string, newExpiry time.Time) error {
	return r.db.Model(&models.Device{}).
		Where("user_id = ? AND device_id = ?", userID, deviceID).
		Updates(map[string]interface{}{
			"refresh_token": newToken,
			"expiry":        newExpiry,
		}).Error
}

// DeleteByDeviceID removes a session on logout.
func (r *DeviceRepository) DeleteByDeviceID(deviceID string) error {
	return r.db.Where("device_id = ?", deviceID).Delete(&models.Device{}).Error
}

// DeleteExpired removes sessions whose refresh token lapsed.
func (r *DeviceRepository) DeleteExpired() (int64, error) {
	result := r.db.Where("expiry <= ?", time.Now()).Delete(&models.Device{})
	return result.RowsAffected, result.Error
}
