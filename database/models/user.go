package models

import "gorm.io/gorm"

const (
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Username string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Password string `gorm:"not null"` // argon2id PHC string
	Role     string `gorm:"type:varchar(32);default:admin;not null"`

	// TOTPSecret is provisioned by 2FA setup; inactive until TOTPEnabled.
	TOTPSecret  *string `gorm:"type:varchar(255)"`
	TOTPEnabled bool    `gorm:"default:false;not null"`

	// BackupCodes is a JSON array of one-time code digests.
	BackupCodes *string `gorm:"type:varchar(1024)"`
}
