package models

import (
	"time"

	"gorm.io/gorm"
)

// ShareLink grants anonymous, optionally password-gated, optionally expiring
// access to one album.
type ShareLink struct {
	gorm.Model
	AlbumID uint  `gorm:"not null;index"`
	Album   Album `gorm:"foreignKey:AlbumID"`

	Token string `gorm:"type:varchar(64);uniqueIndex;not null"`

	// CustomSlug is an optional friendly URL segment; resolved before Token.
	CustomSlug *string `gorm:"type:varchar(64);uniqueIndex"`

	// PasswordHash is an argon2id PHC string; nil when the link is open.
	PasswordHash        *string
	IsPasswordProtected bool `gorm:"default:false;not null"`

	// ExpiresAt nil means the link never expires.
	ExpiresAt *time.Time
	IsRevoked bool `gorm:"default:false;not null"`
}

// Usable reports whether the link grants access at the given instant.
// Revocation wins over everything; a nil expiry never expires.
func (l *ShareLink) Usable(now time.Time) bool {
	if l.IsRevoked {
		return false
	}
	if l.ExpiresAt != nil && !l.ExpiresAt.After(now) {
		return false
	}
	return true
}
