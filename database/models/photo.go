package models

import (
	"time"

	"gorm.io/gorm"
)

type Photo struct {
	gorm.Model
	AlbumID uint `gorm:"not null;index"`

	// Identifier is the hex sha256 of the file content; storage paths are
	// derived from it.
	Identifier       string `gorm:"uniqueIndex:idx_photo_identifier;not null"`
	OriginalFilename string `gorm:"not null"`
	MimeType         string `gorm:"not null"`
	FileSize         int64  `gorm:"not null"`
	Width            int
	Height           int
	IsVideo          bool   `gorm:"default:false;not null"`
	StorageDriver    string `gorm:"type:varchar(32);not null"`

	// CapturedAt is the EXIF capture time; nil when the file carries none.
	// CreatedAt (gorm.Model) is the upload time and orders the "uploaded" sort.
	CapturedAt *time.Time `gorm:"index"`
}

// EffectiveDate is the display date: capture time when known, upload time
// otherwise.
func (p *Photo) EffectiveDate() time.Time {
	if p.CapturedAt != nil {
		return *p.CapturedAt
	}
	return p.CreatedAt
}
