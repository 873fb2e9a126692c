package models

import "gorm.io/gorm"

type Album struct {
	gorm.Model
	Title        string `gorm:"type:varchar(200);not null;index"`
	Description  string `gorm:"type:varchar(1000)"`
	CoverPhotoID *uint  `gorm:"index"`

	Photos     []*Photo     `gorm:"foreignKey:AlbumID"`
	ShareLinks []*ShareLink `gorm:"foreignKey:AlbumID"`
}
