package albums

import (
	"context"
	"errors"

	"github.com/nerith/photofold/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAlbumNotFound = errors.New("album not found")

// Repository wraps all album persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AlbumInfo is an album with its photo count and cover identifier, for list
// views.
type AlbumInfo struct {
	Album      *models.Album
	PhotoCount int64
	CoverID    string
}

// ListAlbums returns a page of albums, newest first, with photo counts and
// cover identifiers resolved in two batch queries.
func (r *Repository) ListAlbums(page, pageSize int) ([]*AlbumInfo, int64, error) {
	var albums []*models.Album
	var total int64

	db := r.db.Model(&models.Album{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := db.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&albums).Error; err != nil {
		return nil, 0, err
	}

	if len(albums) == 0 {
		return []*AlbumInfo{}, total, nil
	}

	albumIDs := make([]uint, len(albums))
	for i, album := range albums {
		albumIDs[i] = album.ID
	}

	var photoCounts []struct {
		AlbumID uint
		Count   int64
	}
	r.db.Model(&models.Photo{}).
		Select("album_id, COUNT(*) as count").
		Where("album_id IN ?", albumIDs).
		Group("album_id").
		Scan(&photoCounts)

	countMap := make(map[uint]int64)
	for _, c := range photoCounts {
		countMap[c.AlbumID] = c.Count
	}

	coverMap := make(map[uint]string)
	var covers []struct {
		AlbumID    uint
		Identifier string
	}
	r.db.Model(&models.Photo{}).
		Select("album_id, MIN(identifier) as identifier").
		Where("album_id IN ?", albumIDs).
		Group("album_id").
		Scan(&covers)
	for _, c := range covers {
		coverMap[c.AlbumID] = c.Identifier
	}

	// Explicit covers override the fallback
	for _, album := range albums {
		if album.CoverPhotoID == nil {
			continue
		}
		var photo models.Photo
		if err := r.db.Select("identifier").First(&photo, *album.CoverPhotoID).Error; err == nil {
			coverMap[album.ID] = photo.Identifier
		}
	}

	result := make([]*AlbumInfo, len(albums))
	for i, album := range albums {
		result[i] = &AlbumInfo{
			Album:      album,
			PhotoCount: countMap[album.ID],
			CoverID:    coverMap[album.ID],
		}
	}

	return result, total, nil
}

// GetAlbumByID returns the bare album row.
func (r *Repository) GetAlbumByID(albumID uint) (*models.Album, error) {
	var album models.Album
	err := r.db.First(&album, albumID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAlbumNotFound
	}
	return &album, err
}

// GetAlbumWithPhotos preloads the full photo list.
func (r *Repository) GetAlbumWithPhotos(albumID uint) (*models.Album, error) {
	var album models.Album
	err := r.db.Preload("Photos").First(&album, albumID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAlbumNotFound
	}
	return &album, err
}

// CreateAlbum inserts a new album.
func (r *Repository) CreateAlbum(album *models.Album) error {
	return r.db.Create(album).Error
}

// UpdateAlbum saves title/description/cover changes.
func (r *Repository) UpdateAlbum(album *models.Album) error {
	return r.db.Save(album).Error
}

// DeleteAlbum removes an album together with its photos and share links.
func (r *Repository) DeleteAlbum(albumID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var album models.Album
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&album, albumID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAlbumNotFound
			}
			return err
		}

		if err := tx.Where("album_id = ?", albumID).Delete(&models.Photo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("album_id = ?", albumID).Delete(&models.ShareLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&album).Error
	})
}

// WithContext returns a context-scoped copy of the repository.
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx)}
}
