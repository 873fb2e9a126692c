package photos

import (
	"context"
	"errors"

	"github.com/nerith/photofold/database/models"
	"gorm.io/gorm"
)

var ErrPhotoNotFound = errors.New("photo not found")

// Repository wraps all photo persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreatePhoto(photo *models.Photo) error {
	return r.db.Create(photo).Error
}

func (r *Repository) GetPhotoByID(id uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.First(&photo, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPhotoNotFound
	}
	return &photo, err
}

// GetAlbumPhoto returns the photo only when it belongs to the given album;
// share downloads must never cross album boundaries.
func (r *Repository) GetAlbumPhoto(albumID, photoID uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.Where("id = ? AND album_id = ?", photoID, albumID).First(&photo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPhotoNotFound
	}
	return &photo, err
}

// ListAlbumPhotos returns all photos of an album.
// sortBy "captured": capture time ascending, photos without one last (those
// by upload time). sortBy "uploaded": upload time descending.
func (r *Repository) ListAlbumPhotos(albumID uint, sortBy string) ([]*models.Photo, error) {
	var photos []*models.Photo
	db := r.db.Where("album_id = ?", albumID)

	switch sortBy {
	case "uploaded":
		db = db.Order("created_at DESC")
	default: // captured
		db = db.Order("CASE WHEN captured_at IS NULL THEN 1 ELSE 0 END").
			Order("captured_at ASC").
			Order("created_at ASC")
	}

	err := db.Find(&photos).Error
	return photos, err
}

// GetByIdentifier finds a photo by its content hash.
func (r *Repository) GetByIdentifier(identifier string) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.Where("identifier = ?", identifier).First(&photo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPhotoNotFound
	}
	return &photo, err
}

func (r *Repository) DeletePhoto(id uint) error {
	return r.db.Delete(&models.Photo{}, id).Error
}

// CountByAlbum returns the photo count of an album.
func (r *Repository) CountByAlbum(albumID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Photo{}).Where("album_id = ?", albumID).Count(&count).Error
	return count, err
}

// StorageStats aggregates photo count and bytes per album.
type StorageStats struct {
	AlbumID    uint   `json:"album_id"`
	AlbumTitle string `json:"album_title"`
	PhotoCount int64  `json:"photo_count"`
	TotalBytes int64  `json:"total_bytes"`
}

// StorageBreakdown returns per-album storage usage, largest first.
func (r *Repository) StorageBreakdown() ([]StorageStats, error) {
	var stats []StorageStats
	err := r.db.Model(&models.Photo{}).
		Select("photos.album_id, albums.title as album_title, COUNT(*) as photo_count, SUM(photos.file_size) as total_bytes").
		Joins("JOIN albums ON albums.id = photos.album_id").
		Group("photos.album_id, albums.title").
		Order("total_bytes DESC").
		Scan(&stats).Error
	return stats, err
}

// WithContext returns a context-scoped copy of the repository.
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx)}
}
