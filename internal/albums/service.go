package albums

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nerith/photofold/database/models"
	albumsrepo "github.com/nerith/photofold/database/repo/albums"
	"github.com/nerith/photofold/database/repo/photos"
	"github.com/nerith/photofold/storage"
)

// ErrInvalidTitle is returned for empty or oversized titles.
var ErrInvalidTitle = errors.New("album title must be 1-200 characters")

// Service manages album lifecycle including stored-file cleanup.
type Service struct {
	albumsRepo *albumsrepo.Repository
	photosRepo *photos.Repository
	storage    storage.Provider
}

func NewService(albumsRepo *albumsrepo.Repository, photosRepo *photos.Repository, store storage.Provider) *Service {
	return &Service{
		albumsRepo: albumsRepo,
		photosRepo: photosRepo,
		storage:    store,
	}
}

// List returns a page of albums with photo counts and covers.
func (s *Service) List(ctx context.Context, page, pageSize int) ([]*albumsrepo.AlbumInfo, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.albumsRepo.WithContext(ctx).ListAlbums(page, pageSize)
}

// Get returns the album with its photos preloaded.
func (s *Service) Get(ctx context.Context, albumID uint) (*models.Album, error) {
	return s.albumsRepo.WithContext(ctx).GetAlbumWithPhotos(albumID)
}

// Create validates and inserts a new album.
func (s *Service) Create(ctx context.Context, title, description string) (*models.Album, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 200 {
		return nil, ErrInvalidTitle
	}

	album := &models.Album{
		Title:       title,
		Description: description,
	}
	if err := s.albumsRepo.WithContext(ctx).CreateAlbum(album); err != nil {
		return nil, fmt.Errorf("failed to create album: %w", err)
	}
	return album, nil
}

// Update changes title, description and cover photo.
func (s *Service) Update(ctx context.Context, albumID uint, title, description *string, coverPhotoID *uint) (*models.Album, error) {
	repo := s.albumsRepo.WithContext(ctx)

	album, err := repo.GetAlbumByID(albumID)
	if err != nil {
		return nil, err
	}

	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" || len(trimmed) > 200 {
			return nil, ErrInvalidTitle
		}
		album.Title = trimmed
	}
	if description != nil {
		album.Description = *description
	}
	if coverPhotoID != nil {
		// cover must belong to this album
		if _, err := s.photosRepo.WithContext(ctx).GetAlbumPhoto(albumID, *coverPhotoID); err != nil {
			return nil, err
		}
		album.CoverPhotoID = coverPhotoID
	}

	if err := repo.UpdateAlbum(album); err != nil {
		return nil, fmt.Errorf("failed to update album: %w", err)
	}
	return album, nil
}

// Delete removes the album, its share links, its photo rows, and finally the
// stored files. Storage failures are logged by the caller, not fatal.
func (s *Service) Delete(ctx context.Context, albumID uint) ([]string, error) {
	photoRows, err := s.photosRepo.WithContext(ctx).ListAlbumPhotos(albumID, "captured")
	if err != nil {
		return nil, err
	}

	if err := s.albumsRepo.WithContext(ctx).DeleteAlbum(albumID); err != nil {
		return nil, err
	}

	var failed []string
	for _, photo := range photoRows {
		if err := s.storage.DeleteWithContext(ctx, photo.Identifier); err != nil {
			failed = append(failed, photo.Identifier)
		}
	}
	return failed, nil
}

// StorageBreakdown returns per-album storage usage for the dashboard.
func (s *Service) StorageBreakdown(ctx context.Context) ([]photos.StorageStats, error) {
	return s.photosRepo.WithContext(ctx).StorageBreakdown()
}
