package photos

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/nerith/photofold/database/models"
	albumsrepo "github.com/nerith/photofold/database/repo/albums"
	photosrepo "github.com/nerith/photofold/database/repo/photos"
	"github.com/nerith/photofold/storage"
)

// ErrDuplicatePhoto is returned when the same file content was already
// uploaded.
var ErrDuplicatePhoto = errors.New("photo already uploaded")

// Service ingests uploads and owns photo lifecycle.
type Service struct {
	photosRepo *photosrepo.Repository
	albumsRepo *albumsrepo.Repository
	storage    storage.Provider
}

func NewService(photosRepo *photosrepo.Repository, albumsRepo *albumsrepo.Repository, store storage.Provider) *Service {
	return &Service{
		photosRepo: photosRepo,
		albumsRepo: albumsRepo,
		storage:    store,
	}
}

// Upload ingests one file into an album: content-addressed identifier,
// capture time from EXIF, pixel dimensions when decodable.
func (s *Service) Upload(ctx context.Context, albumID uint, filename, declaredMime string, data []byte) (*models.Photo, error) {
	if _, err := s.albumsRepo.WithContext(ctx).GetAlbumByID(albumID); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	identifier := hex.EncodeToString(sum[:])

	repo := s.photosRepo.WithContext(ctx)
	if existing, err := repo.GetByIdentifier(identifier); err == nil {
		if existing.AlbumID == albumID {
			return existing, nil
		}
		return nil, ErrDuplicatePhoto
	} else if !errors.Is(err, photosrepo.ErrPhotoNotFound) {
		return nil, err
	}

	mimeType := declaredMime
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	isVideo := strings.HasPrefix(mimeType, "video/")

	photo := &models.Photo{
		AlbumID:          albumID,
		Identifier:       identifier,
		OriginalFilename: filename,
		MimeType:         mimeType,
		FileSize:         int64(len(data)),
		IsVideo:          isVideo,
		StorageDriver:    s.storage.Name(),
	}

	if !isVideo {
		photo.CapturedAt = ExtractCapturedAt(bytes.NewReader(data))
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			photo.Width = cfg.Width
			photo.Height = cfg.Height
		}
	}

	if err := s.storage.SaveWithContext(ctx, identifier, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	if err := repo.CreatePhoto(photo); err != nil {
		_ = s.storage.DeleteWithContext(ctx, identifier)
		return nil, fmt.Errorf("failed to create photo record: %w", err)
	}

	return photo, nil
}

// Delete removes the photo row and its stored file, clearing any album cover
// reference that points at it.
func (s *Service) Delete(ctx context.Context, albumID, photoID uint) error {
	repo := s.photosRepo.WithContext(ctx)

	photo, err := repo.GetAlbumPhoto(albumID, photoID)
	if err != nil {
		return err
	}

	albumRepo := s.albumsRepo.WithContext(ctx)
	if album, err := albumRepo.GetAlbumByID(albumID); err == nil {
		if album.CoverPhotoID != nil && *album.CoverPhotoID == photoID {
			album.CoverPhotoID = nil
			if err := albumRepo.UpdateAlbum(album); err != nil {
				return err
			}
		}
	}

	if err := repo.DeletePhoto(photo.ID); err != nil {
		return err
	}

	return s.storage.DeleteWithContext(ctx, photo.Identifier)
}

// Open streams the stored original. The result may also implement io.Closer;
// callers should close when it does.
func (s *Service) Open(ctx context.Context, photo *models.Photo) (io.ReadSeeker, error) {
	return s.storage.GetWithContext(ctx, photo.Identifier)
}
