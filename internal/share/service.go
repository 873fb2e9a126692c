package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/nerith/photofold/cache"
	"github.com/nerith/photofold/database/models"
	"github.com/nerith/photofold/database/repo/albums"
	"github.com/nerith/photofold/database/repo/photos"
	"github.com/nerith/photofold/database/repo/sharelinks"
	"github.com/nerith/photofold/storage"
	cryptoutil "github.com/nerith/photofold/utils/crypto"
)

// Access errors. Handlers map these to status codes and detail strings.
var (
	ErrShareNotFound    = errors.New("share link not found")
	ErrShareRevoked     = errors.New("share link revoked")
	ErrShareExpired     = errors.New("share link expired")
	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")
)

// Sort modes accepted by the access endpoint.
const (
	SortCaptured = "captured"
	SortUploaded = "uploaded"
)

// ValidSortMode reports whether mode is an accepted sort_by value.
func ValidSortMode(mode string) bool {
	return mode == SortCaptured || mode == SortUploaded
}

// Info is the public metadata of a share link.
type Info struct {
	IsPasswordProtected bool   `json:"is_password_protected"`
	AlbumID             uint   `json:"album_id"`
	AlbumTitle          string `json:"album_title"`
	AlbumDescription    string `json:"album_description"`
	CoverPhotoURL       string `json:"cover_photo_url"`
	PhotoCount          int64  `json:"photo_count"`
}

// SharedPhoto is the public view of one photo.
type SharedPhoto struct {
	ID               uint       `json:"id"`
	ThumbnailPath    string     `json:"thumbnail_path"`
	WebPath          string     `json:"web_path"`
	Width            int        `json:"width"`
	Height           int        `json:"height"`
	OriginalFilename string     `json:"original_filename"`
	CapturedAt       *time.Time `json:"captured_at"`
	CreatedAt        time.Time  `json:"created_at"`
	IsVideo          bool       `json:"is_video"`
}

// SharedAlbum is the public view of the whole album.
type SharedAlbum struct {
	ID                  uint           `json:"id"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	PhotoCount          int            `json:"photo_count"`
	Photos              []*SharedPhoto `json:"photos"`
	IsPasswordProtected bool           `json:"is_password_protected"`
	RequiresPassword    bool           `json:"requires_password"`
}

// Service validates share links and assembles their public views.
type Service struct {
	linksRepo  *sharelinks.Repository
	albumsRepo *albums.Repository
	photosRepo *photos.Repository
	storage    storage.Provider
	cache      *cache.Factory
	infoTTL    time.Duration
}

func NewService(
	linksRepo *sharelinks.Repository,
	albumsRepo *albums.Repository,
	photosRepo *photos.Repository,
	store storage.Provider,
	cacheFactory *cache.Factory,
	infoTTL time.Duration,
) *Service {
	return &Service{
		linksRepo:  linksRepo,
		albumsRepo: albumsRepo,
		photosRepo: photosRepo,
		storage:    store,
		cache:      cacheFactory,
		infoTTL:    infoTTL,
	}
}

// Resolve finds a usable share link by token or custom slug. Revoked beats
// expired when both apply.
func (s *Service) Resolve(ctx context.Context, identifier string) (*models.ShareLink, error) {
	link, err := s.linksRepo.WithContext(ctx).GetByTokenOrSlug(identifier)
	if err != nil {
		if errors.Is(err, sharelinks.ErrShareLinkNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}

	if link.IsRevoked {
		return nil, ErrShareRevoked
	}
	if link.ExpiresAt != nil && !link.ExpiresAt.After(time.Now()) {
		return nil, ErrShareExpired
	}

	return link, nil
}

// VerifyPassword checks the supplied password against a protected link. An
// unprotected link accepts anything.
func (s *Service) VerifyPassword(link *models.ShareLink, password string) error {
	if !link.IsPasswordProtected {
		return nil
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if link.PasswordHash == nil {
		return ErrInvalidPassword
	}

	ok, err := cryptoutil.ComparePasswordAndHash(password, *link.PasswordHash)
	if err != nil {
		return fmt.Errorf("password comparison failed: %w", err)
	}
	if !ok {
		return ErrInvalidPassword
	}
	return nil
}

// GetInfo returns the public metadata of a share link. Results are cached
// briefly; link validity is always re-checked.
func (s *Service) GetInfo(ctx context.Context, identifier string) (*Info, error) {
	link, err := s.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.ShareInfo.BuildID(link.ID)
	if s.cache != nil {
		var cached Info
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !cache.IsCacheMiss(err) {
			log.Printf("[Share] cache get failed: %v", err)
		}
	}

	album, err := s.albumsRepo.WithContext(ctx).GetAlbumByID(link.AlbumID)
	if err != nil {
		if errors.Is(err, albums.ErrAlbumNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}

	count, err := s.photosRepo.WithContext(ctx).CountByAlbum(album.ID)
	if err != nil {
		return nil, err
	}

	info := &Info{
		IsPasswordProtected: link.IsPasswordProtected,
		AlbumID:             album.ID,
		AlbumTitle:          album.Title,
		AlbumDescription:    album.Description,
		CoverPhotoURL:       s.coverPhotoURL(ctx, identifier, album),
		PhotoCount:          count,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, info, s.infoTTL); err != nil {
			log.Printf("[Share] cache set failed: %v", err)
		}
	}

	return info, nil
}

// coverPhotoURL returns the asset URL of the explicit cover photo, falling
// back to the album's first photo. Empty when the album has no photos.
func (s *Service) coverPhotoURL(ctx context.Context, identifier string, album *models.Album) string {
	repo := s.photosRepo.WithContext(ctx)

	if album.CoverPhotoID != nil {
		if photo, err := repo.GetAlbumPhoto(album.ID, *album.CoverPhotoID); err == nil {
			return assetPath(identifier, photo.ID, "thumbnail")
		}
	}

	list, err := repo.ListAlbumPhotos(album.ID, SortCaptured)
	if err != nil || len(list) == 0 {
		return ""
	}
	return assetPath(identifier, list[0].ID, "thumbnail")
}

// GetSharedAlbum assembles the full album view for an authorized request.
// sortBy must already be validated.
func (s *Service) GetSharedAlbum(ctx context.Context, identifier string, link *models.ShareLink, sortBy string) (*SharedAlbum, error) {
	album, err := s.albumsRepo.WithContext(ctx).GetAlbumByID(link.AlbumID)
	if err != nil {
		if errors.Is(err, albums.ErrAlbumNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}

	photoRows, err := s.photosRepo.WithContext(ctx).ListAlbumPhotos(album.ID, sortBy)
	if err != nil {
		return nil, err
	}

	shared := &SharedAlbum{
		ID:                  album.ID,
		Title:               album.Title,
		Description:         album.Description,
		PhotoCount:          len(photoRows),
		Photos:              make([]*SharedPhoto, 0, len(photoRows)),
		IsPasswordProtected: link.IsPasswordProtected,
	}

	for _, photo := range photoRows {
		shared.Photos = append(shared.Photos, &SharedPhoto{
			ID:               photo.ID,
			ThumbnailPath:    assetPath(identifier, photo.ID, "thumbnail"),
			WebPath:          assetPath(identifier, photo.ID, "web"),
			Width:            photo.Width,
			Height:           photo.Height,
			OriginalFilename: photo.OriginalFilename,
			CapturedAt:       photo.CapturedAt,
			CreatedAt:        photo.CreatedAt,
			IsVideo:          photo.IsVideo,
		})
	}

	return shared, nil
}

// LockedAlbum is the minimal response for a protected link accessed without a
// password: metadata only, no photos.
func (s *Service) LockedAlbum(ctx context.Context, link *models.ShareLink) (*SharedAlbum, error) {
	album, err := s.albumsRepo.WithContext(ctx).GetAlbumByID(link.AlbumID)
	if err != nil {
		if errors.Is(err, albums.ErrAlbumNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}

	return &SharedAlbum{
		ID:                  album.ID,
		Title:               album.Title,
		Description:         album.Description,
		Photos:              []*SharedPhoto{},
		IsPasswordProtected: true,
		RequiresPassword:    true,
	}, nil
}

// GetPhoto returns an album-scoped photo for download and asset streaming.
func (s *Service) GetPhoto(ctx context.Context, link *models.ShareLink, photoID uint) (*models.Photo, error) {
	photo, err := s.photosRepo.WithContext(ctx).GetAlbumPhoto(link.AlbumID, photoID)
	if err != nil {
		if errors.Is(err, photos.ErrPhotoNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}
	return photo, nil
}

// ListPhotos returns all photos of the linked album in capture order, for the
// download-all archive.
func (s *Service) ListPhotos(ctx context.Context, link *models.ShareLink) ([]*models.Photo, error) {
	return s.photosRepo.WithContext(ctx).ListAlbumPhotos(link.AlbumID, SortCaptured)
}

// LinkedAlbum returns the bare album row of a link.
func (s *Service) LinkedAlbum(ctx context.Context, link *models.ShareLink) (*models.Album, error) {
	album, err := s.albumsRepo.WithContext(ctx).GetAlbumByID(link.AlbumID)
	if err != nil {
		if errors.Is(err, albums.ErrAlbumNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}
	return album, nil
}

// OpenPhoto streams the stored original of a shared photo. The result may
// also implement io.Closer.
func (s *Service) OpenPhoto(ctx context.Context, photo *models.Photo) (io.ReadSeeker, error) {
	return s.storage.GetWithContext(ctx, photo.Identifier)
}

func assetPath(identifier string, photoID uint, variant string) string {
	return fmt.Sprintf("/api/share/%s/asset/%d?variant=%s", identifier, photoID, variant)
}
