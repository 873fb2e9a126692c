package sharelinks

import (
	"context"
	"errors"
	"time"

	"github.com/nerith/photofold/cache"
	"github.com/nerith/photofold/database/models"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var ErrShareLinkNotFound = errors.New("share link not found")

// lookupGroup collapses concurrent lookups for the same identifier; public
// share pages hit this on every asset request.
var lookupGroup singleflight.Group

// lookupCacheTTL bounds staleness for writes that bypass the repository.
// Repository writes invalidate the cached row directly.
const lookupCacheTTL = 30 * time.Second

// Repository wraps all share link persistence.
type Repository struct {
	db    *gorm.DB
	cache *cache.Factory
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithCache enables the identifier lookup cache.
func (r *Repository) WithCache(f *cache.Factory) *Repository {
	return &Repository{db: r.db, cache: f}
}

func (r *Repository) CreateShareLink(link *models.ShareLink) error {
	return r.db.Create(link).Error
}

// GetByTokenOrSlug resolves a public identifier. Custom slugs are checked
// first so a slug can never be shadowed by a colliding token. Resolved rows
// are cached briefly; revoke, update and delete invalidate them.
func (r *Repository) GetByTokenOrSlug(identifier string) (*models.ShareLink, error) {
	cacheKey := cache.ShareLink.Build(identifier)
	if r.cache != nil {
		var cached models.ShareLink
		if err := r.cache.Get(context.Background(), cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	v, err, _ := lookupGroup.Do(identifier, func() (interface{}, error) {
		var link models.ShareLink
		err := r.db.Where("custom_slug = ?", identifier).First(&link).Error
		if err == nil {
			return &link, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		err = r.db.Where("token = ?", identifier).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShareLinkNotFound
		}
		if err != nil {
			return nil, err
		}
		return &link, nil
	})
	if err != nil {
		return nil, err
	}

	link := v.(*models.ShareLink)
	if r.cache != nil {
		_ = r.cache.Set(context.Background(), cacheKey, link, lookupCacheTTL)
	}
	return link, nil
}

// invalidateLookup drops the cached rows reachable through the link's public
// identifiers.
func (r *Repository) invalidateLookup(link *models.ShareLink) {
	if r.cache == nil || link == nil {
		return
	}
	_ = r.cache.Delete(context.Background(), cache.ShareLink.Build(link.Token))
	if link.CustomSlug != nil {
		_ = r.cache.Delete(context.Background(), cache.ShareLink.Build(*link.CustomSlug))
	}
}

func (r *Repository) GetByID(id uint) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.First(&link, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShareLinkNotFound
	}
	return &link, err
}

// ListByAlbum returns all links of an album, newest first.
func (r *Repository) ListByAlbum(albumID uint) ([]*models.ShareLink, error) {
	var links []*models.ShareLink
	err := r.db.Where("album_id = ?", albumID).Order("created_at desc").Find(&links).Error
	return links, err
}

// UpdateShareLink persists password/expiry/revocation changes.
func (r *Repository) UpdateShareLink(link *models.ShareLink) error {
	if err := r.db.Save(link).Error; err != nil {
		return err
	}
	r.invalidateLookup(link)
	return nil
}

// Revoke flags a link as permanently disabled without deleting it, so the
// viewer can still be told why access stopped.
func (r *Repository) Revoke(id uint) error {
	link, err := r.GetByID(id)
	if err != nil {
		return err
	}

	result := r.db.Model(&models.ShareLink{}).Where("id = ?", id).Update("is_revoked", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShareLinkNotFound
	}
	r.invalidateLookup(link)
	return nil
}

func (r *Repository) DeleteShareLink(id uint) error {
	link, err := r.GetByID(id)
	if err != nil {
		return err
	}

	result := r.db.Delete(&models.ShareLink{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShareLinkNotFound
	}
	r.invalidateLookup(link)
	return nil
}

// DeleteDead hard-deletes links that have been revoked or expired for longer
// than the retention window. Used by the clean command.
func (r *Repository) DeleteDead(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := r.db.
		Where("is_revoked = ?", true).
		Or("expires_at IS NOT NULL AND expires_at <= ?", cutoff).
		Delete(&models.ShareLink{})
	return result.RowsAffected, result.Error
}

// WithContext returns a context-scoped copy of the repository.
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx), cache: r.cache}
}
