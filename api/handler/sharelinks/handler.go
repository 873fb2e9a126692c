package sharelinks

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nerith/photofold/api/common"
	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/database/models"
	albumsrepo "github.com/nerith/photofold/database/repo/albums"
	"github.com/nerith/photofold/database/repo/sharelinks"
	"github.com/nerith/photofold/utils"
	cryptoutil "github.com/nerith/photofold/utils/crypto"
)

// MinPasswordLength is the minimum share-link password length.
const MinPasswordLength = 4

// Handler serves the admin share-link endpoints.
type Handler struct {
	linksRepo  *sharelinks.Repository
	albumsRepo *albumsrepo.Repository
	cfg        *config.Config
}

func NewHandler(linksRepo *sharelinks.Repository, albumsRepo *albumsrepo.Repository, cfg *config.Config) *Handler {
	return &Handler{
		linksRepo:  linksRepo,
		albumsRepo: albumsRepo,
		cfg:        cfg,
	}
}

// linkView is the admin-facing representation of a share link.
type linkView struct {
	ID                  uint       `json:"id"`
	AlbumID             uint       `json:"album_id"`
	Token               string     `json:"token"`
	CustomSlug          *string    `json:"custom_slug"`
	URL                 string     `json:"url"`
	IsPasswordProtected bool       `json:"is_password_protected"`
	ExpiresAt           *time.Time `json:"expires_at"`
	IsRevoked           bool       `json:"is_revoked"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (h *Handler) toView(link *models.ShareLink) *linkView {
	identifier := link.Token
	if link.CustomSlug != nil && *link.CustomSlug != "" {
		identifier = *link.CustomSlug
	}

	return &linkView{
		ID:                  link.ID,
		AlbumID:             link.AlbumID,
		Token:               link.Token,
		CustomSlug:          link.CustomSlug,
		URL:                 h.cfg.BaseURL() + "/api/share/" + identifier,
		IsPasswordProtected: link.IsPasswordProtected,
		ExpiresAt:           link.ExpiresAt,
		IsRevoked:           link.IsRevoked,
		CreatedAt:           link.CreatedAt,
	}
}

type createLinkRequest struct {
	Password   *string    `json:"password"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CustomSlug *string    `json:"custom_slug"`
}

// CreateHandler creates a share link for an album.
// POST /api/v1/albums/:id/share-links
func (h *Handler) CreateHandler(c *gin.Context) {
	albumID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.albumsRepo.GetAlbumByID(albumID); err != nil {
		if errors.Is(err, albumsrepo.ErrAlbumNotFound) {
			common.RespondError(c, http.StatusNotFound, "Album not found")
			return
		}
		common.RespondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := utils.GenerateShareToken()
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	link := &models.ShareLink{
		AlbumID:   albumID,
		Token:     token,
		ExpiresAt: req.ExpiresAt,
	}

	if req.CustomSlug != nil && *req.CustomSlug != "" {
		link.CustomSlug = req.CustomSlug
	}

	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < MinPasswordLength {
			common.RespondError(c, http.StatusBadRequest, "Password must be at least 4 characters")
			return
		}
		hash, err := cryptoutil.GenerateFromPassword(*req.Password)
		if err != nil {
			common.RespondError(c, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		link.PasswordHash = &hash
		link.IsPasswordProtected = true
	}

	if err := h.linksRepo.CreateShareLink(link); err != nil {
		common.RespondError(c, http.StatusConflict, "Failed to create share link, slug may already be taken")
		return
	}

	common.RespondSuccess(c, h.toView(link))
}

// ListHandler lists an album's share links.
// GET /api/v1/albums/:id/share-links
func (h *Handler) ListHandler(c *gin.Context) {
	albumID, ok := parseID(c, "id")
	if !ok {
		return
	}

	links, err := h.linksRepo.ListByAlbum(albumID)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	views := make([]*linkView, 0, len(links))
	for _, link := range links {
		views = append(views, h.toView(link))
	}
	common.RespondSuccess(c, views)
}

type updateLinkRequest struct {
	Password  *string    `json:"password"`
	ExpiresAt *time.Time `json:"expires_at"`
	ClearsPwd bool       `json:"clear_password"`
	IsRevoked *bool      `json:"is_revoked"`
}

// UpdateHandler changes password, expiry or revocation of a link.
// PUT /api/v1/share-links/:linkId
func (h *Handler) UpdateHandler(c *gin.Context) {
	linkID, ok := parseID(c, "linkId")
	if !ok {
		return
	}

	link, err := h.linksRepo.GetByID(linkID)
	if err != nil {
		respondRepoError(c, err)
		return
	}

	var req updateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.ClearsPwd {
		link.PasswordHash = nil
		link.IsPasswordProtected = false
	} else if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < MinPasswordLength {
			common.RespondError(c, http.StatusBadRequest, "Password must be at least 4 characters")
			return
		}
		hash, err := cryptoutil.GenerateFromPassword(*req.Password)
		if err != nil {
			common.RespondError(c, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		link.PasswordHash = &hash
		link.IsPasswordProtected = true
	}

	if req.ExpiresAt != nil {
		link.ExpiresAt = req.ExpiresAt
	}
	if req.IsRevoked != nil {
		link.IsRevoked = *req.IsRevoked
	}

	if err := h.linksRepo.UpdateShareLink(link); err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to update share link")
		return
	}

	common.RespondSuccess(c, h.toView(link))
}

// RevokeHandler permanently disables a link without deleting it.
// POST /api/v1/share-links/:linkId/revoke
func (h *Handler) RevokeHandler(c *gin.Context) {
	linkID, ok := parseID(c, "linkId")
	if !ok {
		return
	}

	if err := h.linksRepo.Revoke(linkID); err != nil {
		respondRepoError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "Share link revoked", nil)
}

// DeleteHandler removes a link entirely.
// DELETE /api/v1/share-links/:linkId
func (h *Handler) DeleteHandler(c *gin.Context) {
	linkID, ok := parseID(c, "linkId")
	if !ok {
		return
	}

	if err := h.linksRepo.DeleteShareLink(linkID); err != nil {
		respondRepoError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "Share link deleted", nil)
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return uint(id), true
}

func respondRepoError(c *gin.Context, err error) {
	if errors.Is(err, sharelinks.ErrShareLinkNotFound) {
		common.RespondError(c, http.StatusNotFound, "Share link not found")
		return
	}
	common.RespondError(c, http.StatusInternalServerError, "Internal server error")
}
