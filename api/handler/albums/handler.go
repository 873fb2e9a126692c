package albums

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nerith/photofold/api/common"
	"github.com/nerith/photofold/config"
	albumsrepo "github.com/nerith/photofold/database/repo/albums"
	albumssvc "github.com/nerith/photofold/internal/albums"
)

// Handler serves the admin album endpoints.
type Handler struct {
	albumService *albumssvc.Service
	cfg          *config.Config
}

func NewHandler(albumService *albumssvc.Service, cfg *config.Config) *Handler {
	return &Handler{
		albumService: albumService,
		cfg:          cfg,
	}
}

type albumListItem struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PhotoCount  int64     `json:"photo_count"`
	CoverID     string    `json:"cover_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListAlbumsHandler returns a page of albums.
// GET /api/v1/albums?page=1&page_size=20
func (h *Handler) ListAlbumsHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	infos, total, err := h.albumService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	items := make([]albumListItem, 0, len(infos))
	for _, info := range infos {
		items = append(items, albumListItem{
			ID:          info.Album.ID,
			Title:       info.Album.Title,
			Description: info.Album.Description,
			PhotoCount:  info.PhotoCount,
			CoverID:     info.CoverID,
			CreatedAt:   info.Album.CreatedAt,
		})
	}

	common.RespondSuccess(c, gin.H{
		"albums": items,
		"total":  total,
	})
}

type createAlbumRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// CreateAlbumHandler creates an empty album.
// POST /api/v1/albums
func (h *Handler) CreateAlbumHandler(c *gin.Context) {
	var req createAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	album, err := h.albumService.Create(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		if errors.Is(err, albumssvc.ErrInvalidTitle) {
			common.RespondError(c, http.StatusBadRequest, err.Error())
			return
		}
		common.RespondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	common.RespondSuccess(c, album)
}

// GetAlbumDetailHandler returns an album with its photos.
// GET /api/v1/albums/:id
func (h *Handler) GetAlbumDetailHandler(c *gin.Context) {
	albumID, ok := parseAlbumID(c)
	if !ok {
		return
	}

	album, err := h.albumService.Get(c.Request.Context(), albumID)
	if err != nil {
		respondAlbumError(c, err)
		return
	}

	common.RespondSuccess(c, album)
}

type updateAlbumRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	CoverPhotoID *uint   `json:"cover_photo_id"`
}

// UpdateAlbumHandler changes title, description or cover.
// PUT /api/v1/albums/:id
func (h *Handler) UpdateAlbumHandler(c *gin.Context) {
	albumID, ok := parseAlbumID(c)
	if !ok {
		return
	}

	var req updateAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	album, err := h.albumService.Update(c.Request.Context(), albumID, req.Title, req.Description, req.CoverPhotoID)
	if err != nil {
		if errors.Is(err, albumssvc.ErrInvalidTitle) {
			common.RespondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondAlbumError(c, err)
		return
	}

	common.RespondSuccess(c, album)
}

// DeleteAlbumHandler removes an album with its photos and share links.
// DELETE /api/v1/albums/:id
func (h *Handler) DeleteAlbumHandler(c *gin.Context) {
	albumID, ok := parseAlbumID(c)
	if !ok {
		return
	}

	failed, err := h.albumService.Delete(c.Request.Context(), albumID)
	if err != nil {
		respondAlbumError(c, err)
		return
	}

	if len(failed) > 0 {
		common.RespondSuccessMessage(c, "Album deleted, some stored files could not be removed", gin.H{
			"failed_identifiers": failed,
		})
		return
	}
	common.RespondSuccessMessage(c, "Album deleted", nil)
}

// StorageStatsHandler returns per-album storage usage.
// GET /api/v1/dashboard/storage
func (h *Handler) StorageStatsHandler(c *gin.Context) {
	stats, err := h.albumService.StorageBreakdown(c.Request.Context())
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	var totalBytes, totalPhotos int64
	for _, s := range stats {
		totalBytes += s.TotalBytes
		totalPhotos += s.PhotoCount
	}

	common.RespondSuccess(c, gin.H{
		"total_photos": totalPhotos,
		"total_bytes":  totalBytes,
		"albums":       stats,
	})
}

func parseAlbumID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid album id")
		return 0, false
	}
	return uint(id), true
}

func respondAlbumError(c *gin.Context, err error) {
	if errors.Is(err, albumsrepo.ErrAlbumNotFound) {
		common.RespondError(c, http.StatusNotFound, "Album not found")
		return
	}
	common.RespondError(c, http.StatusInternalServerError, "Internal server error")
}
