package albums

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nerith/photofold/api/common"
	"github.com/nerith/photofold/config"
	albumsrepo "github.com/nerith/photofold/database/repo/albums"
	photosrepo "github.com/nerith/photofold/database/repo/photos"
	photossvc "github.com/nerith/photofold/internal/photos"
)

// PhotoHandler serves photo upload and deletion within an album.
type PhotoHandler struct {
	photoService *photossvc.Service
	cfg          *config.Config
}

func NewPhotoHandler(photoService *photossvc.Service, cfg *config.Config) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		cfg:          cfg,
	}
}

// UploadHandler ingests one multipart file into an album.
// POST /api/v1/albums/:id/photos
func (h *PhotoHandler) UploadHandler(c *gin.Context) {
	albumID, ok := parseAlbumID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "No file in request")
		return
	}

	maxBytes := int64(h.cfg.UploadMaxSizeMB) << 20
	if fileHeader.Size > maxBytes {
		common.RespondError(c, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to read file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to read file")
		return
	}
	if int64(len(data)) > maxBytes {
		common.RespondError(c, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	photo, err := h.photoService.Upload(
		c.Request.Context(),
		albumID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		data,
	)
	if err != nil {
		switch {
		case errors.Is(err, albumsrepo.ErrAlbumNotFound):
			common.RespondError(c, http.StatusNotFound, "Album not found")
		case errors.Is(err, photossvc.ErrDuplicatePhoto):
			common.RespondError(c, http.StatusConflict, "Photo already uploaded to another album")
		default:
			common.RespondError(c, http.StatusInternalServerError, "Failed to store photo")
		}
		return
	}

	common.RespondSuccess(c, photo)
}

// DeleteHandler removes one photo from an album.
// DELETE /api/v1/albums/:id/photos/:photoId
func (h *PhotoHandler) DeleteHandler(c *gin.Context) {
	albumID, ok := parseAlbumID(c)
	if !ok {
		return
	}

	photoID, err := strconv.ParseUint(c.Param("photoId"), 10, 32)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid photo id")
		return
	}

	if err := h.photoService.Delete(c.Request.Context(), albumID, uint(photoID)); err != nil {
		if errors.Is(err, photosrepo.ErrPhotoNotFound) {
			common.RespondError(c, http.StatusNotFound, "Photo not found")
			return
		}
		common.RespondError(c, http.StatusInternalServerError, "Failed to delete photo")
		return
	}

	common.RespondSuccessMessage(c, "Photo deleted", nil)
}
