package share

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nerith/photofold/api/common"
	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/database/models"
	sharesvc "github.com/nerith/photofold/internal/share"
	"github.com/nerith/photofold/utils"
)

// Detail strings of the public share API. Clients display these verbatim.
const (
	DetailNotFound         = "Share link not found"
	DetailRevoked          = "This share link has been revoked"
	DetailExpired          = "This share link has expired"
	DetailInvalidPassword  = "Invalid password"
	DetailPasswordRequired = "Password required"
	DetailInvalidSort      = "Invalid sort_by value"
	DetailNoPhotos         = "No photos in album"
	DetailNoFiles          = "No files available for download"
)

// Handler serves the anonymous share endpoints.
type Handler struct {
	shareService *sharesvc.Service
	cfg          *config.Config
}

func NewHandler(shareService *sharesvc.Service, cfg *config.Config) *Handler {
	return &Handler{
		shareService: shareService,
		cfg:          cfg,
	}
}

// respondShareError maps service errors to status codes and detail bodies.
func respondShareError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sharesvc.ErrShareNotFound):
		common.RespondDetail(c, http.StatusNotFound, DetailNotFound)
	case errors.Is(err, sharesvc.ErrShareRevoked):
		common.RespondDetail(c, http.StatusGone, DetailRevoked)
	case errors.Is(err, sharesvc.ErrShareExpired):
		common.RespondDetail(c, http.StatusGone, DetailExpired)
	case errors.Is(err, sharesvc.ErrPasswordRequired):
		common.RespondDetail(c, http.StatusUnauthorized, DetailPasswordRequired)
	case errors.Is(err, sharesvc.ErrInvalidPassword):
		common.RespondDetail(c, http.StatusUnauthorized, DetailInvalidPassword)
	default:
		log.Printf("[Share] internal error: %v", utils.SanitizeLogMessage(err.Error()))
		common.RespondDetail(c, http.StatusInternalServerError, "Internal server error")
	}
}

// InfoHandler returns share metadata.
// GET /api/share/:token/info
func (h *Handler) InfoHandler(c *gin.Context) {
	info, err := h.shareService.GetInfo(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondShareError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type accessRequestBody struct {
	Password *string `json:"password"`
}

// AccessHandler returns the shared album. A protected link accessed without a
// password gets a minimal requires_password response, not an error.
// POST /api/share/:token/access?sort_by={captured|uploaded}
func (h *Handler) AccessHandler(c *gin.Context) {
	sortBy := c.DefaultQuery("sort_by", sharesvc.SortCaptured)
	if !sharesvc.ValidSortMode(sortBy) {
		common.RespondDetail(c, http.StatusBadRequest, DetailInvalidSort)
		return
	}

	var req accessRequestBody
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		common.RespondDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	password := ""
	if req.Password != nil {
		password = *req.Password
	}

	ctx := c.Request.Context()
	link, err := h.shareService.Resolve(ctx, c.Param("token"))
	if err != nil {
		respondShareError(c, err)
		return
	}

	if link.IsPasswordProtected && password == "" {
		locked, err := h.shareService.LockedAlbum(ctx, link)
		if err != nil {
			respondShareError(c, err)
			return
		}
		c.JSON(http.StatusOK, locked)
		return
	}

	if err := h.shareService.VerifyPassword(link, password); err != nil {
		if errors.Is(err, sharesvc.ErrPasswordRequired) {
			// unreachable for access, kept for symmetry with downloads
			err = sharesvc.ErrInvalidPassword
		}
		respondShareError(c, err)
		return
	}

	album, err := h.shareService.GetSharedAlbum(ctx, c.Param("token"), link, sortBy)
	if err != nil {
		respondShareError(c, err)
		return
	}
	c.JSON(http.StatusOK, album)
}

// authorizeRequest resolves the link and checks the password query parameter.
// Used by the download and asset endpoints.
func (h *Handler) authorizeRequest(c *gin.Context) (*models.ShareLink, bool) {
	link, err := h.shareService.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondShareError(c, err)
		return nil, false
	}

	if err := h.shareService.VerifyPassword(link, c.Query("password")); err != nil {
		respondShareError(c, err)
		return nil, false
	}

	return link, true
}

// lookupPhoto parses the photoId parameter and loads the album-scoped photo.
func (h *Handler) lookupPhoto(c *gin.Context, link *models.ShareLink) (*models.Photo, bool) {
	photoID, err := strconv.ParseUint(c.Param("photoId"), 10, 32)
	if err != nil {
		common.RespondDetail(c, http.StatusNotFound, DetailNotFound)
		return nil, false
	}

	photo, err := h.shareService.GetPhoto(c.Request.Context(), link, uint(photoID))
	if err != nil {
		respondShareError(c, err)
		return nil, false
	}
	return photo, true
}

// DownloadHandler streams one original file. Range requests are honored.
// GET /api/share/:token/download/:photoId?password=...
func (h *Handler) DownloadHandler(c *gin.Context) {
	link, ok := h.authorizeRequest(c)
	if !ok {
		return
	}

	photo, ok := h.lookupPhoto(c, link)
	if !ok {
		return
	}

	h.servePhoto(c, photo, true)
}

// AssetHandler streams a display variant for grids and the lightbox.
// GET /api/share/:token/asset/:photoId?variant={thumbnail|web}&password=...
func (h *Handler) AssetHandler(c *gin.Context) {
	variant := c.DefaultQuery("variant", "web")
	if variant != "thumbnail" && variant != "web" {
		common.RespondDetail(c, http.StatusBadRequest, "Invalid variant value")
		return
	}

	link, ok := h.authorizeRequest(c)
	if !ok {
		return
	}

	photo, ok := h.lookupPhoto(c, link)
	if !ok {
		return
	}

	// variants are served from the stored original
	h.servePhoto(c, photo, false)
}

// servePhoto streams the stored original with range support.
func (h *Handler) servePhoto(c *gin.Context, photo *models.Photo, attachment bool) {
	reader, err := h.shareService.OpenPhoto(c.Request.Context(), photo)
	if err != nil {
		respondShareError(c, err)
		return
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	if photo.MimeType != "" {
		c.Header("Content-Type", photo.MimeType)
	}
	if attachment {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", photo.OriginalFilename))
	}

	http.ServeContent(c.Writer, c.Request, photo.OriginalFilename, photo.CreatedAt, reader)
}

// DownloadAllHandler builds a ZIP of all originals and streams it. The temp
// archive is removed after the response.
// GET /api/share/:token/download-all?password=...
func (h *Handler) DownloadAllHandler(c *gin.Context) {
	link, ok := h.authorizeRequest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	photoRows, err := h.shareService.ListPhotos(ctx, link)
	if err != nil {
		respondShareError(c, err)
		return
	}
	if len(photoRows) == 0 {
		common.RespondDetail(c, http.StatusNotFound, DetailNoPhotos)
		return
	}

	entries := make([]utils.ZipEntry, 0, len(photoRows))
	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()

	for _, photo := range photoRows {
		reader, err := h.shareService.OpenPhoto(ctx, photo)
		if err != nil {
			log.Printf("[Share] skipping unreadable file %s: %v", photo.Identifier, err)
			continue
		}
		if closer, ok := reader.(io.Closer); ok {
			closers = append(closers, closer)
		}
		entries = append(entries, utils.ZipEntry{
			Name:   photo.OriginalFilename,
			Reader: reader,
		})
	}
	if len(entries) == 0 {
		common.RespondDetail(c, http.StatusNotFound, DetailNoFiles)
		return
	}

	album, err := h.shareService.LinkedAlbum(ctx, link)
	if err != nil {
		respondShareError(c, err)
		return
	}

	archivePath, _, err := utils.CreateArchive(h.cfg.TempDir, entries)
	if err != nil {
		respondShareError(c, err)
		return
	}
	defer func() {
		if err := os.Remove(archivePath); err != nil {
			log.Printf("[Share] failed to remove temp archive %s: %v", archivePath, err)
		}
	}()

	archiveName := utils.SanitizeArchiveTitle(album.Title) + ".zip"
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archiveName))
	c.File(archivePath)
}
