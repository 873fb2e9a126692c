package share

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/database/models"
	albumsrepo "github.com/nerith/photofold/database/repo/albums"
	photosrepo "github.com/nerith/photofold/database/repo/photos"
	"github.com/nerith/photofold/database/repo/sharelinks"
	sharesvc "github.com/nerith/photofold/internal/share"
	"github.com/nerith/photofold/storage"
	cryptoutil "github.com/nerith/photofold/utils/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	store  *storage.LocalStorage
	album  *models.Album
}

func newTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Album{}, &models.Photo{}, &models.ShareLink{}))

	album := &models.Album{Title: "Summer Trip", Description: "Two weeks"}
	require.NoError(t, db.Create(album).Error)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{TempDir: t.TempDir()}
	svc := sharesvc.NewService(
		sharelinks.NewRepository(db),
		albumsrepo.NewRepository(db),
		photosrepo.NewRepository(db),
		store,
		nil,
		time.Minute,
	)
	handler := NewHandler(svc, cfg)

	router := gin.New()
	group := router.Group("/api/share")
	{
		group.GET("/:token/info", handler.InfoHandler)
		group.POST("/:token/access", handler.AccessHandler)
		group.GET("/:token/download/:photoId", handler.DownloadHandler)
		group.GET("/:token/download-all", handler.DownloadAllHandler)
		group.GET("/:token/asset/:photoId", handler.AssetHandler)
	}

	return &testEnv{router: router, db: db, store: store, album: album}
}

func (e *testEnv) addLink(t *testing.T, link *models.ShareLink) *models.ShareLink {
	t.Helper()
	link.AlbumID = e.album.ID
	require.NoError(t, e.db.Create(link).Error)
	return link
}

func (e *testEnv) addProtectedLink(t *testing.T, token, password string) *models.ShareLink {
	t.Helper()
	hash, err := cryptoutil.GenerateFromPassword(password)
	require.NoError(t, err)
	return e.addLink(t, &models.ShareLink{
		Token:               token,
		PasswordHash:        &hash,
		IsPasswordProtected: true,
	})
}

func (e *testEnv) addPhoto(t *testing.T, identifier, filename, content string) *models.Photo {
	t.Helper()
	photo := &models.Photo{
		AlbumID:          e.album.ID,
		Identifier:       identifier,
		OriginalFilename: filename,
		MimeType:         "image/jpeg",
		FileSize:         int64(len(content)),
	}
	require.NoError(t, e.db.Create(photo).Error)
	require.NoError(t, e.store.SaveWithContext(context.Background(), identifier, strings.NewReader(content)))
	return photo
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["detail"]
}

func TestInfo_NotFound(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodGet, "/api/share/nothing/info", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Share link not found", detail(t, w))
}

func TestInfo_Revoked(t *testing.T) {
	e := newTestEnv(t)
	e.addLink(t, &models.ShareLink{Token: "tok", IsRevoked: true})

	w := e.do(http.MethodGet, "/api/share/tok/info", "")
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "This share link has been revoked", detail(t, w))
}

func TestInfo_Expired(t *testing.T) {
	e := newTestEnv(t)
	past := time.Now().Add(-time.Hour)
	e.addLink(t, &models.ShareLink{Token: "tok", ExpiresAt: &past})

	w := e.do(http.MethodGet, "/api/share/tok/info", "")
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "This share link has expired", detail(t, w))
}

func TestInfo_OK(t *testing.T) {
	e := newTestEnv(t)
	e.addLink(t, &models.ShareLink{Token: "tok"})
	e.addPhoto(t, "aaa111", "one.jpg", "x")

	w := e.do(http.MethodGet, "/api/share/tok/info", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info sharesvc.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "Summer Trip", info.AlbumTitle)
	assert.Equal(t, int64(1), info.PhotoCount)
	assert.False(t, info.IsPasswordProtected)
}

func TestAccess_InvalidSort(t *testing.T) {
	e := newTestEnv(t)
	e.addLink(t, &models.ShareLink{Token: "tok"})

	w := e.do(http.MethodPost, "/api/share/tok/access?sort_by=alphabetical", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccess_ProtectedWithoutPassword(t *testing.T) {
	e := newTestEnv(t)
	e.addProtectedLink(t, "tok", "hunter2")
	e.addPhoto(t, "bbb222", "two.jpg", "x")

	w := e.do(http.MethodPost, "/api/share/tok/access", `{}`)
	require.Equal(t, http.StatusOK, w.Code)

	var album sharesvc.SharedAlbum
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &album))
	assert.True(t, album.RequiresPassword)
	assert.Empty(t, album.Photos)
	assert.Zero(t, album.PhotoCount)
}

func TestAccess_WrongPassword(t *testing.T) {
	e := newTestEnv(t)
	e.addProtectedLink(t, "tok", "hunter2")

	w := e.do(http.MethodPost, "/api/share/tok/access", `{"password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid password", detail(t, w))
}

func TestAccess_CorrectPassword(t *testing.T) {
	e := newTestEnv(t)
	e.addProtectedLink(t, "tok", "hunter2")
	e.addPhoto(t, "ccc333", "three.jpg", "x")

	w := e.do(http.MethodPost, "/api/share/tok/access", `{"password":"hunter2"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var album sharesvc.SharedAlbum
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &album))
	assert.False(t, album.RequiresPassword)
	assert.Len(t, album.Photos, 1)
	assert.Equal(t, "three.jpg", album.Photos[0].OriginalFilename)
}

func TestAccess_Unprotected(t *testing.T) {
	e := newTestEnv(t)
	e.addLink(t, &models.ShareLink{Token: "tok"})
	e.addPhoto(t, "ddd444", "four.jpg", "x")

	w := e.do(http.MethodPost, "/api/share/tok/access", `{}`)
	require.Equal(t, http.StatusOK, w.Code)

	var album sharesvc.SharedAlbum
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &album))
	assert.False(t, album.RequiresPassword)
	assert.Len(t, album.Photos, 1)
}

func TestDownload_MissingPassword(t *testing.T) {
	e := newTestEnv(t)
	e.addProtectedLink(t, "tok", "hunter2")
	photo := e.addPhoto(t, "eee555", "five.jpg", "payload")

	w := e.do(http.MethodGet, fmt.Sprintf("/api/share/tok/download/%d", photo.ID), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Password required", detail(t, w))
}

func TestDownload_OK(t *testing.T) {
	e := newTestEnv(t)
	e.addProtectedLink(t, "tok", "hunter2")
	photo := e.addPhoto(t, "fff666", "six.jpg", "payload")

	w := e.do(http.MethodGet, fmt.Sprintf("/api/share/tok/download/%d?password=hunter2", photo.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payload", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "six.jpg")
}

func TestDownload_UnknownPhoto(t *testing.T) {
	e := newTestEnv(t)
	e.addLink(t, &models.ShareLink{Token: "tok"})

	w := e.do(http.MethodGet, "/api/share/tok/download/424242", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Share link not found", detail(t, w))
}

func TestAsset_InvalidVariant(t *testing.T) {
	e := newTestEnv(t)
	e.addLink(t, &models.ShareLink{Token: "tok"})
	photo := e.addPhoto(t, "ggg777", "seven.jpg", "x")

	w := e.do(http.MethodGet, fmt.Sprintf("/api/share/tok/asset/%d?variant=huge", photo.ID), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAsset_OK(t *testing.T) {
	e := newTestEnv(t)
	e.addLink(t, &models.ShareLink{Token: "tok"})
	photo := e.addPhoto(t, "hhh888", "eight.jpg", "pixels")

	w := e.do(http.MethodGet, fmt.Sprintf("/api/share/tok/asset/%d?variant=thumbnail", photo.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pixels", w.Body.String())
}

func TestDownloadAll(t *testing.T) {
	e := newTestEnv(t)
	e.addLink(t, &models.ShareLink{Token: "tok"})
	e.addPhoto(t, "iii999", "dup.jpg", "first")
	e.addPhoto(t, "jjj000", "dup.jpg", "second")

	w := e.do(http.MethodGet, "/api/share/tok/download-all", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Summer Trip.zip")

	reader, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)

	names := []string{reader.File[0].Name, reader.File[1].Name}
	assert.Contains(t, names, "dup.jpg")
	assert.Contains(t, names, "dup_1.jpg")
	for _, f := range reader.File {
		assert.Equal(t, zip.Store, f.Method)
	}
}

func TestDownloadAll_EmptyAlbum(t *testing.T) {
	e := newTestEnv(t)
	e.addLink(t, &models.ShareLink{Token: "tok"})

	w := e.do(http.MethodGet, "/api/share/tok/download-all", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No photos in album", detail(t, w))
}

func TestDownloadAll_AllFilesUnreadable(t *testing.T) {
	e := newTestEnv(t)
	e.addLink(t, &models.ShareLink{Token: "tok"})

	// photo row without a stored file
	require.NoError(t, e.db.Create(&models.Photo{
		AlbumID:          e.album.ID,
		Identifier:       "missing111",
		OriginalFilename: "gone.jpg",
	}).Error)

	w := e.do(http.MethodGet, "/api/share/tok/download-all", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No files available for download", detail(t, w))
}
