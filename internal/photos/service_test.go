package photos

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/png"
	"testing"

	"github.com/nerith/photofold/database/models"
	albumsrepo "github.com/nerith/photofold/database/repo/albums"
	photosrepo "github.com/nerith/photofold/database/repo/photos"
	"github.com/nerith/photofold/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *models.Album, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Album{}, &models.Photo{}, &models.ShareLink{}))

	album := &models.Album{Title: "Trip"}
	require.NoError(t, db.Create(album).Error)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc := NewService(photosrepo.NewRepository(db), albumsrepo.NewRepository(db), store)
	return svc, album, db
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestUpload(t *testing.T) {
	svc, album, _ := newService(t)
	data := pngBytes(t, 4, 3)

	photo, err := svc.Upload(context.Background(), album.ID, "tiny.png", "", data)
	require.NoError(t, err)

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), photo.Identifier)
	assert.Equal(t, "tiny.png", photo.OriginalFilename)
	assert.Equal(t, "image/png", photo.MimeType)
	assert.Equal(t, int64(len(data)), photo.FileSize)
	assert.Equal(t, 4, photo.Width)
	assert.Equal(t, 3, photo.Height)
	assert.False(t, photo.IsVideo)
	assert.Nil(t, photo.CapturedAt)

	r, err := svc.Open(context.Background(), photo)
	require.NoError(t, err)
	var got bytes.Buffer
	_, err = got.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, data, got.Bytes())
}

func TestUpload_SameAlbumDedup(t *testing.T) {
	svc, album, _ := newService(t)
	data := pngBytes(t, 2, 2)

	first, err := svc.Upload(context.Background(), album.ID, "a.png", "", data)
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), album.ID, "a.png", "", data)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestUpload_CrossAlbumDuplicate(t *testing.T) {
	svc, album, db := newService(t)
	data := pngBytes(t, 2, 2)

	_, err := svc.Upload(context.Background(), album.ID, "a.png", "", data)
	require.NoError(t, err)

	other := &models.Album{Title: "Other"}
	require.NoError(t, db.Create(other).Error)

	_, err = svc.Upload(context.Background(), other.ID, "a.png", "", data)
	assert.ErrorIs(t, err, ErrDuplicatePhoto)
}

func TestUpload_VideoSkipsDecoding(t *testing.T) {
	svc, album, _ := newService(t)

	photo, err := svc.Upload(context.Background(), album.ID, "clip.mp4", "video/mp4", []byte("not-really-video"))
	require.NoError(t, err)
	assert.True(t, photo.IsVideo)
	assert.Zero(t, photo.Width)
	assert.Nil(t, photo.CapturedAt)
}

func TestUpload_UnknownAlbum(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Upload(context.Background(), 9999, "a.png", "", pngBytes(t, 1, 1))
	assert.ErrorIs(t, err, albumsrepo.ErrAlbumNotFound)
}

func TestDelete_ClearsCover(t *testing.T) {
	svc, album, db := newService(t)

	photo, err := svc.Upload(context.Background(), album.ID, "cover.png", "", pngBytes(t, 2, 2))
	require.NoError(t, err)

	album.CoverPhotoID = &photo.ID
	require.NoError(t, db.Save(album).Error)

	require.NoError(t, svc.Delete(context.Background(), album.ID, photo.ID))

	var reloaded models.Album
	require.NoError(t, db.First(&reloaded, album.ID).Error)
	assert.Nil(t, reloaded.CoverPhotoID)

	_, err = svc.Open(context.Background(), photo)
	assert.Error(t, err)
}

func TestExtractCapturedAt_BadData(t *testing.T) {
	assert.Nil(t, ExtractCapturedAt(bytes.NewReader([]byte("garbage"))))
}
