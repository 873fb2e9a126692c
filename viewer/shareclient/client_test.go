package shareclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/nerith/photofold/cache/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailResponse(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func TestGetInfo_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/share/tok/info", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ShareInfo{
			AlbumTitle: "Wedding",
			PhotoCount: 42,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	info, err := client.GetInfo(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "Wedding", info.AlbumTitle)
	assert.Equal(t, int64(42), info.PhotoCount)
}

func TestGetInfo_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		detailResponse(w, http.StatusNotFound, "Share link not found")
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.GetInfo(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetInfo_Expired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		detailResponse(w, http.StatusGone, "This share link has expired")
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.GetInfo(context.Background(), "tok")

	var expired *ExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, "This share link has expired", expired.Detail)
	assert.True(t, IsExpired(err))
}

func TestGetInfo_Cached(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(ShareInfo{AlbumTitle: "Cached"})
	}))
	defer srv.Close()

	provider, err := memory.NewMemory(memory.Config{
		NumCounters: 1000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	require.NoError(t, err)
	defer provider.Close()

	client := NewClient(srv.URL, WithCache(provider))

	for i := 0; i < 3; i++ {
		info, err := client.GetInfo(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "Cached", info.AlbumTitle)
	}
	assert.Equal(t, int64(1), hits.Load())
}

func TestAccess_SendsPasswordAndSort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/share/tok/access", r.URL.Path)
		assert.Equal(t, "uploaded", r.URL.Query().Get("sort_by"))

		var body struct {
			Password *string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotNil(t, body.Password)
		assert.Equal(t, "hunter2", *body.Password)

		_ = json.NewEncoder(w).Encode(SharedAlbum{Title: "Wedding", PhotoCount: 1})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	album, err := client.Access(context.Background(), "tok", "hunter2", SortUploaded)
	require.NoError(t, err)
	assert.Equal(t, "Wedding", album.Title)
}

func TestAccess_EmptyPasswordSentAsNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Nil(t, body["password"])
		_ = json.NewEncoder(w).Encode(SharedAlbum{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Access(context.Background(), "tok", "", SortCaptured)
	require.NoError(t, err)
}

func TestAccess_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		detailResponse(w, http.StatusUnauthorized, "Invalid password")
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Access(context.Background(), "tok", "wrong", SortCaptured)

	var unauthorized *UnauthorizedError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, "Invalid password", unauthorized.Detail)
	assert.True(t, IsUnauthorized(err))
}

func TestAccess_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		detailResponse(w, http.StatusInternalServerError, "Internal server error")
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Access(context.Background(), "tok", "", SortCaptured)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestURLBuilders(t *testing.T) {
	client := NewClient("https://photos.example.com/")

	assert.Equal(t,
		"https://photos.example.com/api/share/tok/download/7",
		client.DownloadURL("tok", 7, ""))
	assert.Equal(t,
		"https://photos.example.com/api/share/tok/download/7?password=p%40ss",
		client.DownloadURL("tok", 7, "p@ss"))
	assert.Equal(t,
		"https://photos.example.com/api/share/tok/download-all",
		client.DownloadAllURL("tok", ""))
	assert.Equal(t,
		"https://photos.example.com/api/share/tok/asset/7?variant=thumbnail",
		client.AssetURL("tok", 7, "thumbnail", ""))
	assert.Equal(t,
		"https://photos.example.com/api/share/tok/asset/7?variant=web&password=pw",
		client.AssetURL("tok", 7, "web", "pw"))
}
