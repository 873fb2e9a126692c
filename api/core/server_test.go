package core

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		ServerHost:          "127.0.0.1",
		ServerPort:          0,
		DBType:              "sqlite",
		DBFilePath:          filepath.Join(t.TempDir(), "test.db"),
		JWTSecret:           "0123456789abcdef0123456789abcdef",
		JWTExpiresIn:        "15m",
		JWTRefreshExpiresIn: "720h",
		CacheType:           "memory",
		StorageType:         "local",
		StorageLocalPath:    t.TempDir(),
		TempDir:             t.TempDir(),
		UploadMaxSizeMB:     10,
		RateLimitApiRPS:     100,
		RateLimitApiBurst:   200,
		RateLimitShareRPS:   100,
		RateLimitShareBurst: 200,
		RateLimitAuthRPS:    100,
		RateLimitAuthBurst:  200,
		RateLimitExpireTime: time.Minute,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	container := app.NewContainer(testConfig(t))
	require.NoError(t, container.Init())
	require.NoError(t, container.DB().AutoMigrate())
	t.Cleanup(func() { _ = container.Close() })

	router, cleanup := setupRouter(container)
	t.Cleanup(cleanup)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["database"])
	assert.Equal(t, "ok", body.Checks["cache"])
	assert.Equal(t, "ok", body.Checks["storage"])
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/version")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/albums")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestShareRoutesArePublic(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/share/nothing/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Share link not found", body["detail"])
}
