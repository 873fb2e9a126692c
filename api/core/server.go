package core

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nerith/photofold/api/middleware"
	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/internal/app"
)

// setupRouter builds the gin engine with all middleware and routes. The
// returned cleanup stops the rate limiter goroutines.
func setupRouter(container *app.Container) (*gin.Engine, func()) {
	cfg := container.Config()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)

	router.MaxMultipartMemory = int64(cfg.UploadMaxSizeMB) << 20

	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())

	authRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst, cfg.RateLimitExpireTime)
	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	shareRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitShareRPS, cfg.RateLimitShareBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		authRateLimiter.StopCleanup()
		apiRateLimiter.StopCleanup()
		shareRateLimiter.StopCleanup()
	}

	RegisterRoutes(router, &RouterDependencies{
		Container:        container,
		AuthRateLimiter:  authRateLimiter,
		APIRateLimiter:   apiRateLimiter,
		ShareRateLimiter: shareRateLimiter,
		Config:           cfg,
	})

	return router, cleanup
}

// StartServer creates the http.Server; the caller runs ListenAndServe and
// invokes cleanup on shutdown.
func StartServer(container *app.Container) (*http.Server, func()) {
	cfg := container.Config()
	router, cleanup := setupRouter(container)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, cleanup
}
