package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nerith/photofold/api"
	"github.com/nerith/photofold/api/common"
	handlerAlbums "github.com/nerith/photofold/api/handler/albums"
	handlerShare "github.com/nerith/photofold/api/handler/share"
	handlerShareLinks "github.com/nerith/photofold/api/handler/sharelinks"
	"github.com/nerith/photofold/api/middleware"
	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/internal/app"
)

// RouterDependencies is everything route registration needs.
type RouterDependencies struct {
	Container        *app.Container
	AuthRateLimiter  *middleware.IPRateLimiter
	APIRateLimiter   *middleware.IPRateLimiter
	ShareRateLimiter *middleware.IPRateLimiter
	Config           *config.Config
}

// RegisterRoutes registers all routes.
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	registerBasicRoutes(router, deps)
	registerShareRoutes(router, deps)
	registerAPIRoutes(router, deps)
}

// registerBasicRoutes registers health, version and metrics.
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	router.GET("/health", healthHandler(deps.Container))

	router.GET("/version", func(c *gin.Context) {
		common.RespondSuccess(c, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, middleware.GetMetrics())
	})
}

// registerShareRoutes registers the anonymous share endpoints.
func registerShareRoutes(router *gin.Engine, deps *RouterDependencies) {
	shareHandler := handlerShare.NewHandler(deps.Container.ShareService, deps.Config)

	shareGroup := router.Group("/api/share")
	shareGroup.Use(deps.ShareRateLimiter.Middleware())
	{
		shareGroup.GET("/:token/info", shareHandler.InfoHandler)                  // GET /api/share/{token}/info
		shareGroup.POST("/:token/access", shareHandler.AccessHandler)             // POST /api/share/{token}/access
		shareGroup.GET("/:token/download/:photoId", shareHandler.DownloadHandler) // GET /api/share/{token}/download/{photoId}
		shareGroup.GET("/:token/download-all", shareHandler.DownloadAllHandler)   // GET /api/share/{token}/download-all
		shareGroup.GET("/:token/asset/:photoId", shareHandler.AssetHandler)       // GET /api/share/{token}/asset/{photoId}
	}
}

// registerAPIRoutes registers the authenticated admin API.
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	container := deps.Container

	albumHandler := handlerAlbums.NewHandler(container.AlbumService, deps.Config)
	photoHandler := handlerAlbums.NewPhotoHandler(container.PhotoService, deps.Config)
	shareLinkHandler := handlerShareLinks.NewHandler(container.ShareLinksRepo, container.AlbumsRepo, deps.Config)
	loginHandler := api.NewLoginHandler(container.LoginService)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	})
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.Use(deps.AuthRateLimiter.Middleware())
		{
			authGroup.POST("/login", loginHandler.LoginHandlerFunc)              // POST /api/auth/login
			authGroup.POST("/verify-2fa", loginHandler.VerifyTwoFactorHandlerFunc) // POST /api/auth/verify-2fa
			authGroup.POST("/refresh", loginHandler.RefreshTokenHandlerFunc)     // POST /api/auth/refresh
			authGroup.POST("/logout", loginHandler.LogoutHandlerFunc)            // POST /api/auth/logout
		}

		v1 := apiGroup.Group("/v1")
		v1.Use(deps.APIRateLimiter.Middleware())
		v1.Use(middleware.JWTAuth(container.JWTService))
		v1.Use(middleware.RequireRole("admin"))
		{
			albumsGroup := v1.Group("/albums")
			{
				albumsGroup.GET("", albumHandler.ListAlbumsHandler)         // GET /api/v1/albums
				albumsGroup.POST("", albumHandler.CreateAlbumHandler)       // POST /api/v1/albums
				albumsGroup.GET("/:id", albumHandler.GetAlbumDetailHandler) // GET /api/v1/albums/{id}
				albumsGroup.PUT("/:id", albumHandler.UpdateAlbumHandler)    // PUT /api/v1/albums/{id}
				albumsGroup.DELETE("/:id", albumHandler.DeleteAlbumHandler) // DELETE /api/v1/albums/{id}

				albumsGroup.POST("/:id/photos", photoHandler.UploadHandler)            // POST /api/v1/albums/{id}/photos
				albumsGroup.DELETE("/:id/photos/:photoId", photoHandler.DeleteHandler) // DELETE /api/v1/albums/{id}/photos/{photoId}

				albumsGroup.POST("/:id/share-links", shareLinkHandler.CreateHandler) // POST /api/v1/albums/{id}/share-links
				albumsGroup.GET("/:id/share-links", shareLinkHandler.ListHandler)    // GET /api/v1/albums/{id}/share-links
			}

			linksGroup := v1.Group("/share-links")
			{
				linksGroup.PUT("/:linkId", shareLinkHandler.UpdateHandler)          // PUT /api/v1/share-links/{linkId}
				linksGroup.POST("/:linkId/revoke", shareLinkHandler.RevokeHandler)  // POST /api/v1/share-links/{linkId}/revoke
				linksGroup.DELETE("/:linkId", shareLinkHandler.DeleteHandler)       // DELETE /api/v1/share-links/{linkId}
			}

			accountGroup := v1.Group("/auth")
			{
				accountGroup.POST("/change-password", loginHandler.ChangePasswordHandlerFunc)                  // POST /api/v1/auth/change-password
				accountGroup.GET("/2fa/setup", loginHandler.SetupTwoFactorHandlerFunc)                         // GET /api/v1/auth/2fa/setup
				accountGroup.POST("/2fa/enable", loginHandler.EnableTwoFactorHandlerFunc)                      // POST /api/v1/auth/2fa/enable
				accountGroup.POST("/2fa/disable", loginHandler.DisableTwoFactorHandlerFunc)                    // POST /api/v1/auth/2fa/disable
				accountGroup.GET("/2fa/backup-codes", loginHandler.BackupCodesHandlerFunc)                     // GET /api/v1/auth/2fa/backup-codes
				accountGroup.POST("/2fa/regenerate-backup-codes", loginHandler.RegenerateBackupCodesHandlerFunc) // POST /api/v1/auth/2fa/regenerate-backup-codes
			}

			v1.GET("/dashboard/storage", albumHandler.StorageStatsHandler) // GET /api/v1/dashboard/storage
		}
	}
}
