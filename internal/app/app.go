package app

import (
	"fmt"

	"github.com/nerith/photofold/cache"
	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/database"
	"github.com/nerith/photofold/database/repo/accounts"
	albumsrepo "github.com/nerith/photofold/database/repo/albums"
	photosrepo "github.com/nerith/photofold/database/repo/photos"
	"github.com/nerith/photofold/database/repo/sharelinks"
	albumssvc "github.com/nerith/photofold/internal/albums"
	"github.com/nerith/photofold/internal/auth"
	photossvc "github.com/nerith/photofold/internal/photos"
	sharesvc "github.com/nerith/photofold/internal/share"
	"github.com/nerith/photofold/storage"
	"github.com/nerith/photofold/utils"
)

// Container wires repositories, providers and domain services.
type Container struct {
	config          *config.Config
	databaseFactory *database.Factory
	cacheFactory    *cache.Factory
	storageProvider storage.Provider

	AccountsRepo   *accounts.Repository
	DevicesRepo    *accounts.DeviceRepository
	AlbumsRepo     *albumsrepo.Repository
	PhotosRepo     *photosrepo.Repository
	ShareLinksRepo *sharelinks.Repository

	JWTService   *auth.JWTService
	LoginService *auth.LoginService
	AlbumService *albumssvc.Service
	PhotoService *photossvc.Service
	ShareService *sharesvc.Service
}

// NewContainer creates an uninitialized container.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Init brings up database, cache, storage and services, in that order.
func (c *Container) Init() error {
	if err := c.InitDatabase(); err != nil {
		return err
	}
	if err := c.InitProviders(); err != nil {
		return err
	}
	if err := c.InitServices(); err != nil {
		return err
	}
	return nil
}

// InitDatabase creates the database factory and repositories.
func (c *Container) InitDatabase() error {
	utils.LogIfDev("Initializing DI container...")

	factory, err := database.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database factory: %w", err)
	}
	c.databaseFactory = factory

	db := factory.GetProvider().DB()
	c.AccountsRepo = accounts.NewRepository(db)
	c.DevicesRepo = accounts.NewDeviceRepository(db)
	c.AlbumsRepo = albumsrepo.NewRepository(db)
	c.PhotosRepo = photosrepo.NewRepository(db)
	c.ShareLinksRepo = sharelinks.NewRepository(db)

	utils.LogIfDev("Repositories initialized")
	return nil
}

// InitProviders creates the cache and storage backends.
func (c *Container) InitProviders() error {
	cacheFactory, err := cache.NewFactory(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	c.cacheFactory = cacheFactory

	storageProvider, err := storage.NewProvider(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.storageProvider = storageProvider

	// repositories exist before the cache does; attach the lookup cache now
	c.ShareLinksRepo = c.ShareLinksRepo.WithCache(c.cacheFactory)

	utils.LogIfDev("Cache and storage providers initialized")
	return nil
}

// InitServices wires the domain services.
func (c *Container) InitServices() error {
	jwtService, err := auth.NewJWTService(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	c.JWTService = jwtService
	c.LoginService = auth.NewLoginService(c.AccountsRepo, c.DevicesRepo, jwtService)

	c.AlbumService = albumssvc.NewService(c.AlbumsRepo, c.PhotosRepo, c.storageProvider)
	c.PhotoService = photossvc.NewService(c.PhotosRepo, c.AlbumsRepo, c.storageProvider)
	c.ShareService = sharesvc.NewService(
		c.ShareLinksRepo,
		c.AlbumsRepo,
		c.PhotosRepo,
		c.storageProvider,
		c.cacheFactory,
		c.config.ShareInfoTTL(),
	)

	utils.LogIfDev("Domain services initialized")
	return nil
}

// Config returns the loaded configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// DB returns the database factory.
func (c *Container) DB() *database.Factory {
	return c.databaseFactory
}

// Cache returns the cache factory.
func (c *Container) Cache() *cache.Factory {
	return c.cacheFactory
}

// Storage returns the storage provider.
func (c *Container) Storage() storage.Provider {
	return c.storageProvider
}

// Close releases all held resources.
func (c *Container) Close() error {
	var lastErr error
	if c.cacheFactory != nil {
		if err := c.cacheFactory.Close(); err != nil {
			lastErr = err
		}
	}
	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
