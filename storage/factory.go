package storage

import (
	"fmt"

	"github.com/nerith/photofold/config"
)

// NewProvider builds the storage backend selected by storage_type.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.StorageType {
	case "", "local":
		return NewLocalStorage(cfg.StorageLocalPath)
	case "minio":
		return NewMinioStorage(cfg)
	case "webdav":
		return NewWebDAVStorage(WebDAVConfig{
			URL:      cfg.WebDAVURL,
			Username: cfg.WebDAVUsername,
			Password: cfg.WebDAVPassword,
			RootPath: cfg.WebDAVRootPath,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}
