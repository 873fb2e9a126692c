package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// WebDAVStorage stores objects on a remote WebDAV share.
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

// WebDAVConfig holds WebDAV connection settings.
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
}

// NewWebDAVStorage connects to the server and verifies the root directory is
// listable.
func NewWebDAVStorage(cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	rootPath := strings.Trim(cfg.RootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := &WebDAVStorage{
		client:   client,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		rootPath: rootPath,
	}
	if err := s.Health(ctx); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}

	return s, nil
}

// fullPath maps an identifier onto the remote share.
func (s *WebDAVStorage) fullPath(identifier string) string {
	identifier = strings.TrimLeft(identifier, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + identifier
	}
	return "/" + identifier
}

// run executes fn on a goroutine so the gowebdav client, which takes no
// context, can still be cancelled.
func (s *WebDAVStorage) run(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// SaveWithContext writes the file to the share, creating the root if needed.
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, identifier string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file content: %w", err)
	}

	fullPath := s.fullPath(identifier)

	if s.rootPath != "" {
		err := s.run(ctx, func() error {
			return s.client.MkdirAll(s.rootPath, os.FileMode(0755))
		})
		if err != nil {
			return fmt.Errorf("failed to ensure root directory: %w", err)
		}
	}

	err = s.run(ctx, func() error {
		return s.client.Write(fullPath, data, 0644)
	})
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", identifier, err)
	}
	return nil
}

// GetWithContext reads the stored file into memory.
func (s *WebDAVStorage) GetWithContext(ctx context.Context, identifier string) (io.ReadSeeker, error) {
	fullPath := s.fullPath(identifier)

	var data []byte
	err := s.run(ctx, func() error {
		var readErr error
		data, readErr = s.client.Read(fullPath)
		return readErr
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to read file %s: %w", identifier, err)
	}

	return bytes.NewReader(data), nil
}

// DeleteWithContext removes the stored file.
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, identifier string) error {
	fullPath := s.fullPath(identifier)
	return s.run(ctx, func() error {
		return s.client.Remove(fullPath)
	})
}

// Exists reports whether the identifier has a stored object.
func (s *WebDAVStorage) Exists(ctx context.Context, identifier string) (bool, error) {
	fullPath := s.fullPath(identifier)

	var exists bool
	err := s.run(ctx, func() error {
		_, statErr := s.client.Stat(fullPath)
		if statErr == nil {
			exists = true
			return nil
		}
		if gowebdav.IsErrNotFound(statErr) {
			return nil
		}
		return statErr
	})
	return exists, err
}

// Health verifies the root directory is listable.
func (s *WebDAVStorage) Health(ctx context.Context) error {
	root := s.rootPath
	if root == "" {
		root = "/"
	}
	return s.run(ctx, func() error {
		_, err := s.client.ReadDir(root)
		return err
	})
}

// Name returns the storage name.
func (s *WebDAVStorage) Name() string {
	return fmt.Sprintf("webdav:%s%s", s.baseURL, s.rootPath)
}
