// Package storage persists recipe images and maps stored keys to public URLs.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"foodgram/internal/config"
)

type Store interface {
	// Save writes data under folder/fileName and returns the object key.
	Save(ctx context.Context, folder, fileName string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	// KeyFromURL reverses PublicURL; it returns "" for URLs this store did not issue.
	KeyFromURL(url string) string
	Backend() string
}

// New builds the store selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PublicURL:       cfg.S3PublicURL,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
	case "", "local":
		return NewLocal(cfg.MediaRoot, cfg.MediaURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// LocalStore writes under Root and serves files from BaseURL.
type LocalStore struct {
	Root    string
	BaseURL string
}

func NewLocal(root, baseURL string) *LocalStore {
	if baseURL == "" {
		baseURL = "/media/"
	}
	return &LocalStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/") + "/"}
}

func (s *LocalStore) Save(_ context.Context, folder, fileName string, data []byte, _ string) (string, error) {
	key := path.Join(folder, fileName)
	full := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return key, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete media file: %w", err)
	}
	return nil
}

func (s *LocalStore) PublicURL(key string) string { return s.BaseURL + key }

func (s *LocalStore) KeyFromURL(url string) string {
	if !strings.HasPrefix(url, s.BaseURL) {
		return ""
	}
	return strings.TrimPrefix(url, s.BaseURL)
}

func (s *LocalStore) Backend() string { return "local" }
