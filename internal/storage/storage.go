package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
)

// FileStore keeps the uploaded documents addressed by an opaque key.
type FileStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	// Read returns common.ErrNotFound (wrapped) when the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)
	// Delete is idempotent; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Name() string
}

// New builds the FileStore selected by cfg.Backend.
func New(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case "", "local":
		s, err := NewLocal(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready", "backend", s.Name(), "dir", cfg.LocalDir)
		return s, nil
	case "s3":
		s, err := NewS3(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready", "backend", s.Name(), "bucket", cfg.Bucket)
		return s, nil
	case "minio":
		s, err := NewMinio(cfg)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("storage ready", "backend", s.Name(), "bucket", cfg.Bucket, "endpoint", cfg.Endpoint)
		return s, nil
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown storage backend %q", cfg.Backend), common.ErrInvalidInput)
	}
}

// cleanKey rejects keys that are empty, absolute or escape the store root.
func cleanKey(key string) (string, error) {
	k := strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if k == "" {
		return "", fmt.Errorf("empty storage key: %w", common.ErrInvalidInput)
	}
	k = path.Clean(k)
	if strings.HasPrefix(k, "/") || k == ".." || strings.HasPrefix(k, "../") {
		return "", fmt.Errorf("storage key %q escapes root: %w", key, common.ErrInvalidInput)
	}
	return k, nil
}
