package objectclient

import (
	"context"
	"fmt"

	appcfg "github.com/markdave123-py/csrdesk/internal/config"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/logger"
)

// New picks the backend named by STORAGE_BACKEND.
func New(ctx context.Context, cfg *appcfg.Config, log *logger.Logger) (core.ObjectClient, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3Client(ctx, cfg, log)
	case "local":
		return NewLocalClient(cfg.StorageDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
