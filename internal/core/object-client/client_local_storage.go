package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/markdave123-py/csrdesk/internal/core"
)

var _ core.ObjectClient = (*LocalClient)(nil)

// LocalClient stores objects as files under root/bucket/key.
type LocalClient struct {
	root string
}

func NewLocalClient(root string) (*LocalClient, error) {
	if root == "" {
		return nil, fmt.Errorf("storage dir not set")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalClient{root: root}, nil
}

func (c *LocalClient) path(bucket, key string) (string, error) {
	clean := filepath.Clean(filepath.Join(c.root, bucket, filepath.FromSlash(key)))
	rootClean := filepath.Clean(c.root)
	if clean == rootClean || !strings.HasPrefix(clean, rootClean+string(os.PathSeparator)) {
		return "", fmt.Errorf("key %q escapes storage root", key)
	}
	return clean, nil
}

// UploadFile writes the bytes and returns a file:// URL.
func (c *LocalClient) UploadFile(ctx context.Context, bucket, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := c.path(bucket, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return "file://" + filepath.ToSlash(p), nil
}

// DeleteFile is a no-op for missing objects.
func (c *LocalClient) DeleteFile(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := c.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (c *LocalClient) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := c.path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}
