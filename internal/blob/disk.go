package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStorage stores blobs under a local directory and addresses them with
// /media/... URLs, the same layout the image variants use on the serving
// side.
type DiskStorage struct {
	root string
}

// NewDiskStorage creates the root directory if needed.
func NewDiskStorage(root string) (*DiskStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &DiskStorage{root: root}, nil
}

func (s *DiskStorage) Upload(ctx context.Context, ownerID, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, ownerID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create owner directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return "/media/" + ownerID + "/" + filepath.Base(name), nil
}

func (s *DiskStorage) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, ok := strings.CutPrefix(url, "/media/")
	if !ok {
		return fmt.Errorf("not a managed blob url: %s", url)
	}
	path := filepath.Join(s.root, filepath.FromSlash(rel))
	if !strings.HasPrefix(path, s.root) {
		return fmt.Errorf("blob url escapes storage root: %s", url)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
