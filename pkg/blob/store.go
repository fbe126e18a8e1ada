package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is an append-only blob store. Keys are unique per upload, so a Put
// never overwrites an existing blob and concurrent uploads cannot collide.
type Store interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// RadiologyKey builds the storage key for an uploaded radiology image,
// unique per request and upload time.
func RadiologyKey(requestID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("radiology/ray_req%s_%s%s", requestID, time.Now().UTC().Format("20060102150405.000000000"), ext)
}

// FSStore stores blobs on the local filesystem under a root directory and
// serves paths relative to a public base path.
type FSStore struct {
	root     string
	basePath string
}

func NewFSStore(root, basePath string) *FSStore {
	return &FSStore{root: root, basePath: basePath}
}

func (s *FSStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	// O_EXCL enforces the append-only contract: a key is written at most once.
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create blob %s: %w", key, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", key, err)
	}

	return s.basePath + "/" + key, nil
}

func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, nil
}
