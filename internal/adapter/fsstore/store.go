// Package fsstore implements the artifact store port on the local
// filesystem. Artifacts land under a configured root directory with
// entity-scoped relative paths.
package fsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store writes artifacts under a root directory.
type Store struct {
	root string
}

// New creates a filesystem artifact store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &Store{root: dir}, nil
}

// SaveText writes content to path under the store root and returns the
// absolute location.
func (s *Store) SaveText(_ context.Context, path, content string) (string, error) {
	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	return full, nil
}

// SaveJSON marshals data with indentation and writes it to path.
func (s *Store) SaveJSON(ctx context.Context, path string, data any) (string, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal artifact %s: %w", path, err)
	}
	return s.SaveText(ctx, path, string(raw))
}

// resolve joins path with the root and rejects escapes above it.
func (s *Store) resolve(path string) (string, error) {
	full := filepath.Join(s.root, path)
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("artifact path %q escapes store root", path)
	}
	return full, nil
}
