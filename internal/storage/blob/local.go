// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore persists objects as plain files under a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed and returns the store.
func NewLocalStore(root string) (*LocalStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("blob: resolving storage root: %w", err)
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("blob: creating storage root: %w", err)
	}
	return &LocalStore{root: absRoot}, nil
}

// Upload implements [Store]. Keys use forward slashes regardless of OS.
func (s *LocalStore) Upload(_ context.Context, data []byte, key string) (string, error) {
	path, err := s.safePath(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("blob: creating directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blob: writing %s: %w", key, err)
	}

	return key, nil
}

// Exists implements [Store].
func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.safePath(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("blob: stat %s: %w", key, err)
	}
	return true, nil
}

// AbsPath implements [Localizer].
func (s *LocalStore) AbsPath(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// safePath resolves a key inside the root, rejecting traversal attempts.
func (s *LocalStore) safePath(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("blob: key %q escapes the storage root", key)
	}
	return filepath.Join(s.root, cleaned), nil
}
