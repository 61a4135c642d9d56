// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-seeder/internal/storage/blob"
)

/*
TestLocalStore_UploadAndExists verifies the write path, nested key
directories, and existence checks.
*/
func TestLocalStore_UploadAndExists(t *testing.T) {
	store, err := blob.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	// 1. Nested keys create their directories.
	key, err := store.Upload(ctx, []byte("image-bytes"), "covers/hero-saga.jpg")
	require.NoError(t, err)
	assert.Equal(t, "covers/hero-saga.jpg", key)

	data, err := os.ReadFile(store.AbsPath(key))
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)

	// 2. Exists reflects reality.
	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "covers/unknown.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

/*
TestLocalStore_RejectsTraversal verifies that keys escaping the storage root
are refused.
*/
func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := blob.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name string
		key  string
	}{
		{"parent_escape", "../outside.jpg"},
		{"nested_escape", "covers/../../outside.jpg"},
		{"absolute_path", string(filepath.Separator) + "etc/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Upload(context.Background(), []byte("x"), tt.key)
			assert.Error(t, err)
		})
	}
}
