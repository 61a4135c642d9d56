// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package fetch_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-seeder/internal/ingest/fetch"
	"github.com/taibuivan/yomira-seeder/internal/platform/constants"
	"github.com/taibuivan/yomira-seeder/internal/storage/blob"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// imageServer serves a small fake image plus a set of failure endpoints.
func imageServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not an image</html>"))
	})
	mux.HandleFunc("/huge.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte(strings.Repeat("x", 2048)))
	})
	mux.HandleFunc("/missing.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

/*
TestClient_Download verifies header validation on the single-asset path.
*/
func TestClient_Download(t *testing.T) {
	server := imageServer()
	defer server.Close()

	client := fetch.NewClient(fetch.Options{MaxBytes: 1024}, testLogger())
	ctx := context.Background()

	// 1. A well-formed image downloads.
	data, err := client.Download(ctx, server.URL+"/ok.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	// 2. Non-image content types are rejected.
	_, err = client.Download(ctx, server.URL+"/page.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content type")

	// 3. Oversized payloads are rejected.
	_, err = client.Download(ctx, server.URL+"/huge.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")

	// 4. Non-200 responses are rejected.
	_, err = client.Download(ctx, server.URL+"/missing.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}

/*
TestClient_FetchAll verifies the batch path: successes are stored under their
requested keys, failures substitute the placeholder and carry a recorded
error, and results come back in request order.
*/
func TestClient_FetchAll(t *testing.T) {
	server := imageServer()
	defer server.Close()

	store, err := blob.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	client := fetch.NewClient(fetch.Options{MaxBytes: 1024, Concurrency: 2}, testLogger())

	requests := []fetch.Request{
		{URL: server.URL + "/ok.jpg", Key: "covers/a.jpg"},
		{URL: server.URL + "/page.html", Key: "covers/b.jpg"},
		{URL: server.URL + "/ok.jpg", Key: "covers/c.jpg"},
	}

	results := client.FetchAll(context.Background(), store, requests, fetch.NopProgress{})
	require.Len(t, results, 3)

	// 1. Successful downloads keep their requested keys and are stored.
	assert.Equal(t, "covers/a.jpg", results[0].StoredKey)
	assert.False(t, results[0].Placeholder)
	assert.Nil(t, results[0].Err)
	ok, err := store.Exists(context.Background(), "covers/a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	// 2. The failed asset degrades to the placeholder with a recorded error;
	// its siblings are unaffected.
	assert.Equal(t, constants.PlaceholderImagePath, results[1].StoredKey)
	assert.True(t, results[1].Placeholder)
	require.NotNil(t, results[1].Err)
	assert.Equal(t, "DOWNLOAD_ERROR", results[1].Err.Code)

	assert.Equal(t, "covers/c.jpg", results[2].StoredKey)
	assert.Nil(t, results[2].Err)
}
