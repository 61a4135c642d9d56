// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package imagededup deduplicates downloaded binary assets by content.

Every file is identified by a fast 64-bit xxHash of its bytes — collision
risk is acceptable for storage deduplication, this is not a security
boundary. The first file to produce a given hash becomes canonical; later
files with the same content are deleted and replaced by a hard link to the
canonical file (or a full copy where linking is unsupported), so the path
originally requested still resolves to valid image bytes.

# Lifecycle

A [Deduper] is an explicit per-run object, not package-level state: create
one per pipeline run (tests included) and discard it afterwards. Only the
optional Redis-backed [Registry] carries knowledge between runs.
*/
package imagededup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Deduper computes content hashes and redirects duplicate files to their
// canonical copy.
type Deduper struct {
	registry Registry
	logger   *slog.Logger

	// pathHash caches file-path → hash so a path seen twice in one run is
	// never re-hashed.
	pathHash map[string]uint64
	// localCanonical mirrors the hashes this run registered or confirmed,
	// so statistics never require re-walking the filesystem (or Redis).
	localCanonical map[uint64]string

	duplicates int
	bytesSaved int64
}

// New creates a per-run deduper backed by the given registry.
func New(registry Registry, logger *slog.Logger) *Deduper {
	return &Deduper{
		registry:       registry,
		logger:         logger,
		pathHash:       make(map[string]uint64),
		localCanonical: make(map[uint64]string),
	}
}

// Identify computes the 64-bit content hash of the file at path, consulting
// the per-run cache first.
func (d *Deduper) Identify(path string) (uint64, error) {
	if hash, ok := d.pathHash[path]; ok {
		return hash, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("imagededup: opening %s: %w", path, err)
	}
	defer file.Close()

	digest := xxhash.New()
	if _, err := io.Copy(digest, file); err != nil {
		return 0, fmt.Errorf("imagededup: hashing %s: %w", path, err)
	}

	hash := digest.Sum64()
	d.pathHash[path] = hash
	return hash, nil
}

// FindCanonical returns the canonical path registered for hash, if any.
func (d *Deduper) FindCanonical(ctx context.Context, hash uint64) (string, bool, error) {
	return d.registry.Canonical(ctx, hash)
}

// Process hashes the file at path and deduplicates it against the registry.
//
// If the content is new, path becomes the canonical file for its hash and is
// returned unchanged. If the content already has a canonical file elsewhere,
// the file at path is deleted and replaced with a link to the canonical copy;
// either way the returned path resolves to valid image bytes.
func (d *Deduper) Process(ctx context.Context, path string) (canonical string, deduplicated bool, err error) {
	hash, err := d.Identify(path)
	if err != nil {
		return "", false, err
	}

	existing, found, err := d.FindCanonical(ctx, hash)
	if err != nil {
		return "", false, err
	}

	if !found || existing == path {
		if err := d.registry.SetCanonical(ctx, hash, path); err != nil {
			return "", false, err
		}
		d.localCanonical[hash] = path
		return path, false, nil
	}

	// Same content, different file: redirect path to the canonical copy. The
	// replacement is staged beside the duplicate and renamed over it only once
	// the canonical bytes are confirmed reachable, so a stale registry entry
	// (a durable registry outliving a storage prune) never destroys the file
	// that was just written.
	info, err := os.Stat(path)
	if err != nil {
		return "", false, fmt.Errorf("imagededup: stat %s: %w", path, err)
	}
	size := info.Size()

	staged := path + ".canonical"
	if err := os.Link(existing, staged); err != nil {
		// Linking is unsupported on some filesystems; fall back to a copy so
		// the requested path still resolves.
		if copyErr := copyFile(existing, staged); copyErr != nil {
			os.Remove(staged)
			return "", false, fmt.Errorf("imagededup: linking %s -> %s: %w (copy fallback: %v)", path, existing, err, copyErr)
		}
		size = 0 // a full copy saves nothing
	}
	if err := os.Rename(staged, path); err != nil {
		os.Remove(staged)
		return "", false, fmt.Errorf("imagededup: replacing duplicate %s: %w", path, err)
	}

	d.localCanonical[hash] = existing
	d.duplicates++
	d.bytesSaved += size

	d.logger.Debug("image_deduplicated",
		slog.String("path", path),
		slog.String("canonical", existing),
		slog.Int64("bytes_saved", size),
	)

	return existing, true, nil
}

// # Statistics

// Stats summarizes the deduper's work so far.
type Stats struct {
	Hashed     int   `json:"hashed"`      // files hashed this run
	Unique     int   `json:"unique"`      // distinct content hashes seen
	Duplicates int   `json:"duplicates"`  // files redirected to a canonical copy
	BytesSaved int64 `json:"bytes_saved"` // bytes not stored twice
}

// Stats aggregates the in-memory maps; it never touches the filesystem.
func (d *Deduper) Stats() Stats {
	return Stats{
		Hashed:     len(d.pathHash),
		Unique:     len(d.localCanonical),
		Duplicates: d.duplicates,
		BytesSaved: d.bytesSaved,
	}
}

// copyFile duplicates src to dst, preserving contents only.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
