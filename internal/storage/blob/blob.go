// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob abstracts the storage backend that receives downloaded images.

The pipeline only ever uploads bytes and checks key existence; any conforming
provider (local filesystem, object storage, CDN) is interchangeable. The
local-filesystem provider in this package is the default, and the only one
that supports hard-link based deduplication.
*/
package blob

import "context"

// Store is the storage provider consumed by the pipeline.
type Store interface {
	// Upload persists data under key and returns the stored reference.
	Upload(ctx context.Context, data []byte, key string) (string, error)
	// Exists reports whether key already holds an object.
	Exists(ctx context.Context, key string) (bool, error)
}

// Localizer is implemented by providers whose objects are reachable as local
// files. Content deduplication via hard links is only possible for these.
type Localizer interface {
	// AbsPath maps a storage key to an absolute filesystem path.
	AbsPath(key string) string
}
