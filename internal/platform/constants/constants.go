// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the seeder.

It defines default batch sizes, concurrency bounds, and cross-cutting limits
that are shared between different stages of the ingestion pipeline.

Categories:

  - Batching: Chunk sizes for upserts and download groups.
  - Deduplication: Similarity thresholds for fuzzy matching.
  - Network: Timeouts and payload limits for remote image fetches.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the pipeline logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "yomira-seeder"
	AppVersion = "0.1.0-dev"
)

// # Batching

const (
	// DefaultBatchSize is the number of records written per upsert statement.
	DefaultBatchSize = 100

	// DefaultDownloadConcurrency is the size of each concurrent download group.
	// Groups are awaited fully before the next group starts, bounding the
	// number of simultaneously open connections.
	DefaultDownloadConcurrency = 10
)

// # Deduplication

const (
	// DefaultFuzzyThreshold is the minimum title similarity (percent) at
	// which two records are reported as probable duplicates.
	DefaultFuzzyThreshold = 90.0
)

// # Network

const (
	// DownloadTimeout is the deadline for a single remote image fetch.
	DownloadTimeout = 30 * time.Second

	// MaxImageBytes is the largest acceptable image payload. Anything bigger
	// is rejected before the body is read in full.
	MaxImageBytes = 10 << 20 // 10 MiB

	// DefaultDownloadRPS is the request rate allowed against image hosts.
	DefaultDownloadRPS = 25.0

	// DefaultDownloadBurst is the burst capacity of the download rate limiter.
	DefaultDownloadBurst = 10
)

// # Storage

const (
	// PlaceholderImagePath is the storage key substituted for assets that
	// could not be downloaded. The file is provisioned out-of-band.
	PlaceholderImagePath = "placeholder/cover.jpg"
)
