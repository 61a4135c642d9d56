// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/taibuivan/yomira-seeder/internal/ingest/fetch"
	"github.com/taibuivan/yomira-seeder/internal/ingest/report"
	"github.com/taibuivan/yomira-seeder/internal/storage/blob"
)

// fetchAndDedup downloads a batch of assets and content-deduplicates the
// stored files. Download failures are recovered per asset (the result holds
// the placeholder reference); deduplication failures leave the original
// file in place and are reported as warnings.
func (pc *Context) fetchAndDedup(ctx context.Context, phase *report.Phase, requests []fetch.Request) []fetch.Result {
	if len(requests) == 0 {
		return nil
	}

	results := pc.Fetcher.FetchAll(ctx, pc.Store, requests, pc.Progress)

	// Hard-link deduplication needs real files; object-storage providers
	// skip this pass.
	localizer, _ := pc.Store.(blob.Localizer)

	for i := range results {
		if results[i].Err != nil {
			phase.RecordError(results[i].Err)
			continue
		}
		if localizer == nil {
			continue
		}

		if _, _, err := pc.Images.Process(ctx, localizer.AbsPath(results[i].StoredKey)); err != nil {
			phase.RecordWarning("IMAGE_DEDUP_FAILED", err.Error(), map[string]any{
				"key": results[i].StoredKey,
			})
		}
	}

	return results
}

// imageExtensions are the extensions carried over from source URLs;
// anything else falls back to .jpg.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// imageKey derives the storage key for an asset: a caller-provided prefix
// plus the extension sniffed from the source URL.
func imageKey(prefix, rawURL string) string {
	ext := ".jpg"
	if u, err := url.Parse(rawURL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); imageExtensions[e] {
			ext = e
		}
	}
	return prefix + ext
}

// pageKey derives the storage key for the n-th page of an owner.
func pageKey(ownerPrefix string, ord int, rawURL string) string {
	return imageKey(fmt.Sprintf("%s/%03d", ownerPrefix, ord), rawURL)
}
