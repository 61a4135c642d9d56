// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package fetch retrieves remote image assets with bounded concurrency.

Downloads run in fixed-size concurrent groups (default 10); each group is
awaited fully before the next begins, bounding the number of simultaneously
open connections. A single asset's failure — network error, disallowed
content type, oversized payload — never cancels its siblings: the failure is
recorded and the asset reference is substituted with a placeholder.

A shared token-bucket rate limiter spaces requests out so bulk seeding stays
polite to image hosts.
*/
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/taibuivan/yomira-seeder/internal/platform/apperr"
	"github.com/taibuivan/yomira-seeder/internal/platform/constants"
	"github.com/taibuivan/yomira-seeder/internal/storage/blob"
)

// Progress receives download progress events. The CLI renders them as a
// terminal progress bar; tests and library callers use [NopProgress].
type Progress interface {
	Start(label string, total int)
	Increment()
	Finish()
}

// NopProgress discards all progress events.
type NopProgress struct{}

func (NopProgress) Start(string, int) {}
func (NopProgress) Increment()        {}
func (NopProgress) Finish()           {}

// Request names one asset to download and the storage key to put it under.
type Request struct {
	URL string
	Key string
}

// Result is the outcome of a single download request.
type Result struct {
	Request Request
	// StoredKey is the storage key the caller should reference: the request's
	// own key on success, or the placeholder key on failure.
	StoredKey string
	// Placeholder is true when the asset could not be retrieved.
	Placeholder bool
	// Err is the recorded failure, nil on success.
	Err *apperr.AppError
}

// Options tunes a [Client]. Zero values fall back to the package defaults.
type Options struct {
	Timeout     time.Duration
	Concurrency int
	MaxBytes    int64
	RPS         float64
	Burst       int
}

// Client downloads image assets into a blob store.
type Client struct {
	http        *http.Client
	limiter     *rate.Limiter
	concurrency int
	maxBytes    int64
	logger      *slog.Logger
}

// NewClient builds a download client with the given options.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DownloadTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = constants.DefaultDownloadConcurrency
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = constants.MaxImageBytes
	}
	if opts.RPS <= 0 {
		opts.RPS = constants.DefaultDownloadRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = constants.DefaultDownloadBurst
	}

	return &Client{
		http:        &http.Client{Timeout: opts.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		concurrency: opts.Concurrency,
		maxBytes:    opts.MaxBytes,
		logger:      logger,
	}
}

// Download retrieves a single asset, validating the Content-Type and
// Content-Length headers before reading the body.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constants.AppName+"/"+constants.AppVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("disallowed content type %q", contentType)
	}
	if resp.ContentLength > c.maxBytes {
		return nil, fmt.Errorf("payload of %d bytes exceeds limit of %d", resp.ContentLength, c.maxBytes)
	}

	// Content-Length can lie (or be absent); enforce the cap on the body too.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("payload exceeds limit of %d bytes", c.maxBytes)
	}

	return body, nil
}

// FetchAll downloads every request into store, processing them in
// fixed-size concurrent groups. Results are returned in request order.
func (c *Client) FetchAll(ctx context.Context, store blob.Store, requests []Request, progress Progress) []Result {
	results := make([]Result, len(requests))

	progress.Start("downloading images", len(requests))
	defer progress.Finish()

	for start := 0; start < len(requests); start += c.concurrency {
		end := min(start+c.concurrency, len(requests))

		// One errgroup per chunk: the whole group is awaited before the next
		// starts. Workers always return nil so one failed asset cannot
		// cancel its siblings.
		var group errgroup.Group
		for i := start; i < end; i++ {
			i := i
			group.Go(func() error {
				results[i] = c.fetchOne(ctx, store, requests[i])
				progress.Increment()
				return nil
			})
		}
		_ = group.Wait()
	}

	return results
}

// fetchOne downloads and stores a single asset, substituting the placeholder
// reference on any failure.
func (c *Client) fetchOne(ctx context.Context, store blob.Store, req Request) Result {
	data, err := c.Download(ctx, req.URL)
	if err == nil {
		var storeErr error
		if _, storeErr = store.Upload(ctx, data, req.Key); storeErr == nil {
			return Result{Request: req, StoredKey: req.Key}
		}
		err = storeErr
	}

	c.logger.Warn("image_download_failed",
		slog.String("url", req.URL),
		slog.String("key", req.Key),
		slog.Any("error", err),
	)

	return Result{
		Request:     req,
		StoredKey:   constants.PlaceholderImagePath,
		Placeholder: true,
		Err:         apperr.Download(req.URL, err).With("key", req.Key),
	}
}
