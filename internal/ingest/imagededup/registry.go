// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package imagededup

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Registry maps a content hash to the canonical file path that first
// produced it. The default implementation lives for a single run; the
// Redis-backed one persists across runs so a re-seed recognizes previously
// stored assets.
type Registry interface {
	// Canonical returns the canonical path for hash, if one is registered.
	Canonical(ctx context.Context, hash uint64) (string, bool, error)
	// SetCanonical registers path as the canonical file for hash.
	// The first registration wins; later calls for the same hash are no-ops.
	SetCanonical(ctx context.Context, hash uint64, path string) error
}

// # In-Memory Registry

// MemoryRegistry is the process-lifetime registry. Not safe for concurrent
// use; the download stage hashes files sequentially after each group completes.
type MemoryRegistry struct {
	canonical map[uint64]string
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{canonical: make(map[uint64]string)}
}

// Canonical implements [Registry].
func (r *MemoryRegistry) Canonical(_ context.Context, hash uint64) (string, bool, error) {
	path, ok := r.canonical[hash]
	return path, ok, nil
}

// SetCanonical implements [Registry].
func (r *MemoryRegistry) SetCanonical(_ context.Context, hash uint64, path string) error {
	if _, exists := r.canonical[hash]; !exists {
		r.canonical[hash] = path
	}
	return nil
}

// # Redis-Backed Registry

// redisKey is the hash field under which canonical paths are stored.
const redisKey = "seeder:image-hashes"

// RedisRegistry persists canonical paths in a Redis hash, making
// deduplication durable across seeding runs.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry wraps an established Redis client.
func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

// Canonical implements [Registry].
func (r *RedisRegistry) Canonical(ctx context.Context, hash uint64) (string, bool, error) {
	path, err := r.client.HGet(ctx, redisKey, field(hash)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("imagededup: redis lookup failed: %w", err)
	}
	return path, true, nil
}

// SetCanonical implements [Registry].
func (r *RedisRegistry) SetCanonical(ctx context.Context, hash uint64, path string) error {
	// HSETNX preserves first-wins semantics across concurrent runs.
	if err := r.client.HSetNX(ctx, redisKey, field(hash), path).Err(); err != nil {
		return fmt.Errorf("imagededup: redis store failed: %w", err)
	}
	return nil
}

// field renders a hash as a fixed-width hex Redis field name.
func field(hash uint64) string {
	return strconv.FormatUint(hash, 16)
}
