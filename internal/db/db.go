// Package db defines the storage facade the repositories are built on.
package db

import (
	"context"
	"time"
)

// Store is the database facade combining all sub-interfaces. Consumers
// declare the narrow sub-interface they actually use.
type Store interface {
	Pinger
	HashStore
	SetStore
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based entity operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SetStore provides relationship-set operations (memberships, assignments,
// attachment indexes).
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SMembersMulti(ctx context.Context, keys []string) ([][]string, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)
}

// KVStore provides simple key-value operations (session tokens, counters).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, key string) error
}
