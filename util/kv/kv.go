// Package kv is the persistent key-value substrate under the origin store and
// the name cache. Values are opaque bytes; there are no transactions and no
// schema beyond the key prefixes chosen by callers.
package kv

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("kv: store is closed")

// Store is a flat key-value store.
//
// GetMany reads several keys in one round trip. Keys that don't exist are
// absent from the returned map.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

const (
	BackendFile   = "file"
	BackendBadger = "badger"
)
