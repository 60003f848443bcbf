// Package localstore is the server-side stand-in for the browser's localStorage:
// a flat key-value space of serialized values, scoped per browser session.
package localstore

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("localstore: key not found")

// Well-known keys written by the storefront.
const (
	KeyCart      = "cart"
	KeyFavorites = "favorites"
	KeyCompare   = "compare"
)

// Store persists opaque values by key. Writes overwrite; there is no merge.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Keyspace builds session-scoped keys under a shared prefix.
type Keyspace struct {
	prefix string
}

func NewKeyspace(prefix string) Keyspace {
	return Keyspace{prefix: strings.TrimSpace(prefix)}
}

// Key returns "<prefix>:<session>:<name>", skipping empty parts.
func (k Keyspace) Key(session, name string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{k.prefix, session, name} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ":")
}
