package localstore

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection is a JSON-encoded sequence stored whole under one key.
type Collection[T any] struct {
	store Store
	key   string
}

func NewCollection[T any](store Store, key string) *Collection[T] {
	return &Collection[T]{store: store, key: key}
}

// Load returns the stored sequence. A missing key or an undecodable value
// yields an empty sequence; only backend failures are returned as errors.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	raw, err := c.store.Get(ctx, c.key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return []T{}, nil
	}
	return items, nil
}

// Save overwrites the stored sequence.
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.key, raw)
}

// Clear removes the stored sequence entirely.
func (c *Collection[T]) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, c.key)
}
