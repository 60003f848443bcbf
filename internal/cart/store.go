package cart

import (
	"context"

	"github.com/angelmondragon/autostore-backend/internal/localstore"
)

// Store persists each session's line items as one JSON array under the cart key.
type Store struct {
	backend  localstore.Store
	keyspace localstore.Keyspace
}

func NewStore(backend localstore.Store, keyspace localstore.Keyspace) *Store {
	return &Store{backend: backend, keyspace: keyspace}
}

func (s *Store) collection(session string) *localstore.Collection[LineItem] {
	return localstore.NewCollection[LineItem](s.backend, s.keyspace.Key(session, localstore.KeyCart))
}

// Load returns the stored items; empty when nothing or garbage is stored.
func (s *Store) Load(ctx context.Context, session string) ([]LineItem, error) {
	return s.collection(session).Load(ctx)
}

// Save overwrites the stored items. Car snapshots are dropped.
func (s *Store) Save(ctx context.Context, session string, items []LineItem) error {
	stripped := make([]LineItem, len(items))
	for i, item := range items {
		item.Car = nil
		stripped[i] = item
	}
	return s.collection(session).Save(ctx, stripped)
}

func (s *Store) Clear(ctx context.Context, session string) error {
	return s.collection(session).Clear(ctx)
}
