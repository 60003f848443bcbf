package preferences

import (
	"context"
	"slices"

	"github.com/angelmondragon/autostore-backend/internal/localstore"
)

// idList is an ordered set of car ids stored under one key per session.
// A limit of zero means unbounded.
type idList struct {
	backend  localstore.Store
	keyspace localstore.Keyspace
	name     string
	limit    int
}

func (l idList) collection(session string) *localstore.Collection[string] {
	return localstore.NewCollection[string](l.backend, l.keyspace.Key(session, l.name))
}

func (l idList) load(ctx context.Context, session string) ([]string, error) {
	return l.collection(session).Load(ctx)
}

func (l idList) save(ctx context.Context, session string, ids []string) error {
	return l.collection(session).Save(ctx, ids)
}

func (l idList) clear(ctx context.Context, session string) error {
	return l.collection(session).Clear(ctx)
}

func (l idList) full(ids []string) bool {
	return l.limit > 0 && len(ids) >= l.limit
}

func without(ids []string, carID string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == carID })
}
