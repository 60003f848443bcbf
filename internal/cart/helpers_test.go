package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/internal/catalog"
	"github.com/angelmondragon/autostore-backend/internal/localstore"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
)

type stubCatalog struct {
	mu    sync.Mutex
	cars  map[string]catalog.Car
	calls int
}

func newStubCatalog(cars ...catalog.Car) *stubCatalog {
	c := &stubCatalog{cars: map[string]catalog.Car{}}
	for _, car := range cars {
		c.cars[car.ID] = car
	}
	return c
}

func (c *stubCatalog) GetCar(_ context.Context, id string) (*catalog.Car, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	car, ok := c.cars[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog unreachable")
	}
	return &car, nil
}

func car(id string, price int64) catalog.Car {
	return catalog.Car{ID: id, Brand: "Brand " + id, Price: decimal.NewFromInt(price)}
}

type fixture struct {
	svc     Service
	store   *Store
	backend *localstore.Memory
	catalog *stubCatalog
}

func newFixture(t *testing.T, cars ...catalog.Car) fixture {
	t.Helper()
	backend := localstore.NewMemory()
	store := NewStore(backend, localstore.NewKeyspace("test"))
	cat := newStubCatalog(cars...)
	seq := 0
	var mu sync.Mutex
	svc, err := NewService(ServiceParams{
		Store:       store,
		Catalog:     cat,
		GuestUserID: "guest",
		Now:         func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) },
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("item-%d", seq)
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return fixture{svc: svc, store: store, backend: backend, catalog: cat}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
