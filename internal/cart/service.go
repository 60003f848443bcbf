package cart

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/autostore-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
	"github.com/angelmondragon/autostore-backend/pkg/metrics"
)

const (
	defaultEnrichConcurrency = 8
	lockStripes              = 64
)

type carFetcher interface {
	GetCar(ctx context.Context, id string) (*catalog.Car, error)
}

// Service is the only writer of the cart store. Every method is scoped to one
// browser session.
type Service interface {
	GetItems(ctx context.Context, session string) ([]LineItem, error)
	AddItem(ctx context.Context, session, carID string, opts AddOptions) (LineItem, error)
	UpdateItem(ctx context.Context, session, itemID string, patch ItemPatch) (LineItem, error)
	RemoveItem(ctx context.Context, session, itemID string) error
	Clear(ctx context.Context, session string) error
	GetTotal(ctx context.Context, session string) (decimal.Decimal, error)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Store             *Store
	Catalog           carFetcher
	Logger            *logger.Logger
	Metrics           *metrics.CartMetrics
	GuestUserID       string
	EnrichConcurrency int
	Now               func() time.Time
	NewID             func() string
}

type service struct {
	store       *Store
	catalog     carFetcher
	logg        *logger.Logger
	metrics     *metrics.CartMetrics
	guestUserID string
	concurrency int
	now         func() time.Time
	newID       func() string
	locks       [lockStripes]sync.Mutex
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	svc := &service{
		store:       params.Store,
		catalog:     params.Catalog,
		logg:        params.Logger,
		metrics:     params.Metrics,
		guestUserID: params.GuestUserID,
		concurrency: params.EnrichConcurrency,
		now:         params.Now,
		newID:       params.NewID,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.concurrency <= 0 {
		svc.concurrency = defaultEnrichConcurrency
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newID == nil {
		svc.newID = uuid.NewString
	}
	return svc, nil
}

// lock serializes read-modify-write cycles of one session.
func (s *service) lock(session string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(session))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// GetItems loads the cart and attaches live catalog data to each item. A
// failed lookup is logged and leaves that item unresolved.
func (s *service) GetItems(ctx context.Context, session string) ([]LineItem, error) {
	items, err := s.store.Load(ctx, session)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range items {
		g.Go(func() error {
			items[i].Car = s.resolve(ctx, items[i].CarID)
			return nil
		})
	}
	_ = g.Wait()
	return items, nil
}

func (s *service) resolve(ctx context.Context, carID string) *catalog.Car {
	car, err := s.catalog.GetCar(ctx, carID)
	if err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "car_id", carID), "cart.enrich_failed", err)
		return nil
	}
	return car
}

func (s *service) AddItem(ctx context.Context, session, carID string, opts AddOptions) (item LineItem, err error) {
	defer func() { s.metrics.Observe("add", err) }()

	carID = strings.TrimSpace(carID)
	if carID == "" {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "car id is required")
	}
	if opts.Quantity != nil && *opts.Quantity < 1 {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	unlock := s.lock(session)
	items, err := s.store.Load(ctx, session)
	if err != nil {
		unlock()
		return LineItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	for _, existing := range items {
		if existing.CarID == carID {
			unlock()
			return LineItem{}, pkgerrors.New(pkgerrors.CodeConflict, "car is already in the cart")
		}
	}

	item = LineItem{
		ID:       s.newID(),
		UserID:   s.guestUserID,
		CarID:    carID,
		Quantity: 1,
		AddedAt:  s.now().UTC(),
	}
	if opts.Quantity != nil {
		item.Quantity = *opts.Quantity
	}
	if opts.Notes != nil {
		item.Notes = *opts.Notes
	}
	if opts.Financing != nil {
		financing := *opts.Financing
		item.Financing = &financing
	}

	err = s.store.Save(ctx, session, append(items, item))
	unlock()
	if err != nil {
		return LineItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}

	item.Car = s.resolve(ctx, carID)
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, session, itemID string, patch ItemPatch) (item LineItem, err error) {
	defer func() { s.metrics.Observe("update", err) }()

	if patch.Quantity != nil && *patch.Quantity < 1 {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	unlock := s.lock(session)
	defer unlock()

	items, err := s.store.Load(ctx, session)
	if err != nil {
		return LineItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	idx := indexOf(items, itemID)
	if idx < 0 {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if patch.Quantity != nil {
		items[idx].Quantity = *patch.Quantity
	}
	if patch.Notes != nil {
		items[idx].Notes = *patch.Notes
	}
	if patch.Financing != nil {
		financing := *patch.Financing
		items[idx].Financing = &financing
	}

	if err := s.store.Save(ctx, session, items); err != nil {
		return LineItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return items[idx], nil
}

// RemoveItem deletes one item; removing an absent item succeeds.
func (s *service) RemoveItem(ctx context.Context, session, itemID string) (err error) {
	defer func() { s.metrics.Observe("remove", err) }()

	unlock := s.lock(session)
	defer unlock()

	items, err := s.store.Load(ctx, session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	kept := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	if err := s.store.Save(ctx, session, kept); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, session string) (err error) {
	defer func() { s.metrics.Observe("clear", err) }()

	unlock := s.lock(session)
	defer unlock()

	if err := s.store.Clear(ctx, session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// GetTotal sums resolved prices times quantities.
func (s *service) GetTotal(ctx context.Context, session string) (decimal.Decimal, error) {
	items, err := s.GetItems(ctx, session)
	if err != nil {
		return decimal.Zero, err
	}
	return Total(items), nil
}

func indexOf(items []LineItem, itemID string) int {
	for i, item := range items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}
