package preferences

import (
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/autostore-backend/internal/catalog"
	"github.com/angelmondragon/autostore-backend/internal/localstore"
	"github.com/angelmondragon/autostore-backend/internal/notify"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
)

const (
	DefaultCompareLimit = 3

	defaultEnrichConcurrency = 8
	lockStripes              = 64
)

type carFetcher interface {
	GetCar(ctx context.Context, id string) (*catalog.Car, error)
}

// Toggle reports the membership of a car after a toggle.
type Toggle struct {
	CarID  string   `json:"carId"`
	Active bool     `json:"active"`
	IDs    []string `json:"ids"`
}

// Service manages the favorites and compare lists of a browser session.
type Service interface {
	Favorites(ctx context.Context, session string) ([]string, error)
	FavoriteCars(ctx context.Context, session string, filters catalog.Filters) (catalog.List, error)
	ToggleFavorite(ctx context.Context, session, carID string, notifier notify.Notifier) (Toggle, error)
	RemoveFavorite(ctx context.Context, session, carID string) ([]string, error)

	Compare(ctx context.Context, session string) ([]string, error)
	CompareCars(ctx context.Context, session string, filters catalog.Filters) (catalog.List, error)
	ToggleCompare(ctx context.Context, session, carID string, notifier notify.Notifier) (Toggle, error)
	RemoveCompare(ctx context.Context, session, carID string) ([]string, error)
	ClearCompare(ctx context.Context, session string) error
}

// ServiceParams groups dependencies for the preferences service.
type ServiceParams struct {
	Backend           localstore.Store
	Keyspace          localstore.Keyspace
	Catalog           carFetcher
	Logger            *logger.Logger
	CompareLimit      int
	EnrichConcurrency int
}

type service struct {
	favorites   idList
	compare     idList
	catalog     carFetcher
	logg        *logger.Logger
	concurrency int
	locks       [lockStripes]sync.Mutex
}

// NewService builds a preferences service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("local store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	limit := params.CompareLimit
	if limit <= 0 {
		limit = DefaultCompareLimit
	}
	svc := &service{
		favorites:   idList{backend: params.Backend, keyspace: params.Keyspace, name: localstore.KeyFavorites},
		compare:     idList{backend: params.Backend, keyspace: params.Keyspace, name: localstore.KeyCompare, limit: limit},
		catalog:     params.Catalog,
		logg:        params.Logger,
		concurrency: params.EnrichConcurrency,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.concurrency <= 0 {
		svc.concurrency = defaultEnrichConcurrency
	}
	return svc, nil
}

func (s *service) lock(session string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(session))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *service) Favorites(ctx context.Context, session string) ([]string, error) {
	return s.read(ctx, s.favorites, session)
}

func (s *service) FavoriteCars(ctx context.Context, session string, filters catalog.Filters) (catalog.List, error) {
	return s.cars(ctx, s.favorites, session, filters)
}

func (s *service) ToggleFavorite(ctx context.Context, session, carID string, notifier notify.Notifier) (Toggle, error) {
	return s.toggle(ctx, s.favorites, session, carID, orDiscard(notifier))
}

func (s *service) RemoveFavorite(ctx context.Context, session, carID string) ([]string, error) {
	return s.remove(ctx, s.favorites, session, carID)
}

func (s *service) Compare(ctx context.Context, session string) ([]string, error) {
	return s.read(ctx, s.compare, session)
}

func (s *service) CompareCars(ctx context.Context, session string, filters catalog.Filters) (catalog.List, error) {
	return s.cars(ctx, s.compare, session, filters)
}

func (s *service) ToggleCompare(ctx context.Context, session, carID string, notifier notify.Notifier) (Toggle, error) {
	return s.toggle(ctx, s.compare, session, carID, orDiscard(notifier))
}

func (s *service) RemoveCompare(ctx context.Context, session, carID string) ([]string, error) {
	return s.remove(ctx, s.compare, session, carID)
}

func (s *service) ClearCompare(ctx context.Context, session string) error {
	defer s.lock(session)()
	if err := s.compare.clear(ctx, session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear compare list")
	}
	return nil
}

func (s *service) read(ctx context.Context, list idList, session string) ([]string, error) {
	ids, err := list.load(ctx, session)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+list.name)
	}
	return ids, nil
}

// toggle adds carID when absent and removes it when present. Adding to a
// full list is rejected and leaves the list unchanged.
func (s *service) toggle(ctx context.Context, list idList, session, carID string, notifier notify.Notifier) (Toggle, error) {
	carID = strings.TrimSpace(carID)
	if carID == "" {
		return Toggle{}, pkgerrors.New(pkgerrors.CodeValidation, "car id is required")
	}

	defer s.lock(session)()
	ids, err := s.read(ctx, list, session)
	if err != nil {
		return Toggle{}, err
	}

	active := !slices.Contains(ids, carID)
	if active {
		if list.full(ids) {
			notifier.Failure(ctx, fmt.Sprintf("You can compare up to %d cars", list.limit))
			return Toggle{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s list is full", list.name).
				WithDetails(map[string]any{"limit": list.limit, "size": len(ids)})
		}
		ids = append(ids, carID)
	} else {
		ids = without(ids, carID)
	}

	if err := list.save(ctx, session, ids); err != nil {
		return Toggle{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save "+list.name)
	}
	return Toggle{CarID: carID, Active: active, IDs: ids}, nil
}

func (s *service) remove(ctx context.Context, list idList, session, carID string) ([]string, error) {
	defer s.lock(session)()
	ids, err := s.read(ctx, list, session)
	if err != nil {
		return nil, err
	}
	next := without(ids, strings.TrimSpace(carID))
	if len(next) == len(ids) {
		return ids, nil
	}
	if err := list.save(ctx, session, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save "+list.name)
	}
	return next, nil
}

// cars resolves every stored id through the catalog and applies filters in
// memory. Ids the catalog cannot resolve are logged and skipped.
func (s *service) cars(ctx context.Context, list idList, session string, filters catalog.Filters) (catalog.List, error) {
	ids, err := s.read(ctx, list, session)
	if err != nil {
		return catalog.List{}, err
	}

	resolved := make([]*catalog.Car, len(ids))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			car, err := s.catalog.GetCar(ctx, id)
			if err != nil {
				s.logg.WarnErr(s.logg.WithField(ctx, "car_id", id), list.name+".enrich_failed", err)
				return nil
			}
			resolved[i] = car
			return nil
		})
	}
	_ = g.Wait()

	cars := make([]catalog.Car, 0, len(ids))
	for _, car := range resolved {
		if car != nil {
			cars = append(cars, *car)
		}
	}
	return catalog.Apply(cars, filters), nil
}

func orDiscard(n notify.Notifier) notify.Notifier {
	if n == nil {
		return notify.Discard{}
	}
	return n
}
