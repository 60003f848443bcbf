package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/api/middleware"
	"github.com/angelmondragon/autostore-backend/internal/cart"
	"github.com/angelmondragon/autostore-backend/internal/catalog"
	"github.com/angelmondragon/autostore-backend/internal/localstore"
	"github.com/angelmondragon/autostore-backend/internal/notify"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
)

const testSession = "browser-1"

type stubCatalog struct {
	cars        map[string]catalog.Car
	err         error
	lastFilters catalog.Filters
}

func newStubCatalog(cars ...catalog.Car) *stubCatalog {
	s := &stubCatalog{cars: map[string]catalog.Car{}}
	for _, car := range cars {
		s.cars[car.ID] = car
	}
	return s
}

func (s *stubCatalog) all() []catalog.Car {
	out := make([]catalog.Car, 0, len(s.cars))
	for _, car := range s.cars {
		out = append(out, car)
	}
	return out
}

func (s *stubCatalog) ListCars(_ context.Context, filters catalog.Filters) (catalog.List, error) {
	s.lastFilters = filters
	if s.err != nil {
		return catalog.List{}, s.err
	}
	return catalog.Apply(s.all(), filters), nil
}

func (s *stubCatalog) GetCar(_ context.Context, id string) (*catalog.Car, error) {
	if s.err != nil {
		return nil, s.err
	}
	car, ok := s.cars[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "car not found")
	}
	return &car, nil
}

func (s *stubCatalog) CarsByBrand(_ context.Context, brand string) ([]catalog.Car, error) {
	var out []catalog.Car
	for _, car := range s.all() {
		if strings.EqualFold(car.Brand, brand) {
			out = append(out, car)
		}
	}
	return out, s.err
}

func (s *stubCatalog) AvailableCars(context.Context) ([]catalog.Car, error) {
	return s.all(), s.err
}

func (s *stubCatalog) Statistics(context.Context) (*catalog.Statistics, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.Statistics{TotalCars: len(s.cars)}, nil
}

func priced(id, brand string, price int64) catalog.Car {
	return catalog.Car{ID: id, Brand: brand, Price: decimal.NewFromInt(price)}
}

func newCartService(t *testing.T, cat *stubCatalog) cart.Service {
	t.Helper()
	svc, err := cart.NewService(cart.ServiceParams{
		Store:   cart.NewStore(localstore.NewMemory(), localstore.NewKeyspace("test")),
		Catalog: cat,
	})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	return svc
}

// newRequest builds a request scoped to testSession with optional chi URL params
// given as key/value pairs.
func newRequest(method, target string, body io.Reader, params ...string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := middleware.WithSessionID(req.Context(), testSession)
	if len(params) > 0 {
		rc := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rc.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	}
	return req.WithContext(ctx)
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Count   *int   `json:"count"`
	Message string `json:"message"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Notifications []notify.Notification `json:"notifications"`
}

func hasErrorNotification(notes []notify.Notification) bool {
	for _, n := range notes {
		if n.Level == notify.LevelError && n.Message != "" {
			return true
		}
	}
	return false
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}
