package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/metrics"
)

const carJSON = `{"id":"car-1","brand":"Toyota","model":"Camry","year":2022,"price":2500000,"mileage":15000,"fuelType":"petrol","transmission":"automatic","bodyType":"sedan","status":"available","images":["a.jpg"],"features":["abs"],"isNew":false,"isHit":true}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL+"/api", opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestGetCarDecodesEnvelope(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"success":true,"data":` + carJSON + `}`))
	})

	car, err := client.GetCar(context.Background(), "car-1")
	if err != nil {
		t.Fatalf("get car: %v", err)
	}
	if gotPath != "/api/cars/car-1" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if car.Brand != "Toyota" || !car.Price.Equal(decimal.NewFromInt(2500000)) || !car.IsHit {
		t.Fatalf("unexpected car %+v", car)
	}
}

func TestGetCarNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Car not found"}`))
	})

	_, err := client.GetCar(context.Background(), "missing")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if typed := pkgerrors.As(err); typed.Message() != "Car not found" {
		t.Fatalf("expected envelope message, got %q", typed.Message())
	}
}

func TestNon2xxSurfacesEnvelopeMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"error":{"message":"upstream down"}}`))
	})

	_, err := client.AvailableCars(context.Background())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if msg := pkgerrors.As(err).Message(); msg != "upstream down" {
		t.Fatalf("unexpected message %q", msg)
	}
	if dump := pkgerrors.Dump(err); dump.UpstreamStatus != http.StatusBadGateway {
		t.Fatalf("expected upstream status 502, got %d", dump.UpstreamStatus)
	}
}

func TestSuccessFalseIsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"bad filter"}`))
	})

	_, err := client.ListCars(context.Background(), Filters{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) || pkgerrors.As(err).Message() != "bad filter" {
		t.Fatalf("expected dependency error with message, got %v", err)
	}
}

func TestListCarsSendsFiltersAndReadsCount(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"success":true,"data":[` + carJSON + `],"count":42}`))
	})

	minPrice := decimal.NewFromInt(1000000)
	list, err := client.ListCars(context.Background(), Filters{
		Brand:     "Toyota",
		MinPrice:  &minPrice,
		SortBy:    "price",
		SortOrder: "desc",
		Page:      2,
		Limit:     12,
	})
	if err != nil {
		t.Fatalf("list cars: %v", err)
	}
	if gotQuery != "brand=Toyota&limit=12&minPrice=1000000&page=2&sortBy=price&sortOrder=desc" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if list.Count != 42 || len(list.Cars) != 1 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestListCarsCountDefaultsToLength(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[` + carJSON + `,` + carJSON + `]}`))
	})
	list, err := client.ListCars(context.Background(), Filters{})
	if err != nil {
		t.Fatalf("list cars: %v", err)
	}
	if list.Count != 2 {
		t.Fatalf("expected count 2, got %d", list.Count)
	}
}

func TestCarsByBrandEscapesPath(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	})
	cars, err := client.CarsByBrand(context.Background(), "Land Rover")
	if err != nil {
		t.Fatalf("cars by brand: %v", err)
	}
	if gotPath != "/api/cars/brand/Land%20Rover" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if cars == nil || len(cars) != 0 {
		t.Fatalf("expected empty slice, got %v", cars)
	}
}

func TestStatistics(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalCars":3,"availableCars":2,"averagePrice":1500000,"priceRange":{"min":1000000,"max":2000000},"brands":[{"brand":"BMW","count":3,"averagePrice":1500000}]}}`))
	})
	stats, err := client.Statistics(context.Background())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.TotalCars != 3 || len(stats.Brands) != 1 || !stats.PriceRange.Max.Equal(decimal.NewFromInt(2000000)) {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestTransportFailureIsDependency(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.GetCar(context.Background(), "car-1"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestBreakerOpensOnServerErrorsButNotOnNotFound(t *testing.T) {
	var calls atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	reg := prometheus.NewRegistry()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(int(status.Load()))
	}, WithMetrics(metrics.NewCatalogMetrics(reg)), WithBreaker(2, time.Minute, 0))

	for i := 0; i < 3; i++ {
		if _, err := client.GetCar(context.Background(), "x"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}

	status.Store(http.StatusInternalServerError)
	for i := 0; i < 2; i++ {
		_, _ = client.GetCar(context.Background(), "x")
	}
	before := calls.Load()

	_, err := client.GetCar(context.Background(), "x")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if calls.Load() != before {
		t.Fatalf("expected open breaker to short-circuit the request")
	}
	if calls.Load() != 5 {
		t.Fatalf("expected 5 upstream calls, got %d", calls.Load())
	}
}
