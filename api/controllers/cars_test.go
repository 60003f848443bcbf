package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
)

type carBody struct {
	ID    string          `json:"id"`
	Brand string          `json:"brand"`
	Price decimal.Decimal `json:"price"`
}

func TestCarsListParsesFilters(t *testing.T) {
	cat := newStubCatalog(priced("A", "Toyota", 500_000), priced("B", "BMW", 300_000), priced("C", "Toyota", 900_000))
	resp := httptest.NewRecorder()
	CarsList(cat, nil).ServeHTTP(resp, newRequest(http.MethodGet,
		"/api/v1/cars?brand=Toyota&minPrice=600000&sortBy=price&sortOrder=desc&page=1&limit=12", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if cat.lastFilters.Brand != "Toyota" || cat.lastFilters.SortBy != enums.CarSortPrice ||
		cat.lastFilters.SortOrder != enums.SortOrderDesc || cat.lastFilters.Limit != 12 {
		t.Fatalf("unexpected filters %+v", cat.lastFilters)
	}
	if cat.lastFilters.MinPrice == nil || !cat.lastFilters.MinPrice.Equal(decimal.NewFromInt(600_000)) {
		t.Fatalf("unexpected min price %v", cat.lastFilters.MinPrice)
	}
	body := decode[[]carBody](t, resp)
	if body.Count == nil || *body.Count != 1 || body.Data[0].ID != "C" {
		t.Fatalf("unexpected list %+v", body)
	}
}

func TestCarsListRejectsBadQuery(t *testing.T) {
	cat := newStubCatalog()
	for _, target := range []string{
		"/api/v1/cars?sortBy=color",
		"/api/v1/cars?sortOrder=up",
		"/api/v1/cars?limit=1000",
		"/api/v1/cars?minPrice=10&maxPrice=5",
		"/api/v1/cars?year=abc",
	} {
		resp := httptest.NewRecorder()
		CarsList(cat, nil).ServeHTTP(resp, newRequest(http.MethodGet, target, nil))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", target, resp.Code)
		}
	}
}

func TestCarDetail(t *testing.T) {
	cat := newStubCatalog(priced("A", "Toyota", 500_000))

	resp := httptest.NewRecorder()
	CarDetail(cat, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/cars/A", nil, "carId", "A"))
	if resp.Code != http.StatusOK || decode[carBody](t, resp).Data.Brand != "Toyota" {
		t.Fatalf("unexpected detail response %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	CarDetail(cat, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/cars/Z", nil, "carId", "Z"))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCarsByBrandAppliesPaging(t *testing.T) {
	cat := newStubCatalog(priced("A", "Toyota", 500_000), priced("B", "BMW", 300_000), priced("C", "Toyota", 900_000))
	resp := httptest.NewRecorder()
	CarsByBrand(cat, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/cars/brand/toyota?sortBy=price&limit=1", nil, "brand", "toyota"))
	body := decode[[]carBody](t, resp)
	if body.Count == nil || *body.Count != 2 || len(body.Data) != 1 || body.Data[0].ID != "A" {
		t.Fatalf("unexpected brand listing %+v", body)
	}
}

func TestCarsUpstreamFailure(t *testing.T) {
	cat := newStubCatalog()
	cat.err = pkgerrors.New(pkgerrors.CodeDependency, "catalog unreachable")

	for name, h := range map[string]http.HandlerFunc{
		"list":       CarsList(cat, nil),
		"available":  CarsAvailable(cat, nil),
		"statistics": CarStatistics(cat, nil),
	} {
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/cars", nil))
		if resp.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503 got %d", name, resp.Code)
		}
	}
}
