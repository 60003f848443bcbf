package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/autostore-backend/api/responses"
	"github.com/angelmondragon/autostore-backend/api/validators"
	"github.com/angelmondragon/autostore-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
)

// CarCatalog is the read surface of the catalog client.
type CarCatalog interface {
	ListCars(ctx context.Context, filters catalog.Filters) (catalog.List, error)
	GetCar(ctx context.Context, id string) (*catalog.Car, error)
	CarsByBrand(ctx context.Context, brand string) ([]catalog.Car, error)
	AvailableCars(ctx context.Context) ([]catalog.Car, error)
	Statistics(ctx context.Context) (*catalog.Statistics, error)
}

// CarsList proxies the filtered catalog listing.
func CarsList(svc CarCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		filters, err := validators.ParseCarFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListCars(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list.Cars, list.Count)
	}
}

func CarDetail(svc CarCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		carID := strings.TrimSpace(chi.URLParam(r, "carId"))
		if carID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "car id is required"))
			return
		}
		car, err := svc.GetCar(r.Context(), carID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, car)
	}
}

// CarsByBrand lists a brand, optionally narrowed and paged in memory with the
// regular filter parameters.
func CarsByBrand(svc CarCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		brand := strings.TrimSpace(chi.URLParam(r, "brand"))
		if brand == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "brand is required"))
			return
		}
		filters, err := validators.ParseCarFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cars, err := svc.CarsByBrand(r.Context(), brand)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list := catalog.Apply(cars, filters)
		responses.WriteList(w, list.Cars, list.Count)
	}
}

func CarsAvailable(svc CarCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		filters, err := validators.ParseCarFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cars, err := svc.AvailableCars(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list := catalog.Apply(cars, filters)
		responses.WriteList(w, list.Cars, list.Count)
	}
}

func CarStatistics(svc CarCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
			return
		}
		stats, err := svc.Statistics(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
