package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/internal/catalog"
	"github.com/angelmondragon/autostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/pagination"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

func ParseQueryFloat(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

func ParseQueryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a number").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseCarFilters reads the catalog filter set from the query string.
func ParseCarFilters(r *http.Request) (catalog.Filters, error) {
	q := r.URL.Query()
	f := catalog.Filters{
		Brand:        SanitizeString(q.Get("brand"), 64),
		Model:        SanitizeString(q.Get("model"), 64),
		FuelType:     SanitizeString(q.Get("fuelType"), 32),
		Transmission: SanitizeString(q.Get("transmission"), 32),
		BodyType:     SanitizeString(q.Get("bodyType"), 32),
	}

	var err error
	if f.Year, err = ParseQueryInt(r, "year", 0, 1900, 2100); err != nil {
		return catalog.Filters{}, err
	}
	if f.MinPrice, err = ParseQueryDecimal(r, "minPrice"); err != nil {
		return catalog.Filters{}, err
	}
	if f.MaxPrice, err = ParseQueryDecimal(r, "maxPrice"); err != nil {
		return catalog.Filters{}, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return catalog.Filters{}, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must not exceed maxPrice")
	}
	if f.Page, err = ParseQueryInt(r, "page", 0, 1, 10_000); err != nil {
		return catalog.Filters{}, err
	}
	if f.Limit, err = ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit); err != nil {
		return catalog.Filters{}, err
	}

	if raw := strings.TrimSpace(q.Get("sortBy")); raw != "" {
		field, parseErr := enums.ParseCarSortField(raw)
		if parseErr != nil {
			return catalog.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid sortBy")
		}
		f.SortBy = field
	}
	if raw := strings.TrimSpace(q.Get("sortOrder")); raw != "" {
		order, parseErr := enums.ParseSortOrder(raw)
		if parseErr != nil {
			return catalog.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid sortOrder")
		}
		f.SortOrder = order
	}
	return f, nil
}
