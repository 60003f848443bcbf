package catalog

import (
	"cmp"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/pkg/enums"
	"github.com/angelmondragon/autostore-backend/pkg/pagination"
)

// Filters is the faceted query accepted by GET /cars. Zero values mean "any".
type Filters struct {
	Brand        string
	Model        string
	Year         int
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	FuelType     string
	Transmission string
	BodyType     string
	SortBy       enums.CarSortField
	SortOrder    enums.SortOrder
	Page         int
	Limit        int
}

// Query encodes the non-empty filters as catalog query parameters.
func (f Filters) Query() url.Values {
	q := url.Values{}
	setString(q, "brand", f.Brand)
	setString(q, "model", f.Model)
	setInt(q, "year", f.Year)
	if f.MinPrice != nil {
		q.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", f.MaxPrice.String())
	}
	setString(q, "fuelType", f.FuelType)
	setString(q, "transmission", f.Transmission)
	setString(q, "bodyType", f.BodyType)
	setString(q, "sortBy", f.SortBy.String())
	setString(q, "sortOrder", f.SortOrder.String())
	setInt(q, "page", f.Page)
	setInt(q, "limit", f.Limit)
	return q
}

func setString(q url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		q.Set(key, value)
	}
}

func setInt(q url.Values, key string, value int) {
	if value > 0 {
		q.Set(key, strconv.Itoa(value))
	}
}

// Matches reports whether car satisfies every facet of f. Sorting and paging
// fields are ignored.
func (f Filters) Matches(car Car) bool {
	if !equalFold(f.Brand, car.Brand) {
		return false
	}
	if m := strings.TrimSpace(f.Model); m != "" && !strings.Contains(strings.ToLower(car.Model), strings.ToLower(m)) {
		return false
	}
	if f.Year > 0 && car.Year != f.Year {
		return false
	}
	if f.MinPrice != nil && car.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && car.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return equalFold(f.FuelType, car.FuelType) &&
		equalFold(f.Transmission, car.Transmission) &&
		equalFold(f.BodyType, car.BodyType)
}

func equalFold(want, got string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(want, got)
}

// Apply filters, sorts and paginates an already fetched list in memory, in
// that order. Count is the number of matches before paging. Without a limit
// or page every match is returned.
func Apply(cars []Car, f Filters) List {
	matched := make([]Car, 0, len(cars))
	for _, car := range cars {
		if f.Matches(car) {
			matched = append(matched, car)
		}
	}

	if f.SortBy != "" {
		desc := f.SortOrder == enums.SortOrderDesc
		slices.SortStableFunc(matched, func(a, b Car) int {
			c := compareBy(f.SortBy, a, b)
			if desc {
				return -c
			}
			return c
		})
	}

	count := len(matched)
	if f.Page > 0 || f.Limit > 0 {
		matched = pagination.Slice(matched, pagination.Params{Page: f.Page, Limit: f.Limit})
	}
	return List{Cars: matched, Count: count}
}

func compareBy(field enums.CarSortField, a, b Car) int {
	switch field {
	case enums.CarSortPrice:
		return a.Price.Cmp(b.Price)
	case enums.CarSortYear:
		return cmp.Compare(a.Year, b.Year)
	case enums.CarSortMileage:
		return cmp.Compare(a.Mileage, b.Mileage)
	case enums.CarSortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}
