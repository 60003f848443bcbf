package enums

import "fmt"

// CarSortField names the catalog attributes a listing can be sorted by.
type CarSortField string

const (
	CarSortPrice     CarSortField = "price"
	CarSortYear      CarSortField = "year"
	CarSortMileage   CarSortField = "mileage"
	CarSortCreatedAt CarSortField = "createdAt"
)

var validCarSortFields = []CarSortField{
	CarSortPrice,
	CarSortYear,
	CarSortMileage,
	CarSortCreatedAt,
}

// String implements fmt.Stringer.
func (v CarSortField) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CarSortField.
func (v CarSortField) IsValid() bool {
	for _, candidate := range validCarSortFields {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCarSortField converts raw input into a CarSortField.
func ParseCarSortField(value string) (CarSortField, error) {
	for _, candidate := range validCarSortFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort field %q", value)
}
