package enums

import "fmt"

// SortOrder is the direction of a catalog sort.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

var validSortOrders = []SortOrder{
	SortOrderAsc,
	SortOrderDesc,
}

// String implements fmt.Stringer.
func (v SortOrder) String() string {
	return string(v)
}

// IsValid reports whether the value is a known SortOrder.
func (v SortOrder) IsValid() bool {
	for _, candidate := range validSortOrders {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseSortOrder converts raw input into a SortOrder.
func ParseSortOrder(value string) (SortOrder, error) {
	for _, candidate := range validSortOrders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort order %q", value)
}
