package enums

import "fmt"

// CarStatus is the catalog availability state of a car.
type CarStatus string

const (
	CarStatusAvailable CarStatus = "available"
	CarStatusReserved  CarStatus = "reserved"
	CarStatusSold      CarStatus = "sold"
)

var validCarStatuses = []CarStatus{
	CarStatusAvailable,
	CarStatusReserved,
	CarStatusSold,
}

// String implements fmt.Stringer.
func (v CarStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CarStatus.
func (v CarStatus) IsValid() bool {
	for _, candidate := range validCarStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCarStatus converts raw input into a CarStatus.
func ParseCarStatus(value string) (CarStatus, error) {
	for _, candidate := range validCarStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid car status %q", value)
}
