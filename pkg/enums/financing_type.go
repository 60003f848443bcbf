package enums

import "fmt"

// FinancingType describes how a buyer intends to pay for a car.
type FinancingType string

const (
	FinancingTypeCash    FinancingType = "cash"
	FinancingTypeCredit  FinancingType = "credit"
	FinancingTypeLeasing FinancingType = "leasing"
)

var validFinancingTypes = []FinancingType{
	FinancingTypeCash,
	FinancingTypeCredit,
	FinancingTypeLeasing,
}

// String implements fmt.Stringer.
func (v FinancingType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known FinancingType.
func (v FinancingType) IsValid() bool {
	for _, candidate := range validFinancingTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseFinancingType converts raw input into a FinancingType.
func ParseFinancingType(value string) (FinancingType, error) {
	for _, candidate := range validFinancingTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid financing type %q", value)
}

// Financed reports whether the type involves a periodic payment.
func (v FinancingType) Financed() bool {
	return v == FinancingTypeCredit || v == FinancingTypeLeasing
}
