package enums

import "fmt"

// LeadKind identifies which storefront form produced a lead.
type LeadKind string

const (
	LeadKindContact   LeadKind = "contact"
	LeadKindTestDrive LeadKind = "test_drive"
	LeadKindFinancing LeadKind = "financing"
	LeadKindPurchase  LeadKind = "purchase"
)

var validLeadKinds = []LeadKind{
	LeadKindContact,
	LeadKindTestDrive,
	LeadKindFinancing,
	LeadKindPurchase,
}

// String implements fmt.Stringer.
func (v LeadKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known LeadKind.
func (v LeadKind) IsValid() bool {
	for _, candidate := range validLeadKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseLeadKind converts raw input into a LeadKind.
func ParseLeadKind(value string) (LeadKind, error) {
	for _, candidate := range validLeadKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lead kind %q", value)
}
