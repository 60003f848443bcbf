package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/internal/catalog"
	"github.com/angelmondragon/autostore-backend/pkg/enums"
)

// Financing is the payment plan chosen for one line item.
type Financing struct {
	Type           enums.FinancingType `json:"type"`
	DownPayment    decimal.Decimal     `json:"downPayment"`
	LoanTerm       int                 `json:"loanTerm"`
	MonthlyPayment decimal.Decimal     `json:"monthlyPayment"`
}

// LineItem is one car in the cart. Car is attached on read and never persisted.
type LineItem struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	CarID     string       `json:"carId"`
	Car       *catalog.Car `json:"car,omitempty"`
	Quantity  int          `json:"quantity"`
	AddedAt   time.Time    `json:"addedAt"`
	Notes     string       `json:"notes,omitempty"`
	Financing *Financing   `json:"financing,omitempty"`
}

// Resolved reports whether catalog data is attached.
func (i LineItem) Resolved() bool {
	return i.Car != nil
}

// UnitPrice is the resolved car price, zero while unresolved.
func (i LineItem) UnitPrice() decimal.Decimal {
	if i.Car == nil {
		return decimal.Zero
	}
	return i.Car.Price
}

// Subtotal is unit price times quantity.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AddOptions are merged over the defaults of a new line item.
type AddOptions struct {
	Quantity  *int
	Notes     *string
	Financing *Financing
}

// ItemPatch is a shallow merge; nil fields are left untouched.
type ItemPatch struct {
	Quantity  *int
	Notes     *string
	Financing *Financing
}

// Total sums subtotals; unresolved items contribute zero.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Count sums quantities.
func Count(items []LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
