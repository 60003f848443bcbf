package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/internal/cart"
	"github.com/angelmondragon/autostore-backend/internal/financing"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
)

// Summary is the priced selection shown on the checkout page.
type Summary struct {
	SelectedIDs      []string         `json:"selectedIds"`
	SelectedCount    int              `json:"selectedCount"`
	SelectedQuantity int              `json:"selectedQuantity"`
	Subtotal         decimal.Decimal  `json:"subtotal"`
	PromoCode        string           `json:"promoCode,omitempty"`
	DiscountRate     decimal.Decimal  `json:"discountRate"`
	Discount         decimal.Decimal  `json:"discount"`
	Total            decimal.Decimal  `json:"total"`
	Financing        *financing.Quote `json:"financing,omitempty"`
}

// Session is the selection and promo state layered over one cart snapshot.
// Replacing the items resets the selection to everything.
type Session struct {
	items    []cart.LineItem
	selected map[string]bool
	promo    *Promo
}

func NewSession(items []cart.LineItem) *Session {
	s := &Session{}
	s.SetItems(items)
	return s
}

// SetItems swaps the cart snapshot and selects every item.
func (s *Session) SetItems(items []cart.LineItem) {
	s.items = items
	s.selected = make(map[string]bool, len(items))
	for _, item := range items {
		s.selected[item.ID] = true
	}
}

func (s *Session) Items() []cart.LineItem {
	return s.items
}

func (s *Session) has(itemID string) bool {
	for _, item := range s.items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

// SetSelected marks one item; ids not in the cart are ignored.
func (s *Session) SetSelected(itemID string, selected bool) {
	if s.has(itemID) {
		s.selected[itemID] = selected
	}
}

func (s *Session) Toggle(itemID string) {
	if s.has(itemID) {
		s.selected[itemID] = !s.selected[itemID]
	}
}

func (s *Session) SelectAll(selected bool) {
	for _, item := range s.items {
		s.selected[item.ID] = selected
	}
}

// SelectOnly selects exactly ids. Every id must be in the cart.
func (s *Session) SelectOnly(ids []string) error {
	unknown := []string{}
	for _, id := range ids {
		if !s.has(id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "selected items are not in the cart").
			WithDetails(map[string]any{"selected_ids": unknown})
	}
	s.SelectAll(false)
	for _, id := range ids {
		s.selected[id] = true
	}
	return nil
}

func (s *Session) IsSelected(itemID string) bool {
	return s.selected[itemID]
}

// Selected returns the selected items in cart order.
func (s *Session) Selected() []cart.LineItem {
	out := make([]cart.LineItem, 0, len(s.items))
	for _, item := range s.items {
		if s.selected[item.ID] {
			out = append(out, item)
		}
	}
	return out
}

// ApplyPromo swaps in code. An unknown code leaves the current promo in place.
func (s *Session) ApplyPromo(code string) error {
	promo, err := LookupPromo(code)
	if err != nil {
		return err
	}
	s.promo = &promo
	return nil
}

func (s *Session) ClearPromo() {
	s.promo = nil
}

func (s *Session) Promo() *Promo {
	return s.promo
}

// Subtotal prices the selected items; unresolved items count as zero.
func (s *Session) Subtotal() decimal.Decimal {
	return cart.Total(s.Selected())
}

func (s *Session) DiscountRate() decimal.Decimal {
	if s.promo == nil {
		return decimal.Zero
	}
	return s.promo.Rate
}

func (s *Session) Discount() decimal.Decimal {
	return s.Subtotal().Mul(s.DiscountRate())
}

func (s *Session) Total() decimal.Decimal {
	return s.Subtotal().Sub(s.Discount())
}

func (s *Session) Summary() Summary {
	selected := s.Selected()
	ids := make([]string, 0, len(selected))
	for _, item := range selected {
		ids = append(ids, item.ID)
	}
	summary := Summary{
		SelectedIDs:      ids,
		SelectedCount:    len(selected),
		SelectedQuantity: cart.Count(selected),
		Subtotal:         s.Subtotal(),
		DiscountRate:     s.DiscountRate(),
		Discount:         s.Discount(),
		Total:            s.Total(),
	}
	if s.promo != nil {
		summary.PromoCode = s.promo.Code
	}
	return summary
}

// ProjectFinancing quotes req against the discounted total.
func (s *Session) ProjectFinancing(req financing.Request, d financing.Defaults) financing.Quote {
	req.Price = s.Total()
	return financing.Calculate(req, d)
}
