package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/autostore-backend/internal/cart"
	"github.com/angelmondragon/autostore-backend/internal/financing"
	"github.com/angelmondragon/autostore-backend/internal/leads"
	"github.com/angelmondragon/autostore-backend/internal/notify"
	"github.com/angelmondragon/autostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
	"github.com/angelmondragon/autostore-backend/pkg/validation"
)

const (
	msgPromoApplied   = "Promo code applied"
	msgPromoInvalid   = "Invalid promo code"
	msgOrderPlaced    = "Order placed, our manager will contact you"
	msgPartialRemoval = "Some items could not be removed from the cart"
)

type purchaseRecorder interface {
	RecordPurchase(ctx context.Context, session string, input leads.PurchaseInput) (*leads.LeadDTO, error)
}

// FinancingOptions asks for a loan projection of the checkout total.
type FinancingOptions struct {
	Type              string          `json:"type" validate:"omitempty,oneof=cash credit leasing"`
	DownPayment       decimal.Decimal `json:"down_payment"`
	TermMonths        int             `json:"term_months" validate:"omitempty,min=1,max=120"`
	AnnualRatePercent *float64        `json:"annual_rate_percent" validate:"omitempty,gte=0"`
}

func (o *FinancingOptions) request() financing.Request {
	return financing.Request{
		Type:              enums.FinancingType(o.Type),
		DownPayment:       o.DownPayment,
		TermMonths:        o.TermMonths,
		AnnualRatePercent: o.AnnualRatePercent,
	}
}

// SummaryRequest prices a selection. Nil SelectedIDs selects the whole cart.
type SummaryRequest struct {
	SelectedIDs []string          `json:"selected_ids"`
	PromoCode   string            `json:"promo_code" validate:"max=64"`
	Financing   *FinancingOptions `json:"financing"`
}

// SubmitRequest places an order for the selected items.
type SubmitRequest struct {
	Name        string            `json:"name" validate:"required,max=120"`
	Phone       string            `json:"phone" validate:"required,min=5,max=32"`
	Email       string            `json:"email" validate:"required,email"`
	Address     string            `json:"address" validate:"max=500"`
	Comment     string            `json:"comment" validate:"max=2000"`
	PaymentType string            `json:"payment_type" validate:"required,oneof=cash credit leasing"`
	SelectedIDs []string          `json:"selected_ids"`
	PromoCode   string            `json:"promo_code" validate:"max=64"`
	Financing   *FinancingOptions `json:"financing"`
}

// Receipt confirms a submitted order.
type Receipt struct {
	Reference     string          `json:"reference"`
	LeadID        uuid.UUID       `json:"leadId"`
	Items         []cart.LineItem `json:"items"`
	Summary       Summary         `json:"summary"`
	PaymentType   string          `json:"paymentType"`
	RemovedCount  int             `json:"removedCount"`
	RemovalFailed int             `json:"removalFailed"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Service drives the checkout page.
type Service interface {
	Summary(ctx context.Context, session string, req SummaryRequest, notifier notify.Notifier) (Summary, error)
	Submit(ctx context.Context, session string, req SubmitRequest, notifier notify.Notifier) (*Receipt, error)
	ValidatePromo(ctx context.Context, code string, notifier notify.Notifier) (Promo, error)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Cart         cart.Service
	Leads        purchaseRecorder
	Financing    financing.Defaults
	Logger       *logger.Logger
	Now          func() time.Time
	NewReference func() string
}

type service struct {
	cart         cart.Service
	leads        purchaseRecorder
	financing    financing.Defaults
	logg         *logger.Logger
	now          func() time.Time
	newReference func() string
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Leads == nil {
		return nil, fmt.Errorf("purchase recorder required")
	}
	svc := &service{
		cart:         params.Cart,
		leads:        params.Leads,
		financing:    params.Financing,
		logg:         params.Logger,
		now:          params.Now,
		newReference: params.NewReference,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newReference == nil {
		svc.newReference = newReference
	}
	return svc, nil
}

func newReference() string {
	return "AS-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func (s *service) ValidatePromo(ctx context.Context, code string, notifier notify.Notifier) (Promo, error) {
	notifier = orDiscard(notifier)
	promo, err := LookupPromo(code)
	if err != nil {
		notifier.Failure(ctx, msgPromoInvalid)
		return Promo{}, err
	}
	notifier.Success(ctx, msgPromoApplied)
	return promo, nil
}

// load reads the enriched cart, applies the selection and promo, and
// notifies on an unrecognized promo code without failing.
func (s *service) load(ctx context.Context, session string, selectedIDs []string, promoCode string, notifier notify.Notifier) (*Session, error) {
	items, err := s.cart.GetItems(ctx, session)
	if err != nil {
		return nil, err
	}
	sess := NewSession(items)
	if selectedIDs != nil {
		if err := sess.SelectOnly(selectedIDs); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(promoCode) != "" {
		if err := sess.ApplyPromo(promoCode); err != nil {
			notifier.Failure(ctx, msgPromoInvalid)
		} else {
			notifier.Success(ctx, msgPromoApplied)
		}
	}
	return sess, nil
}

func (s *service) Summary(ctx context.Context, session string, req SummaryRequest, notifier notify.Notifier) (Summary, error) {
	notifier = orDiscard(notifier)
	if err := validation.Struct(req); err != nil {
		return Summary{}, err
	}
	sess, err := s.load(ctx, session, req.SelectedIDs, req.PromoCode, notifier)
	if err != nil {
		return Summary{}, err
	}
	summary := sess.Summary()
	if req.Financing != nil {
		quote := sess.ProjectFinancing(req.Financing.request(), s.financing).Rounded()
		summary.Financing = &quote
	}
	return summary, nil
}

func (s *service) Submit(ctx context.Context, session string, req SubmitRequest, notifier notify.Notifier) (*Receipt, error) {
	notifier = orDiscard(notifier)
	if err := validation.Struct(req); err != nil {
		notifier.Failure(ctx, "Please fill in all required fields")
		return nil, err
	}

	sess, err := s.load(ctx, session, req.SelectedIDs, req.PromoCode, notifier)
	if err != nil {
		return nil, err
	}
	selected := sess.Selected()
	if len(selected) == 0 {
		notifier.Failure(ctx, "Select at least one car to check out")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items selected").
			WithDetails(map[string]string{"selected_ids": "select at least one item"})
	}

	summary := sess.Summary()
	if req.Financing != nil {
		options := *req.Financing
		if options.Type == "" {
			options.Type = req.PaymentType
		}
		quote := sess.ProjectFinancing(options.request(), s.financing).Rounded()
		summary.Financing = &quote
	}

	reference := s.newReference()
	lead, err := s.leads.RecordPurchase(ctx, session, leads.PurchaseInput{
		Reference:   reference,
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		PaymentType: enums.FinancingType(req.PaymentType),
		Amount:      summary.Total,
		Comment:     req.Comment,
		Details: map[string]any{
			"address": strings.TrimSpace(req.Address),
			"items":   selected,
			"summary": summary,
		},
	})
	if err != nil {
		notifier.Failure(ctx, "Failed to place the order")
		return nil, err
	}

	failed, removeErr := s.removeAll(ctx, session, selected)
	if removeErr != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "reference", reference), "checkout.partial_removal", removeErr)
		notifier.Failure(ctx, msgPartialRemoval)
	}
	notifier.Success(ctx, msgOrderPlaced)

	return &Receipt{
		Reference:     reference,
		LeadID:        lead.ID,
		Items:         selected,
		Summary:       summary,
		PaymentType:   req.PaymentType,
		RemovedCount:  len(selected) - failed,
		RemovalFailed: failed,
		CreatedAt:     s.now().UTC(),
	}, nil
}

// removeAll issues one removal per item concurrently and joins them. Nothing
// is rolled back when some fail.
func (s *service) removeAll(ctx context.Context, session string, items []cart.LineItem) (int, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   error
		failed int
	)
	for _, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.cart.RemoveItem(ctx, session, item.ID); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("remove %s: %w", item.ID, err))
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return failed, errs
}

func orDiscard(n notify.Notifier) notify.Notifier {
	if n == nil {
		return notify.Discard{}
	}
	return n
}
