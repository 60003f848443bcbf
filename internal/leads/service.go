package leads

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/angelmondragon/autostore-backend/internal/catalog"
	"github.com/angelmondragon/autostore-backend/internal/financing"
	"github.com/angelmondragon/autostore-backend/pkg/db/models"
	"github.com/angelmondragon/autostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
	"github.com/angelmondragon/autostore-backend/pkg/validation"
)

type carFetcher interface {
	GetCar(ctx context.Context, id string) (*catalog.Car, error)
}

type leadStore interface {
	Create(ctx context.Context, lead *models.Lead) error
	ListBySession(ctx context.Context, sessionID string, kind enums.LeadKind, limit int) ([]models.Lead, error)
}

// Service validates and records storefront forms.
type Service interface {
	SubmitContact(ctx context.Context, session string, req ContactRequest) (*LeadDTO, error)
	SubmitTestDrive(ctx context.Context, session string, req TestDriveRequest) (*LeadDTO, error)
	SubmitFinancing(ctx context.Context, session string, req FinancingRequest) (*LeadDTO, error)
	RecordPurchase(ctx context.Context, session string, input PurchaseInput) (*LeadDTO, error)
	List(ctx context.Context, session string, kind enums.LeadKind, limit int) ([]LeadDTO, error)
}

// ServiceParams groups dependencies for the leads service.
type ServiceParams struct {
	Repo      leadStore
	Catalog   carFetcher
	Financing financing.Defaults
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      leadStore
	catalog   carFetcher
	financing financing.Defaults
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds a leads service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog client is required")
	}
	svc := &service{
		repo:      params.Repo,
		catalog:   params.Catalog,
		financing: params.Financing,
		logg:      params.Logger,
		now:       params.Now,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

func (s *service) SubmitContact(ctx context.Context, session string, req ContactRequest) (*LeadDTO, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetCar(ctx, req.CarID); err != nil {
		return nil, err
	}
	lead := &models.Lead{
		Kind:      enums.LeadKindContact,
		SessionID: session,
		CarID:     optional(req.CarID),
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     optional(req.Email),
		Message:   optional(req.Message),
	}
	return s.create(ctx, lead)
}

func (s *service) SubmitTestDrive(ctx context.Context, session string, req TestDriveRequest) (*LeadDTO, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	date, err := time.Parse(time.DateOnly, req.PreferredDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid preferred date")
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preferred date must not be in the past").
			WithDetails(map[string]string{"preferred_date": "must be today or later"})
	}
	if _, err := s.catalog.GetCar(ctx, req.CarID); err != nil {
		return nil, err
	}
	lead := &models.Lead{
		Kind:          enums.LeadKindTestDrive,
		SessionID:     session,
		CarID:         optional(req.CarID),
		Name:          strings.TrimSpace(req.Name),
		Phone:         strings.TrimSpace(req.Phone),
		PreferredDate: &date,
		PreferredTime: optional(req.PreferredTime),
	}
	return s.create(ctx, lead)
}

func (s *service) SubmitFinancing(ctx context.Context, session string, req FinancingRequest) (*LeadDTO, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.DownPayment.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"down_payment": "must be greater than or equal to 0"})
	}
	if req.MonthlyIncome != nil && req.MonthlyIncome.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"monthly_income": "must be greater than or equal to 0"})
	}

	car, err := s.catalog.GetCar(ctx, req.CarID)
	if err != nil {
		return nil, err
	}

	kind := enums.FinancingTypeCredit
	if req.FinancingType != "" {
		kind = enums.FinancingType(req.FinancingType)
	}
	quote := financing.Calculate(financing.Request{
		Type:              kind,
		Price:             car.Price,
		DownPayment:       req.DownPayment,
		TermMonths:        req.TermMonths,
		AnnualRatePercent: req.AnnualRatePercent,
	}, s.financing)

	monthly := quote.MonthlyPayment.Round(2)
	down := req.DownPayment
	term := quote.TermMonths
	lead := &models.Lead{
		Kind:           enums.LeadKindFinancing,
		SessionID:      session,
		CarID:          optional(req.CarID),
		Name:           strings.TrimSpace(req.Name),
		Phone:          strings.TrimSpace(req.Phone),
		Email:          optional(req.Email),
		FinancingType:  &kind,
		DownPayment:    &down,
		TermMonths:     &term,
		MonthlyIncome:  req.MonthlyIncome,
		MonthlyPayment: &monthly,
		Amount:         &quote.LoanAmount,
	}
	dto, err := s.create(ctx, lead)
	if err != nil {
		return nil, err
	}
	rounded := quote.Rounded()
	dto.Quote = &rounded
	return dto, nil
}

func (s *service) RecordPurchase(ctx context.Context, session string, input PurchaseInput) (*LeadDTO, error) {
	details, err := json.Marshal(input.Details)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode purchase details")
	}
	payment := input.PaymentType
	amount := input.Amount
	lead := &models.Lead{
		Kind:          enums.LeadKindPurchase,
		SessionID:     session,
		Name:          strings.TrimSpace(input.Name),
		Phone:         strings.TrimSpace(input.Phone),
		Email:         optional(input.Email),
		Message:       optional(input.Comment),
		FinancingType: &payment,
		Amount:        &amount,
		Reference:     optional(input.Reference),
		Details:       details,
	}
	return s.create(ctx, lead)
}

func (s *service) List(ctx context.Context, session string, kind enums.LeadKind, limit int) ([]LeadDTO, error) {
	if kind != "" && !kind.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown lead kind %q", kind)
	}
	rows, err := s.repo.ListBySession(ctx, session, kind, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeadDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) create(ctx context.Context, lead *models.Lead) (*LeadDTO, error) {
	lead.CreatedAt = s.now().UTC()
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"lead_id":   lead.ID.String(),
		"lead_kind": lead.Kind.String(),
	}), "lead.recorded")
	return toDTO(lead), nil
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
