package leads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/internal/financing"
	"github.com/angelmondragon/autostore-backend/pkg/db/models"
	"github.com/angelmondragon/autostore-backend/pkg/enums"
)

// ContactRequest is the "ask a question" form on the car page.
type ContactRequest struct {
	CarID   string `json:"car_id" validate:"required"`
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,min=5,max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
	Message string `json:"message" validate:"required,max=2000"`
}

// TestDriveRequest books a test drive. PreferredDate is YYYY-MM-DD and
// PreferredTime an optional HH:MM slot.
type TestDriveRequest struct {
	CarID         string `json:"car_id" validate:"required"`
	Name          string `json:"name" validate:"required,max=120"`
	Phone         string `json:"phone" validate:"required,min=5,max=32"`
	PreferredDate string `json:"preferred_date" validate:"required,datetime=2006-01-02"`
	PreferredTime string `json:"preferred_time" validate:"omitempty,datetime=15:04"`
}

// FinancingRequest applies for a loan on one car. The monthly payment is
// computed from the catalog price, never taken from the client.
type FinancingRequest struct {
	CarID             string           `json:"car_id" validate:"required"`
	Name              string           `json:"name" validate:"required,max=120"`
	Phone             string           `json:"phone" validate:"required,min=5,max=32"`
	Email             string           `json:"email" validate:"required,email"`
	FinancingType     string           `json:"financing_type" validate:"omitempty,oneof=credit leasing"`
	DownPayment       decimal.Decimal  `json:"down_payment"`
	TermMonths        int              `json:"term_months" validate:"omitempty,min=1,max=120"`
	AnnualRatePercent *float64         `json:"annual_rate_percent" validate:"omitempty,gte=0"`
	MonthlyIncome     *decimal.Decimal `json:"monthly_income"`
}

// PurchaseInput records a checkout submission.
type PurchaseInput struct {
	Reference   string
	Name        string
	Phone       string
	Email       string
	PaymentType enums.FinancingType
	Amount      decimal.Decimal
	Comment     string
	Details     any
}

// LeadDTO is what callers get back after a submission.
type LeadDTO struct {
	ID        uuid.UUID        `json:"id"`
	Kind      enums.LeadKind   `json:"kind"`
	CarID     *string          `json:"car_id,omitempty"`
	Reference *string          `json:"reference,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Quote     *financing.Quote `json:"quote,omitempty"`
}

func toDTO(lead *models.Lead) *LeadDTO {
	return &LeadDTO{
		ID:        lead.ID,
		Kind:      lead.Kind,
		CarID:     lead.CarID,
		Reference: lead.Reference,
		CreatedAt: lead.CreatedAt,
	}
}
