package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/pkg/enums"
)

// Lead captures a storefront form submission (contact, test drive, financing, purchase).
type Lead struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Kind           enums.LeadKind       `gorm:"column:kind;not null;index:leads_kind_idx"`
	SessionID      string               `gorm:"column:session_id;not null"`
	CarID          *string              `gorm:"column:car_id;index:leads_car_id_idx"`
	Name           string               `gorm:"column:name;not null"`
	Phone          string               `gorm:"column:phone;not null"`
	Email          *string              `gorm:"column:email"`
	Message        *string              `gorm:"column:message"`
	PreferredDate  *time.Time           `gorm:"column:preferred_date"`
	PreferredTime  *string              `gorm:"column:preferred_time"`
	FinancingType  *enums.FinancingType `gorm:"column:financing_type"`
	DownPayment    *decimal.Decimal     `gorm:"column:down_payment;type:numeric(14,2)"`
	TermMonths     *int                 `gorm:"column:term_months"`
	MonthlyIncome  *decimal.Decimal     `gorm:"column:monthly_income;type:numeric(14,2)"`
	MonthlyPayment *decimal.Decimal     `gorm:"column:monthly_payment;type:numeric(14,2)"`
	Amount         *decimal.Decimal     `gorm:"column:amount;type:numeric(14,2)"`
	Reference      *string              `gorm:"column:reference;uniqueIndex:leads_reference_key"`
	Details        []byte               `gorm:"column:details"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (Lead) TableName() string {
	return "leads"
}
