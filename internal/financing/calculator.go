// Package financing computes amortized loan payments for the calculator,
// the checkout projection and financing lead forms.
package financing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/pkg/config"
	"github.com/angelmondragon/autostore-backend/pkg/enums"
)

const (
	DefaultTermMonths        = 36
	DefaultAnnualRatePercent = 12.5
)

// MonthlyPayment returns the fixed monthly payment retiring price-downPayment
// over termMonths at annualRatePercent. The result is not rounded, and a down
// payment above the price yields a negative payment.
func MonthlyPayment(price, downPayment float64, termMonths int, annualRatePercent float64) float64 {
	loan := price - downPayment
	n := float64(termMonths)
	r := annualRatePercent / 100 / 12
	if r == 0 {
		return loan / n
	}
	growth := math.Pow(1+r, n)
	return loan * r * growth / (growth - 1)
}

// Defaults fills in omitted request fields.
type Defaults struct {
	TermMonths        int
	AnnualRatePercent float64
}

func DefaultsFromConfig(cfg config.StorefrontConfig) Defaults {
	d := Defaults{TermMonths: cfg.DefaultLoanTermMonths, AnnualRatePercent: cfg.DefaultAnnualRate}
	if d.TermMonths <= 0 {
		d.TermMonths = DefaultTermMonths
	}
	return d
}

// Request describes one calculation. A nil rate means "use the default"; an
// explicit zero selects the interest-free branch.
type Request struct {
	Type              enums.FinancingType
	Price             decimal.Decimal
	DownPayment       decimal.Decimal
	TermMonths        int
	AnnualRatePercent *float64
}

// Normalize applies defaults to omitted fields.
func (r Request) Normalize(d Defaults) Request {
	if r.Type == "" {
		r.Type = enums.FinancingTypeCredit
	}
	if r.TermMonths <= 0 {
		r.TermMonths = d.TermMonths
		if r.TermMonths <= 0 {
			r.TermMonths = DefaultTermMonths
		}
	}
	if r.AnnualRatePercent == nil {
		rate := d.AnnualRatePercent
		r.AnnualRatePercent = &rate
	}
	return r
}

// Quote is the full projection of a financing request.
type Quote struct {
	Type              enums.FinancingType `json:"type"`
	Price             decimal.Decimal     `json:"price"`
	DownPayment       decimal.Decimal     `json:"downPayment"`
	LoanAmount        decimal.Decimal     `json:"loanAmount"`
	TermMonths        int                 `json:"termMonths"`
	AnnualRatePercent float64             `json:"annualRatePercent"`
	MonthlyPayment    decimal.Decimal     `json:"monthlyPayment"`
	TotalPaid         decimal.Decimal     `json:"totalPaid"`
	Overpayment       decimal.Decimal     `json:"overpayment"`
}

// Calculate normalizes req and projects it. Cash purchases carry no loan.
func Calculate(req Request, d Defaults) Quote {
	req = req.Normalize(d)
	q := Quote{
		Type:        req.Type,
		Price:       req.Price,
		DownPayment: req.DownPayment,
	}
	if !req.Type.Financed() {
		q.TotalPaid = req.Price
		return q
	}

	price, _ := req.Price.Float64()
	down, _ := req.DownPayment.Float64()
	monthly := MonthlyPayment(price, down, req.TermMonths, *req.AnnualRatePercent)

	q.LoanAmount = req.Price.Sub(req.DownPayment)
	q.TermMonths = req.TermMonths
	q.AnnualRatePercent = *req.AnnualRatePercent
	q.MonthlyPayment = decimal.NewFromFloat(monthly)
	q.TotalPaid = q.MonthlyPayment.Mul(decimal.NewFromInt(int64(req.TermMonths))).Add(req.DownPayment)
	q.Overpayment = q.TotalPaid.Sub(req.Price)
	return q
}

// Rounded returns a copy with money fields rounded to whole units for display.
func (q Quote) Rounded() Quote {
	q.Price = q.Price.Round(0)
	q.DownPayment = q.DownPayment.Round(0)
	q.LoanAmount = q.LoanAmount.Round(0)
	q.MonthlyPayment = q.MonthlyPayment.Round(0)
	q.TotalPaid = q.TotalPaid.Round(0)
	q.Overpayment = q.Overpayment.Round(0)
	return q
}
