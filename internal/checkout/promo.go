package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
)

// Promo is a recognized promotional code and the fraction it takes off.
type Promo struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

var promoRates = map[string]decimal.Decimal{
	"SAVE10":  decimal.NewFromFloat(0.10),
	"FIRST15": decimal.NewFromFloat(0.15),
}

// NormalizePromoCode trims and upper-cases user input.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LookupPromo resolves code against the static promo table.
func LookupPromo(code string) (Promo, error) {
	normalized := NormalizePromoCode(code)
	rate, ok := promoRates[normalized]
	if !ok {
		return Promo{}, pkgerrors.New(pkgerrors.CodeInvalidPromo, "promo code not recognized").
			WithDetails(map[string]string{"promo_code": strings.TrimSpace(code)})
	}
	return Promo{Code: normalized, Rate: rate}, nil
}
