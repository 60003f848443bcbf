package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/api/responses"
	"github.com/angelmondragon/autostore-backend/api/validators"
	"github.com/angelmondragon/autostore-backend/internal/catalog"
	"github.com/angelmondragon/autostore-backend/internal/financing"
	"github.com/angelmondragon/autostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
)

type carLookup interface {
	GetCar(ctx context.Context, id string) (*catalog.Car, error)
}

// FinancingQuote runs the calculator. The price comes from the query or, when
// carId is given, from the catalog.
func FinancingQuote(cars carLookup, defaults financing.Defaults, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, hasPrice, err := parseFinancingQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if carID := strings.TrimSpace(r.URL.Query().Get("carId")); carID != "" {
			if cars == nil {
				responses.WriteError(r.Context(), logg, w, unavailable("catalog"))
				return
			}
			car, err := cars.GetCar(r.Context(), carID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			req.Price = car.Price
		} else if !hasPrice {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price or carId is required"))
			return
		}

		responses.WriteSuccess(w, financing.Calculate(req, defaults).Rounded())
	}
}

// parseFinancingQuery reports whether price was present so an explicit zero is
// told apart from a missing value.
func parseFinancingQuery(r *http.Request) (financing.Request, bool, error) {
	var req financing.Request

	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		kind, err := enums.ParseFinancingType(raw)
		if err != nil {
			return req, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid financing type")
		}
		req.Type = kind
	}

	price, err := validators.ParseQueryDecimal(r, "price")
	if err != nil {
		return req, false, err
	}
	if price != nil {
		if price.IsNegative() {
			return req, false, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		req.Price = *price
	}
	hasPrice := price != nil

	down, err := validators.ParseQueryDecimal(r, "downPayment")
	if err != nil {
		return req, hasPrice, err
	}
	if down != nil {
		if down.IsNegative() {
			return req, hasPrice, pkgerrors.New(pkgerrors.CodeValidation, "downPayment must not be negative")
		}
		req.DownPayment = *down
	} else {
		req.DownPayment = decimal.Zero
	}

	if req.TermMonths, err = validators.ParseQueryInt(r, "termMonths", 0, 1, 120); err != nil {
		return req, hasPrice, err
	}

	rate, err := validators.ParseQueryFloat(r, "annualRate")
	if err != nil {
		return req, hasPrice, err
	}
	if rate != nil && *rate < 0 {
		return req, hasPrice, pkgerrors.New(pkgerrors.CodeValidation, "annualRate must not be negative")
	}
	req.AnnualRatePercent = rate
	return req, hasPrice, nil
}
