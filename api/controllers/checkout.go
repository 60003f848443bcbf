package controllers

import (
	"net/http"

	"github.com/angelmondragon/autostore-backend/api/responses"
	"github.com/angelmondragon/autostore-backend/api/validators"
	"github.com/angelmondragon/autostore-backend/internal/checkout"
	"github.com/angelmondragon/autostore-backend/internal/notify"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
)

type checkoutSummaryResponse struct {
	checkout.Summary
	Notifications []notify.Notification `json:"notifications"`
}

type checkoutReceiptResponse struct {
	*checkout.Receipt
	Notifications []notify.Notification `json:"notifications"`
}

type promoRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type promoResponse struct {
	checkout.Promo
	Notifications []notify.Notification `json:"notifications"`
}

// CheckoutSummary prices the selection. An empty body prices the whole cart.
func CheckoutSummary(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkout.SummaryRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, n := requestNotifier(logg)
		summary, err := svc.Summary(r.Context(), session, payload, n)
		if err != nil {
			writeFailure(r, logg, w, err, rec)
			return
		}
		responses.WriteSuccess(w, checkoutSummaryResponse{Summary: summary, Notifications: rec.Notifications()})
	}
}

func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkout.SubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, n := requestNotifier(logg)
		receipt, err := svc.Submit(r.Context(), session, payload, n)
		if err != nil {
			writeFailure(r, logg, w, err, rec)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutReceiptResponse{Receipt: receipt, Notifications: rec.Notifications()})
	}
}

// CheckoutPromo checks a promo code on its own; unknown codes are rejected.
func CheckoutPromo(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout"))
			return
		}

		var payload promoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, n := requestNotifier(logg)
		promo, err := svc.ValidatePromo(r.Context(), payload.Code, n)
		if err != nil {
			writeFailure(r, logg, w, err, rec)
			return
		}
		responses.WriteSuccess(w, promoResponse{Promo: promo, Notifications: rec.Notifications()})
	}
}
