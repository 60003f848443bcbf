package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/api/responses"
	"github.com/angelmondragon/autostore-backend/api/validators"
	"github.com/angelmondragon/autostore-backend/internal/cart"
	"github.com/angelmondragon/autostore-backend/internal/notify"
	"github.com/angelmondragon/autostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
)

const maxNotesLen = 500

type financingPayload struct {
	Type           string          `json:"type" validate:"required,oneof=cash credit leasing"`
	DownPayment    decimal.Decimal `json:"down_payment"`
	LoanTerm       int             `json:"loan_term" validate:"omitempty,min=1,max=120"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}

func (p *financingPayload) toFinancing() *cart.Financing {
	if p == nil {
		return nil
	}
	return &cart.Financing{
		Type:           enums.FinancingType(p.Type),
		DownPayment:    p.DownPayment,
		LoanTerm:       p.LoanTerm,
		MonthlyPayment: p.MonthlyPayment,
	}
}

type addCartItemRequest struct {
	CarID     string            `json:"car_id" validate:"required"`
	Quantity  *int              `json:"quantity" validate:"omitempty,min=1"`
	Notes     *string           `json:"notes" validate:"omitempty,max=500"`
	Financing *financingPayload `json:"financing"`
}

type updateCartItemRequest struct {
	Quantity  *int              `json:"quantity"`
	Notes     *string           `json:"notes" validate:"omitempty,max=500"`
	Financing *financingPayload `json:"financing"`
}

// cartResponse is the view-model state plus what it reported.
type cartResponse struct {
	cart.State
	Notifications []notify.Notification `json:"notifications"`
}

func writeCart(w http.ResponseWriter, status int, vm *cart.ViewModel, rec *notify.Recorder) {
	responses.WriteSuccessStatus(w, status, cartResponse{State: vm.State(), Notifications: rec.Notifications()})
}

func sanitizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	clean := validators.SanitizeString(*notes, maxNotesLen)
	return &clean
}

// CartFetch loads the enriched cart of the session.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("cart"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, n := requestNotifier(logg)
		vm := cart.NewViewModel(r.Context(), svc, session, n)
		if err := vm.Err(); err != nil {
			writeFailure(r, logg, w, err, rec)
			return
		}
		writeCart(w, http.StatusOK, vm, rec)
	}
}

func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("cart"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, n := requestNotifier(logg)
		vm := cart.NewViewModel(r.Context(), svc, session, n)
		err = vm.AddToCart(r.Context(), strings.TrimSpace(payload.CarID), cart.AddOptions{
			Quantity:  payload.Quantity,
			Notes:     sanitizeNotes(payload.Notes),
			Financing: payload.Financing.toFinancing(),
		})
		if err != nil {
			writeFailure(r, logg, w, err, rec)
			return
		}
		writeCart(w, http.StatusCreated, vm, rec)
	}
}

func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("cart"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, n := requestNotifier(logg)
		vm := cart.NewViewModel(r.Context(), svc, session, n)
		vm.UpdateCartItem(r.Context(), itemID, cart.ItemPatch{
			Quantity:  payload.Quantity,
			Notes:     sanitizeNotes(payload.Notes),
			Financing: payload.Financing.toFinancing(),
		})
		if err := vm.Err(); err != nil {
			writeFailure(r, logg, w, err, rec)
			return
		}
		writeCart(w, http.StatusOK, vm, rec)
	}
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("cart"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))

		rec, n := requestNotifier(logg)
		vm := cart.NewViewModel(r.Context(), svc, session, n)
		vm.RemoveFromCart(r.Context(), itemID)
		if err := vm.Err(); err != nil {
			writeFailure(r, logg, w, err, rec)
			return
		}
		writeCart(w, http.StatusOK, vm, rec)
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("cart"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rec, n := requestNotifier(logg)
		vm := cart.NewViewModel(r.Context(), svc, session, n)
		vm.ClearCart(r.Context())
		if err := vm.Err(); err != nil {
			writeFailure(r, logg, w, err, rec)
			return
		}
		writeCart(w, http.StatusOK, vm, rec)
	}
}

// CartTotal returns the enriched total without the items.
func CartTotal(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("cart"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		total, err := svc.GetTotal(r.Context(), session)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"total": total})
	}
}
