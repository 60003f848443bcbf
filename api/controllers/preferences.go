package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/autostore-backend/api/responses"
	"github.com/angelmondragon/autostore-backend/api/validators"
	"github.com/angelmondragon/autostore-backend/internal/catalog"
	"github.com/angelmondragon/autostore-backend/internal/notify"
	"github.com/angelmondragon/autostore-backend/internal/preferences"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
)

type toggleResponse struct {
	preferences.Toggle
	Notifications []notify.Notification `json:"notifications"`
}

type listKind int

const (
	favoritesList listKind = iota
	compareList
)

// preferenceList returns the resolved cars of a list. With ids=true only the
// stored ids are returned.
func preferenceList(svc preferences.Service, kind listKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("preferences"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if r.URL.Query().Get("ids") == "true" {
			ids, err := listIDs(r, svc, kind, session)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteList(w, ids, len(ids))
			return
		}

		filters, err := validators.ParseCarFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var list catalog.List
		if kind == compareList {
			list, err = svc.CompareCars(r.Context(), session, filters)
		} else {
			list, err = svc.FavoriteCars(r.Context(), session, filters)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list.Cars, list.Count)
	}
}

func listIDs(r *http.Request, svc preferences.Service, kind listKind, session string) ([]string, error) {
	if kind == compareList {
		return svc.Compare(r.Context(), session)
	}
	return svc.Favorites(r.Context(), session)
}

func preferenceToggle(svc preferences.Service, kind listKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("preferences"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		carID := strings.TrimSpace(chi.URLParam(r, "carId"))

		rec, n := requestNotifier(logg)
		var toggle preferences.Toggle
		if kind == compareList {
			toggle, err = svc.ToggleCompare(r.Context(), session, carID, n)
		} else {
			toggle, err = svc.ToggleFavorite(r.Context(), session, carID, n)
		}
		if err != nil {
			writeFailure(r, logg, w, err, rec)
			return
		}
		responses.WriteSuccess(w, toggleResponse{Toggle: toggle, Notifications: rec.Notifications()})
	}
}

func preferenceRemove(svc preferences.Service, kind listKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("preferences"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		carID := chi.URLParam(r, "carId")

		var ids []string
		if kind == compareList {
			ids, err = svc.RemoveCompare(r.Context(), session, carID)
		} else {
			ids, err = svc.RemoveFavorite(r.Context(), session, carID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, ids, len(ids))
	}
}

func CompareClear(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("preferences"))
			return
		}
		session, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ClearCompare(r.Context(), session); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, []string{}, 0)
	}
}

func FavoritesList(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return preferenceList(svc, favoritesList, logg)
}

func FavoritesToggle(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return preferenceToggle(svc, favoritesList, logg)
}

func FavoritesRemove(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return preferenceRemove(svc, favoritesList, logg)
}

func CompareList(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return preferenceList(svc, compareList, logg)
}

func CompareToggle(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return preferenceToggle(svc, compareList, logg)
}

func CompareRemove(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return preferenceRemove(svc, compareList, logg)
}
