package controllers

import (
	"net/http"

	"github.com/angelmondragon/autostore-backend/api/middleware"
	"github.com/angelmondragon/autostore-backend/api/responses"
	"github.com/angelmondragon/autostore-backend/internal/notify"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
)

func sessionFromRequest(r *http.Request) (string, error) {
	session := middleware.SessionIDFromContext(r.Context())
	if session == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session context missing")
	}
	return session, nil
}

// requestNotifier collects the notifications of one request and mirrors them
// to the log.
func requestNotifier(logg *logger.Logger) (*notify.Recorder, notify.Notifier) {
	rec := notify.NewRecorder()
	return rec, notify.NewLogging(logg, rec)
}

// writeFailure writes err with whatever the recorder collected before the
// failure.
func writeFailure(r *http.Request, logg *logger.Logger, w http.ResponseWriter, err error, rec *notify.Recorder) {
	var notifications []notify.Notification
	if rec != nil {
		notifications = rec.Notifications()
	}
	if len(notifications) == 0 {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteErrorWith(r.Context(), logg, w, err, notifications)
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
