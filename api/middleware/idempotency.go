package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/autostore-backend/api/responses"
	pkgerrors "github.com/angelmondragon/autostore-backend/pkg/errors"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/autostore-backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// ReplayHeader marks responses served from a stored record.
	ReplayHeader = "Idempotent-Replayed"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	maxIdempotencyKeyLen   = 128
)

// Lead forms and the purchase submission create records; replays must not
// create a second one.
var idempotentRoutes = []struct {
	method string
	path   string
	prefix bool
	ttl    time.Duration
}{
	{method: http.MethodPost, path: "/api/v1/leads/", prefix: true, ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, path: "/api/v1/checkout", ttl: criticalIdempotencyTTL},
}

func routeTTL(method, path string) (time.Duration, bool) {
	if path == "" {
		return 0, false
	}
	for _, route := range idempotentRoutes {
		if route.method != method {
			continue
		}
		if path == route.path || (route.prefix && strings.HasPrefix(path, route.path)) {
			return route.ttl, true
		}
	}
	return 0, false
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
}

// Idempotency replays the first non-5xx response for a repeated
// Idempotency-Key on record-creating routes. Requests without the header
// pass through untouched; keys are scoped per session, method and path.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	guard := idempotencyGuard{store: store, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			ttl, guarded := guard.ttlFor(r)
			if !guarded || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			guard.serve(w, r, next, key, ttl)
		})
	}
}

func (g idempotencyGuard) ttlFor(r *http.Request) (time.Duration, bool) {
	if g.store == nil {
		return 0, false
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if ttl, ok := routeTTL(r.Method, rctx.RoutePattern()); ok {
			return ttl, true
		}
	}
	return routeTTL(r.Method, r.URL.Path)
}

func (g idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler, key string, ttl time.Duration) {
	ctx := r.Context()
	if len(key) > maxIdempotencyKeyLen {
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	sum := sha256.Sum256(body)
	fingerprint := hex.EncodeToString(sum[:])
	scope := strings.Join([]string{SessionIDFromContext(ctx), r.Method, r.URL.Path}, "|")
	storeKey := g.store.IdempotencyKey(scope, key)

	raw, err := g.store.Get(ctx, storeKey)
	switch {
	case errors.Is(err, pkgredis.ErrNil):
	case err != nil:
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key"))
		return
	case raw != "":
		var prior storedResponse
		if err := json.Unmarshal([]byte(raw), &prior); err != nil {
			responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
			return
		}
		if prior.Fingerprint != fingerprint {
			responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
			return
		}
		prior.replay(w)
		return
	}

	capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
	next.ServeHTTP(capture, r)
	if capture.status >= http.StatusInternalServerError {
		return
	}

	record, err := json.Marshal(storedResponse{
		Status:      capture.status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
		Fingerprint: fingerprint,
	})
	if err == nil {
		_, err = g.store.SetNX(ctx, storeKey, string(record), ttl)
	}
	if err != nil && g.logg != nil {
		g.logg.Error(ctx, "idempotency.persist_failed", err)
	}
}

func (s storedResponse) replay(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set(ReplayHeader, "true")
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
