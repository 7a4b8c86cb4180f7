// Package httpapi is the HTTP layer: routing, auth, JSON codecs and the
// mapping from domain errors to status codes.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"settleline.app/internal/adapters"
	"settleline.app/internal/audit"
	"settleline.app/internal/cache"
	"settleline.app/internal/notify"
	"settleline.app/internal/obs"
	"settleline.app/internal/settle"
	"settleline.app/internal/stream"
)

// ReadyProbe reports readiness, typically a DB ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the domain store, chat cache and vendor
// adapters.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	store      settle.Store
	cache      cache.Store
	stream     *stream.Stream
	dispatcher *notify.Dispatcher
	vendors    *adapters.Set

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, store settle.Store, msgCache cache.Store, st *stream.Stream, dispatcher *notify.Dispatcher, vendors *adapters.Set) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		store:      store,
		cache:      msgCache,
		stream:     st,
		dispatcher: dispatcher,
		vendors:    vendors,
		rateBurst:  50,
		ratePerSec: 25,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/auth/demo-login", a.handleDemoLogin)
	a.mux.HandleFunc("/api/auth/me", a.handleMe)
	a.mux.HandleFunc("/api/auth/onboarding", a.handleOnboarding)
	a.mux.HandleFunc("/api/auth/otp/request", a.handleOtpRequest)
	a.mux.HandleFunc("/api/auth/otp/verify", a.handleOtpVerify)

	a.mux.HandleFunc("/api/matters", a.handleMattersCollection)
	a.mux.HandleFunc("/api/matters/", a.handleMatterResource)
	a.mux.HandleFunc("/api/tasks", a.handleTasksCollection)
	a.mux.HandleFunc("/api/tasks/", a.handleTaskResource)
	a.mux.HandleFunc("/api/documents", a.handleDocumentsCollection)
	a.mux.HandleFunc("/api/documents/", a.handleDocumentResource)

	a.mux.HandleFunc("/api/referrals", a.handleReferralsCollection)
	a.mux.HandleFunc("/api/referrals/", a.handleReferralResource)
	a.mux.HandleFunc("/api/payments", a.handlePayments)

	a.mux.HandleFunc("/api/organisations", a.handleOrganisationsCollection)
	a.mux.HandleFunc("/api/organisations/", a.handleOrganisationResource)

	a.mux.HandleFunc("/api/playbook", a.handlePlaybookList)
	a.mux.HandleFunc("/api/playbook/", a.handlePlaybookArticle)

	a.mux.HandleFunc("/api/notification-templates", a.handleTemplatesCollection)
	a.mux.HandleFunc("/api/notification-templates/", a.handleTemplateResource)
	a.mux.HandleFunc("/api/notification-logs", a.handleNotificationLogs)
	a.mux.HandleFunc("/api/notifications/send", a.handleNotificationSend)

	a.mux.HandleFunc("/api/voi/start", a.handleVOIStart)
	a.mux.HandleFunc("/api/map/token", a.handleMapToken)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// SetRateLimits overrides the default per-IP rate limit. Call before
// Handler.
func (a *API) SetRateLimits(burst, perSec int) {
	if burst > 0 {
		a.rateBurst = burst
	}
	if perSec > 0 {
		a.ratePerSec = perSec
	}
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "settleline-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "settleline-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) audit(ctx context.Context, event, entity, id string, meta map[string]string) {
	fields := map[string]any{
		"entity":    entity,
		"entity_id": id,
	}
	for k, v := range meta {
		fields[k] = v
	}
	_ = audit.LogEvent(ctx, event, fields)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeItems writes a {"items": [...]} listing. A nil slice serializes as
// an empty array so every listing endpoint has the same empty shape.
func writeItems[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleStoreError maps domain errors to status codes. Unknown errors are
// logged with the request id; clients get a generic message.
func handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, settle.ErrInvalidInput), errors.Is(err, settle.ErrExpired):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, settle.ErrLocked), errors.Is(err, settle.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, settle.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, adapters.ErrNotConfigured), errors.Is(err, notify.ErrChannelUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		obs.LogError(RequestIDFromContext(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
