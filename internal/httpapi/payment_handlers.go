package httpapi

import (
	"net/http"
	"time"

	"settleline.app/internal/auth"
	"settleline.app/internal/settle"
)

type createPaymentRequest struct {
	ReferralID       string     `json:"referralId"`
	MatterID         string     `json:"matterId"`
	BrokerUserID     string     `json:"brokerUserId"`
	GrossCents       int64      `json:"grossCents"`
	PlatformFeeCents int64      `json:"platformFeeCents"`
	Status           string     `json:"status"`
	SettledAt        *time.Time `json:"settledAt"`
}

func (a *API) handlePayments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listPayments(w, r)
	case http.MethodPost:
		a.createPayment(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listPayments(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	payments, err := a.store.Payments().ListFor(r.Context(), user)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeItems(w, payments)
}

func (a *API) createPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if user.Role != auth.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "only admins can record payments")
		return
	}

	var req createPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.BrokerUserID == "" {
		writeError(w, r, http.StatusBadRequest, "brokerUserId is required")
		return
	}
	if req.GrossCents <= 0 {
		writeError(w, r, http.StatusBadRequest, "grossCents must be > 0")
		return
	}
	if req.PlatformFeeCents < 0 || req.PlatformFeeCents > req.GrossCents {
		writeError(w, r, http.StatusBadRequest, "platformFeeCents must be between 0 and grossCents")
		return
	}

	status := req.Status
	if status == "" {
		status = settle.PaymentPending
	}
	p := &settle.Payment{
		ReferralID:       req.ReferralID,
		MatterID:         req.MatterID,
		BrokerUserID:     req.BrokerUserID,
		GrossCents:       req.GrossCents,
		PlatformFeeCents: req.PlatformFeeCents,
		NetCents:         req.GrossCents - req.PlatformFeeCents,
		Status:           status,
		SettledAt:        req.SettledAt,
	}
	if err := a.store.Payments().Create(r.Context(), p); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "payment.create", "payment", p.ID, map[string]string{
		"broker_user_id": p.BrokerUserID,
	})
	writeJSON(w, http.StatusCreated, p)
}
