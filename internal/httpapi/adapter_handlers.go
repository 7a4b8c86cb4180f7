package httpapi

import (
	"net/http"

	"settleline.app/internal/adapters"
	"settleline.app/internal/settle"
)

// handleVOIStart opens a verification session for the current user and
// moves their VOI status to pending.
func (a *API) handleVOIStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if a.vendors == nil || !a.vendors.VOI.IsConfigured() {
		writeError(w, r, http.StatusServiceUnavailable, adapters.ErrNotConfigured.Error())
		return
	}

	session, err := a.vendors.VOI.Start(r.Context(), adapters.VerificationRequest{
		Name:        user.Name,
		Email:       user.Email,
		DateOfBirth: user.DateOfBirth,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	pending := settle.VOIPending
	if _, err := a.store.Users().UpdateProfile(r.Context(), user.ID, settle.ProfileUpdate{
		VOIStatus: &pending,
	}); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "voi.start", "user", user.ID, map[string]string{
		"session_id": session.SessionID,
	})
	writeJSON(w, http.StatusOK, session)
}

// handleMapToken returns a short-lived tile token; the adapter caches it
// until just before vendor expiry.
func (a *API) handleMapToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireUser(w, r); !ok {
		return
	}
	if a.vendors == nil || !a.vendors.Map.IsConfigured() {
		writeError(w, r, http.StatusServiceUnavailable, adapters.ErrNotConfigured.Error())
		return
	}

	token, err := a.vendors.Map.Token(r.Context())
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}
