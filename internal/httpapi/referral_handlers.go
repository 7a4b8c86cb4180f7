package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"settleline.app/internal/auth"
	"settleline.app/internal/settle"
)

type createReferralRequest struct {
	ClientName      string `json:"clientName"`
	ClientEmail     string `json:"clientEmail"`
	ClientPhone     string `json:"clientPhone"`
	Channel         string `json:"channel"`
	CommissionCents int64  `json:"commissionCents"`
}

type patchReferralRequest struct {
	ClientName      *string `json:"clientName"`
	ClientEmail     *string `json:"clientEmail"`
	ClientPhone     *string `json:"clientPhone"`
	Status          *string `json:"status"`
	CommissionCents *int64  `json:"commissionCents"`
}

type convertReferralRequest struct {
	Address      string `json:"address"`
	ClientUserID string `json:"clientUserId"`
}

func (a *API) handleReferralsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listReferrals(w, r)
	case http.MethodPost:
		a.createReferral(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleReferralResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/referrals/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if token, ok := strings.CutPrefix(path, "qr/"); ok {
		a.publicReferralByQR(w, r, token)
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch sub {
	case "":
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, r, http.MethodPatch)
			return
		}
		a.patchReferral(w, r, id)
	case "convert":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.convertReferral(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) listReferrals(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	refs, err := a.store.Referrals().ListFor(r.Context(), user)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeItems(w, refs)
}

func (a *API) createReferral(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req createReferralRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ClientName) == "" {
		writeError(w, r, http.StatusBadRequest, "clientName is required")
		return
	}
	if !settle.ValidReferralChannel(req.Channel) {
		writeError(w, r, http.StatusBadRequest, "channel must be one of PORTAL, SMS, QR")
		return
	}

	ref := &settle.Referral{
		BrokerUserID:    user.ID,
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientEmail:     strings.ToLower(strings.TrimSpace(req.ClientEmail)),
		ClientPhone:     strings.TrimSpace(req.ClientPhone),
		Channel:         req.Channel,
		Status:          settle.ReferralPending,
		CommissionCents: req.CommissionCents,
	}
	// QR referrals carry a shareable token, minted once and never reissued.
	if req.Channel == settle.ChannelQR {
		ref.QRToken = uuid.NewString()
	}
	if err := a.store.Referrals().Create(r.Context(), ref); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "referral.create", "referral", ref.ID, map[string]string{"channel": ref.Channel})
	writeJSON(w, http.StatusCreated, ref)
}

func (a *API) patchReferral(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	ref, ok := a.loadReferralFor(w, r, user, id)
	if !ok {
		return
	}

	var req patchReferralRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status != nil && !settle.ValidReferralStatus(*req.Status) {
		writeError(w, r, http.StatusBadRequest, "status must be one of Pending, Converted, Settled")
		return
	}

	updated, err := a.store.Referrals().Update(r.Context(), ref.ID, settle.ReferralUpdate{
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		ClientPhone:     req.ClientPhone,
		Status:          req.Status,
		CommissionCents: req.CommissionCents,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "referral.update", "referral", id, nil)
	writeJSON(w, http.StatusOK, updated)
}

// convertReferral creates the matter for a referred client and stamps the
// referral as converted.
func (a *API) convertReferral(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	ref, ok := a.loadReferralFor(w, r, user, id)
	if !ok {
		return
	}
	if ref.MatterID != "" {
		writeError(w, r, http.StatusConflict, "referral is already converted")
		return
	}

	var req convertReferralRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		writeError(w, r, http.StatusBadRequest, "address is required")
		return
	}

	clientID := strings.TrimSpace(req.ClientUserID)
	if clientID == "" && ref.ClientEmail != "" {
		if client, err := a.store.Users().FindByEmail(r.Context(), ref.ClientEmail); err == nil {
			clientID = client.ID
		}
	}
	if clientID == "" {
		writeError(w, r, http.StatusBadRequest, "clientUserId is required until the referred client has signed up")
		return
	}

	m := &settle.Matter{
		Address:      strings.TrimSpace(req.Address),
		ClientUserID: clientID,
		BrokerUserID: ref.BrokerUserID,
	}
	if err := a.store.Matters().Create(r.Context(), m); err != nil {
		handleStoreError(w, r, err)
		return
	}

	status := settle.ReferralConverted
	updated, err := a.store.Referrals().Update(r.Context(), ref.ID, settle.ReferralUpdate{
		Status:   &status,
		MatterID: &m.ID,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "referral.convert", "referral", ref.ID, map[string]string{"matter_id": m.ID})
	writeJSON(w, http.StatusCreated, map[string]any{
		"referral": updated,
		"matter":   m,
	})
}

// publicReferralByQR needs no auth and exposes only what the landing page
// shows the referred client.
func (a *API) publicReferralByQR(w http.ResponseWriter, r *http.Request, token string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	ref, err := a.store.Referrals().FindByQRToken(r.Context(), token)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	brokerName := ""
	if ref.BrokerUserID != "" {
		if broker, err := a.store.Users().Find(r.Context(), ref.BrokerUserID); err == nil {
			brokerName = broker.Name
		}
	}
	firstName, _, _ := strings.Cut(strings.TrimSpace(ref.ClientName), " ")

	writeJSON(w, http.StatusOK, map[string]any{
		"brokerName":      brokerName,
		"clientFirstName": firstName,
		"channel":         ref.Channel,
		"status":          ref.Status,
	})
}

// loadReferralFor applies broker ownership: brokers see their own
// referrals, admins all.
func (a *API) loadReferralFor(w http.ResponseWriter, r *http.Request, viewer *settle.User, id string) (*settle.Referral, bool) {
	ref, err := a.store.Referrals().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return nil, false
	}
	if viewer.Role != auth.RoleAdmin && ref.BrokerUserID != viewer.ID {
		writeError(w, r, http.StatusNotFound, settle.ErrNotFound.Error())
		return nil, false
	}
	return ref, true
}
