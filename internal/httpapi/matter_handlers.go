package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"settleline.app/internal/adapters"
	"settleline.app/internal/auth"
	"settleline.app/internal/settle"
)

type createMatterRequest struct {
	Address           string     `json:"address"`
	ClientUserID      string     `json:"clientUserId"`
	ConveyancerUserID string     `json:"conveyancerUserId"`
	BrokerUserID      string     `json:"brokerUserId"`
	SettlementDate    *time.Time `json:"settlementDate"`
	CoolingOffDate    *time.Time `json:"coolingOffDate"`
	FinanceDate       *time.Time `json:"financeDate"`
	ContractPrice     int64      `json:"contractPriceCents"`
	Deposit           int64      `json:"depositCents"`
}

type patchMatterRequest struct {
	Address           *string `json:"address"`
	Status            *string `json:"status"`
	ConveyancerUserID *string `json:"conveyancerUserId"`
	BrokerUserID      *string `json:"brokerUserId"`

	PillarPreSettlement *settle.StageStatus `json:"pillarPreSettlement"`
	PillarExchange      *settle.StageStatus `json:"pillarExchange"`
	PillarConditions    *settle.StageStatus `json:"pillarConditions"`
	PillarPreCompletion *settle.StageStatus `json:"pillarPreCompletion"`
	PillarSettlement    *settle.StageStatus `json:"pillarSettlement"`

	SettlementDate *time.Time `json:"settlementDate"`
	CoolingOffDate *time.Time `json:"coolingOffDate"`
	FinanceDate    *time.Time `json:"financeDate"`

	ContractPrice *int64 `json:"contractPriceCents"`
	Deposit       *int64 `json:"depositCents"`
}

func (a *API) handleMattersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listMatters(w, r)
	case http.MethodPost:
		a.createMatter(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleMatterResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/matters/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, sub, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			a.getMatter(w, r, id)
		case http.MethodPatch:
			a.patchMatter(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
		}
	case "progress":
		a.getMatterProgress(w, r, id)
	case "tasks":
		a.listMatterTasks(w, r, id)
	case "documents":
		a.listMatterDocuments(w, r, id)
	case "messages":
		a.handleMatterMessages(w, r, id)
	case "messages/stream":
		a.streamMatterMessages(w, r, id)
	case "sync":
		a.syncMatter(w, r, id)
	case "feed":
		a.matterFeed(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// loadMatterFor fetches a matter and applies the visibility predicate. A
// matter outside the viewer's scope reads as absent, not forbidden.
func (a *API) loadMatterFor(w http.ResponseWriter, r *http.Request, viewer *settle.User, id string) (*settle.Matter, bool) {
	m, err := a.store.Matters().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return nil, false
	}
	if !settle.CanViewMatter(viewer, m) {
		writeError(w, r, http.StatusNotFound, settle.ErrNotFound.Error())
		return nil, false
	}
	return m, true
}

func (a *API) listMatters(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	matters, err := a.store.Matters().ListFor(r.Context(), user)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeItems(w, matters)
}

func (a *API) createMatter(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req createMatterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		writeError(w, r, http.StatusBadRequest, "address is required")
		return
	}

	clientID := strings.TrimSpace(req.ClientUserID)
	if user.Role == auth.RoleClient {
		clientID = user.ID
	}
	if clientID == "" {
		writeError(w, r, http.StatusBadRequest, "clientUserId is required")
		return
	}

	m := &settle.Matter{
		Address:            strings.TrimSpace(req.Address),
		ClientUserID:       clientID,
		ConveyancerUserID:  strings.TrimSpace(req.ConveyancerUserID),
		BrokerUserID:       strings.TrimSpace(req.BrokerUserID),
		SettlementDate:     req.SettlementDate,
		CoolingOffDate:     req.CoolingOffDate,
		FinanceDate:        req.FinanceDate,
		ContractPriceCents: req.ContractPrice,
		DepositCents:       req.Deposit,
	}
	if err := a.store.Matters().Create(r.Context(), m); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "matter.create", "matter", m.ID, map[string]string{
		"client_user_id": clientID,
	})
	w.Header().Set("Location", "/api/matters/"+m.ID)
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) getMatter(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	m, ok := a.loadMatterFor(w, r, user, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) patchMatter(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if _, ok := a.loadMatterFor(w, r, user, id); !ok {
		return
	}

	var req patchMatterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	for name, stage := range map[string]*settle.StageStatus{
		"pillarPreSettlement": req.PillarPreSettlement,
		"pillarExchange":      req.PillarExchange,
		"pillarConditions":    req.PillarConditions,
		"pillarPreCompletion": req.PillarPreCompletion,
		"pillarSettlement":    req.PillarSettlement,
	} {
		if stage != nil && !stage.Valid() {
			writeError(w, r, http.StatusBadRequest, name+" must be one of not_started, in_progress, complete")
			return
		}
	}

	updated, err := a.store.Matters().Update(r.Context(), id, settle.MatterUpdate{
		Address:             req.Address,
		Status:              req.Status,
		ConveyancerUserID:   req.ConveyancerUserID,
		BrokerUserID:        req.BrokerUserID,
		PillarPreSettlement: req.PillarPreSettlement,
		PillarExchange:      req.PillarExchange,
		PillarConditions:    req.PillarConditions,
		PillarPreCompletion: req.PillarPreCompletion,
		PillarSettlement:    req.PillarSettlement,
		SettlementDate:      req.SettlementDate,
		CoolingOffDate:      req.CoolingOffDate,
		FinanceDate:         req.FinanceDate,
		ContractPriceCents:  req.ContractPrice,
		DepositCents:        req.Deposit,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "matter.update", "matter", id, nil)

	pillarTouched := req.PillarPreSettlement != nil || req.PillarExchange != nil ||
		req.PillarConditions != nil || req.PillarPreCompletion != nil || req.PillarSettlement != nil
	if pillarTouched {
		a.notifyPillarUpdate(r, updated)
	}

	writeJSON(w, http.StatusOK, updated)
}

// notifyPillarUpdate emails the matter's client after a pillar change.
// Delivery is best-effort; failures end up in the notification log.
func (a *API) notifyPillarUpdate(r *http.Request, m *settle.Matter) {
	if a.dispatcher == nil || m.ClientUserID == "" {
		return
	}
	client, err := a.store.Users().Find(r.Context(), m.ClientUserID)
	if err != nil {
		return
	}
	_, _ = a.dispatcher.Dispatch(r.Context(), "pillar.updated", settle.ChannelEmail, client, m)
}

func (a *API) getMatterProgress(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	m, ok := a.loadMatterFor(w, r, user, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.Progress())
}

func (a *API) syncMatter(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	m, ok := a.loadMatterFor(w, r, user, id)
	if !ok {
		return
	}
	if a.vendors == nil || !a.vendors.Practice.IsConfigured() {
		writeError(w, r, http.StatusServiceUnavailable, adapters.ErrNotConfigured.Error())
		return
	}

	snap := adapters.MatterSnapshot{
		MatterID: m.ID,
		Address:  m.Address,
		Status:   m.Status,
	}
	if m.SettlementDate != nil {
		snap.SettlementDate = m.SettlementDate.Format(time.RFC3339)
	}
	vendorID, err := a.vendors.Practice.SyncMatter(r.Context(), snap)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	updated, err := a.store.Matters().Update(r.Context(), id, settle.MatterUpdate{
		PracticeMatterID: &vendorID,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "matter.sync", "matter", id, map[string]string{
		"practice_matter_id": vendorID,
	})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) matterFeed(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	m, ok := a.loadMatterFor(w, r, user, id)
	if !ok {
		return
	}
	if m.NetworkWorkspaceID == "" {
		writeError(w, r, http.StatusNotFound, "matter has no settlement workspace")
		return
	}
	if a.vendors == nil || !a.vendors.Feed.IsConfigured() {
		writeError(w, r, http.StatusServiceUnavailable, adapters.ErrNotConfigured.Error())
		return
	}

	status, err := a.vendors.Feed.Workspace(r.Context(), m.NetworkWorkspaceID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func parseLimit(raw string, def, max int) int {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
