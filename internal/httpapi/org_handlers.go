package httpapi

import (
	"net/http"
	"strings"

	"settleline.app/internal/settle"
)

type createOrganisationRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (a *API) handleOrganisationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listOrganisations(w, r)
	case http.MethodPost:
		a.createOrganisation(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrganisationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/organisations/")
	id, sub, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch sub {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getOrganisation(w, r, id)
	case "members":
		a.handleOrganisationMembers(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) listOrganisations(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireUser(w, r); !ok {
		return
	}
	orgs, err := a.store.Organisations().List(r.Context())
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeItems(w, orgs)
}

func (a *API) createOrganisation(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req createOrganisationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	org := &settle.Organisation{Name: strings.TrimSpace(req.Name)}
	if err := a.store.Organisations().Create(r.Context(), org); err != nil {
		handleStoreError(w, r, err)
		return
	}
	// Creator becomes the owner.
	owner := &settle.OrganisationMember{
		OrganisationID: org.ID,
		UserID:         user.ID,
		Role:           settle.OrgOwner,
	}
	if err := a.store.Organisations().AddMember(r.Context(), owner); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "organisation.create", "organisation", org.ID, nil)
	writeJSON(w, http.StatusCreated, org)
}

func (a *API) getOrganisation(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireUser(w, r); !ok {
		return
	}
	org, err := a.store.Organisations().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	members, err := a.store.Organisations().Members(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"organisation": org,
		"members":      members,
	})
}

func (a *API) handleOrganisationMembers(w http.ResponseWriter, r *http.Request, orgID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := a.requireUser(w, r); !ok {
		return
	}

	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, r, http.StatusBadRequest, "userId is required")
		return
	}
	role := req.Role
	if role == "" {
		role = settle.OrgMember
	}
	switch role {
	case settle.OrgOwner, settle.OrgManager, settle.OrgMember:
	default:
		writeError(w, r, http.StatusBadRequest, "role must be one of OWNER, MANAGER, MEMBER")
		return
	}

	if _, err := a.store.Organisations().Find(r.Context(), orgID); err != nil {
		handleStoreError(w, r, err)
		return
	}
	if _, err := a.store.Users().Find(r.Context(), req.UserID); err != nil {
		handleStoreError(w, r, err)
		return
	}

	member := &settle.OrganisationMember{
		OrganisationID: orgID,
		UserID:         req.UserID,
		Role:           role,
	}
	if err := a.store.Organisations().AddMember(r.Context(), member); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "organisation.member.add", "organisation", orgID, map[string]string{
		"user_id": req.UserID,
		"role":    role,
	})
	writeJSON(w, http.StatusCreated, member)
}
