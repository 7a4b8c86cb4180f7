package httpapi

import (
	"net/http"
	"strings"

	"settleline.app/internal/settle"
)

type createDocumentRequest struct {
	MatterID   string `json:"matterId"`
	Name       string `json:"name"`
	SizeLabel  string `json:"sizeLabel"`
	Locked     bool   `json:"locked"`
	StorageKey string `json:"storageKey"`
}

func (a *API) handleDocumentsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req createDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if _, ok := a.loadMatterFor(w, r, user, req.MatterID); !ok {
		return
	}

	doc := &settle.Document{
		MatterID:         req.MatterID,
		Name:             strings.TrimSpace(req.Name),
		SizeLabel:        req.SizeLabel,
		UploadedByUserID: user.ID,
		Locked:           req.Locked,
		StorageKey:       req.StorageKey,
	}
	if err := a.store.Documents().Create(r.Context(), doc); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "document.create", "document", doc.ID, map[string]string{"matter_id": doc.MatterID})
	writeJSON(w, http.StatusCreated, doc)
}

func (a *API) handleDocumentResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	doc, err := a.store.Documents().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if _, ok := a.loadMatterFor(w, r, user, doc.MatterID); !ok {
		return
	}

	if err := a.store.Documents().Delete(r.Context(), id); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "document.delete", "document", id, map[string]string{"matter_id": doc.MatterID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listMatterDocuments(w http.ResponseWriter, r *http.Request, matterID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if _, ok := a.loadMatterFor(w, r, user, matterID); !ok {
		return
	}
	docs, err := a.store.Documents().ListByMatter(r.Context(), matterID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeItems(w, docs)
}
