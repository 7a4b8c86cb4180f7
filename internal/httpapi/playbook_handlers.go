package httpapi

import (
	"net/http"
	"strings"
)

func (a *API) handlePlaybookList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireUser(w, r); !ok {
		return
	}
	articles, err := a.store.Playbook().List(r.Context(),
		r.URL.Query().Get("category"), r.URL.Query().Get("pillar"))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeItems(w, articles)
}

func (a *API) handlePlaybookArticle(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimPrefix(r.URL.Path, "/api/playbook/")
	if slug == "" || strings.Contains(slug, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireUser(w, r); !ok {
		return
	}
	article, err := a.store.Playbook().FindBySlug(r.Context(), slug)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}
