package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"settleline.app/internal/cache"
	"settleline.app/internal/ids"
)

type postMessageRequest struct {
	Body string `json:"body"`
}

func (a *API) handleMatterMessages(w http.ResponseWriter, r *http.Request, matterID string) {
	switch r.Method {
	case http.MethodGet:
		a.listMatterMessages(w, r, matterID)
	case http.MethodPost:
		a.postMatterMessage(w, r, matterID)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listMatterMessages(w http.ResponseWriter, r *http.Request, matterID string) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if _, ok := a.loadMatterFor(w, r, user, matterID); !ok {
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"), 100, 500)
	msgs, err := a.cache.ListMessages(r.Context(), matterID, limit)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeItems(w, msgs)
}

func (a *API) postMatterMessage(w http.ResponseWriter, r *http.Request, matterID string) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if _, ok := a.loadMatterFor(w, r, user, matterID); !ok {
		return
	}

	var req postMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		writeError(w, r, http.StatusBadRequest, "body is required")
		return
	}
	if len(body) > 4000 {
		writeError(w, r, http.StatusBadRequest, "body must be <=4000 characters")
		return
	}

	msg := cache.Message{
		ID:           ids.New(),
		MatterID:     matterID,
		AuthorUserID: user.ID,
		AuthorName:   user.Name,
		Body:         body,
		SentAt:       time.Now().UTC(),
	}
	if err := a.cache.AppendMessage(r.Context(), msg); err != nil {
		handleStoreError(w, r, err)
		return
	}
	if a.stream != nil {
		a.stream.Publish(msg)
	}

	writeJSON(w, http.StatusCreated, msg)
}

// streamMatterMessages pushes new messages for one matter as Server-Sent
// Events until the client disconnects.
func (a *API) streamMatterMessages(w http.ResponseWriter, r *http.Request, matterID string) {
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
	if a.stream == nil {
		writeError(w, r, http.StatusServiceUnavailable, "streaming disabled")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := a.stream.Subscribe(r.Context(), matterID)

	// Initial comment establishes the stream on the client side.
	_, _ = w.Write([]byte(": stream started\n\n"))
	flusher.Flush()

	for msg := range ch {
		payload, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}
}
