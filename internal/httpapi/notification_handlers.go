package httpapi

import (
	"net/http"
	"strings"

	"settleline.app/internal/auth"
	"settleline.app/internal/settle"
)

type createTemplateRequest struct {
	Name    string `json:"name"`
	Channel string `json:"channel"`
	Trigger string `json:"trigger"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Active  *bool  `json:"active"`
}

type patchTemplateRequest struct {
	Name    *string `json:"name"`
	Channel *string `json:"channel"`
	Trigger *string `json:"trigger"`
	Subject *string `json:"subject"`
	Body    *string `json:"body"`
	Active  *bool   `json:"active"`
}

type sendNotificationRequest struct {
	Trigger         string `json:"trigger"`
	Channel         string `json:"channel"`
	RecipientUserID string `json:"recipientUserId"`
	MatterID        string `json:"matterId"`
}

// requireAdmin gates the notification administration surface.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) (*settle.User, bool) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return nil, false
	}
	if user.Role != auth.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return nil, false
	}
	return user, true
}

func (a *API) handleTemplatesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTemplates(w, r)
	case http.MethodPost:
		a.createTemplate(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTemplateResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/notification-templates/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		a.patchTemplate(w, r, id)
	case http.MethodDelete:
		a.deleteTemplate(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) listTemplates(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	templates, err := a.store.Templates().List(r.Context())
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeItems(w, templates)
}

func (a *API) createTemplate(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	var req createTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Trigger) == "" {
		writeError(w, r, http.StatusBadRequest, "trigger is required")
		return
	}
	if !settle.ValidNotificationChannel(req.Channel) {
		writeError(w, r, http.StatusBadRequest, "channel must be one of email, sms, push")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		writeError(w, r, http.StatusBadRequest, "body is required")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	tmpl := &settle.NotificationTemplate{
		Name:    strings.TrimSpace(req.Name),
		Channel: req.Channel,
		Trigger: strings.TrimSpace(req.Trigger),
		Subject: req.Subject,
		Body:    req.Body,
		Active:  active,
	}
	if err := a.store.Templates().Create(r.Context(), tmpl); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "template.create", "notification_template", tmpl.ID, map[string]string{
		"trigger": tmpl.Trigger,
		"channel": tmpl.Channel,
	})
	writeJSON(w, http.StatusCreated, tmpl)
}

func (a *API) patchTemplate(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	var req patchTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Channel != nil && !settle.ValidNotificationChannel(*req.Channel) {
		writeError(w, r, http.StatusBadRequest, "channel must be one of email, sms, push")
		return
	}

	updated, err := a.store.Templates().Update(r.Context(), id, settle.TemplateUpdate{
		Name:    req.Name,
		Channel: req.Channel,
		Trigger: req.Trigger,
		Subject: req.Subject,
		Body:    req.Body,
		Active:  req.Active,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "template.update", "notification_template", id, nil)
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteTemplate(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	if err := a.store.Templates().Delete(r.Context(), id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.audit(r.Context(), "template.delete", "notification_template", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleNotificationLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"), 100, 1000)
	logs, err := a.store.NotificationLogs().List(r.Context(), limit)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeItems(w, logs)
}

func (a *API) handleNotificationSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	if a.dispatcher == nil {
		writeError(w, r, http.StatusServiceUnavailable, "notification dispatch is not configured")
		return
	}

	var req sendNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Trigger) == "" {
		writeError(w, r, http.StatusBadRequest, "trigger is required")
		return
	}
	if !settle.ValidNotificationChannel(req.Channel) {
		writeError(w, r, http.StatusBadRequest, "channel must be one of email, sms, push")
		return
	}
	if req.RecipientUserID == "" {
		writeError(w, r, http.StatusBadRequest, "recipientUserId is required")
		return
	}

	recipient, err := a.store.Users().Find(r.Context(), req.RecipientUserID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	var matter *settle.Matter
	if req.MatterID != "" {
		matter, err = a.store.Matters().Find(r.Context(), req.MatterID)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
	}

	entry, err := a.dispatcher.Dispatch(r.Context(), req.Trigger, req.Channel, recipient, matter)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "notification.send", "notification_log", entry.ID, map[string]string{
		"trigger": req.Trigger,
		"channel": req.Channel,
		"status":  entry.Status,
	})
	writeJSON(w, http.StatusOK, entry)
}
