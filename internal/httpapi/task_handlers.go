package httpapi

import (
	"net/http"
	"strings"
	"time"

	"settleline.app/internal/settle"
)

type createTaskRequest struct {
	MatterID       string     `json:"matterId"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"dueDate"`
	Category       string     `json:"category"`
	AssigneeUserID string     `json:"assigneeUserId"`
}

type patchTaskRequest struct {
	Title          *string    `json:"title"`
	Status         *string    `json:"status"`
	DueDate        *time.Time `json:"dueDate"`
	Category       *string    `json:"category"`
	AssigneeUserID *string    `json:"assigneeUserId"`
}

func (a *API) handleTasksCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	if req.Status != "" && !settle.ValidTaskStatus(req.Status) {
		writeError(w, r, http.StatusBadRequest, "status must be one of PENDING, IN_REVIEW, COMPLETE")
		return
	}
	if _, ok := a.loadMatterFor(w, r, user, req.MatterID); !ok {
		return
	}

	status := req.Status
	if status == "" {
		status = settle.TaskPending
	}
	task := &settle.Task{
		MatterID:       req.MatterID,
		Title:          strings.TrimSpace(req.Title),
		Status:         status,
		DueDate:        req.DueDate,
		Category:       req.Category,
		AssigneeUserID: req.AssigneeUserID,
	}
	if err := a.store.Tasks().Create(r.Context(), task); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "task.create", "task", task.ID, map[string]string{"matter_id": task.MatterID})
	writeJSON(w, http.StatusCreated, task)
}

func (a *API) handleTaskResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	task, err := a.store.Tasks().Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if _, ok := a.loadMatterFor(w, r, user, task.MatterID); !ok {
		return
	}

	var req patchTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status != nil && !settle.ValidTaskStatus(*req.Status) {
		writeError(w, r, http.StatusBadRequest, "status must be one of PENDING, IN_REVIEW, COMPLETE")
		return
	}

	updated, err := a.store.Tasks().Update(r.Context(), id, settle.TaskUpdate{
		Title:          req.Title,
		Status:         req.Status,
		DueDate:        req.DueDate,
		Category:       req.Category,
		AssigneeUserID: req.AssigneeUserID,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "task.update", "task", id, nil)
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) listMatterTasks(w http.ResponseWriter, r *http.Request, matterID string) {
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
	tasks, err := a.store.Tasks().ListByMatter(r.Context(), matterID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeItems(w, tasks)
}
