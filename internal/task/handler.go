package task

import (
	"context"
	"net/http"

	"github.com/frahmantamala/personnel-suite/internal/transport"
)

type ServiceAPI interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error)
	UpdateTaskStatus(ctx context.Context, id int64, req UpdateStatusRequest) (*Task, error)
	CloseTask(ctx context.Context, id int64) (*Task, error)
	ListTasks(ctx context.Context) ([]*Task, error)
	ListMyTasks(ctx context.Context) ([]*Task, error)
	ListUserTasks(ctx context.Context) ([]*Task, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	t, err := h.Service.CreateTask(r.Context(), req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var req UpdateStatusRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	t, err := h.Service.UpdateTaskStatus(r.Context(), id, req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) CloseTask(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	t, err := h.Service.CloseTask(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Service.ListTasks)
}

func (h *Handler) ListMyTasks(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Service.ListMyTasks)
}

func (h *Handler) ListUserTasks(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Service.ListUserTasks)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]*Task, error)) {
	tasks, err := list(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, tasks)
}
