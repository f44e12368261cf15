package title

import (
	"context"
	"net/http"

	"github.com/frahmantamala/personnel-suite/internal/transport"
)

type ServiceAPI interface {
	ListTitles(ctx context.Context) ([]*Title, error)
	ListTitlesByDepartment(ctx context.Context, departmentID int64) ([]*Title, error)
	CreateTitle(ctx context.Context, req CreateTitleRequest) (*Title, error)
	UpdateTitle(ctx context.Context, id int64, req UpdateTitleRequest) (*Title, error)
	DeleteTitle(ctx context.Context, id int64) error
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

func (h *Handler) ListTitles(w http.ResponseWriter, r *http.Request) {
	titles, err := h.Service.ListTitles(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, titles)
}

func (h *Handler) ListTitlesByDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID, err := h.PathInt64(r, "departmentId")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	titles, err := h.Service.ListTitlesByDepartment(r.Context(), departmentID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, titles)
}

func (h *Handler) CreateTitle(w http.ResponseWriter, r *http.Request) {
	var req CreateTitleRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	t, err := h.Service.CreateTitle(r.Context(), req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var req UpdateTitleRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	t, err := h.Service.UpdateTitle(r.Context(), id, req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := h.Service.DeleteTitle(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
