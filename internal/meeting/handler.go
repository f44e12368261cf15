package meeting

import (
	"context"
	"net/http"

	"github.com/frahmantamala/personnel-suite/internal/transport"
)

type ServiceAPI interface {
	CreateMeeting(ctx context.Context, req CreateMeetingRequest) (*Meeting, error)
	GetMeeting(ctx context.Context, id int64) (*Meeting, error)
	ListMeetings(ctx context.Context) ([]*Meeting, error)
	ListMyMeetings(ctx context.Context) ([]*Meeting, error)
	ListUserMeetings(ctx context.Context) ([]*Meeting, error)
	ListDepartmentMeetings(ctx context.Context, departmentID int64) ([]*Meeting, error)
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

func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req CreateMeetingRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	m, err := h.Service.CreateMeeting(r.Context(), req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	m, err := h.Service.GetMeeting(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.Service.ListMeetings(r.Context())
	h.writeList(w, meetings, err)
}

func (h *Handler) ListMyMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.Service.ListMyMeetings(r.Context())
	h.writeList(w, meetings, err)
}

func (h *Handler) ListUserMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.Service.ListUserMeetings(r.Context())
	h.writeList(w, meetings, err)
}

func (h *Handler) ListDepartmentMeetings(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathInt64(r, "departmentId")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	meetings, err := h.Service.ListDepartmentMeetings(r.Context(), id)
	h.writeList(w, meetings, err)
}

func (h *Handler) writeList(w http.ResponseWriter, meetings []*Meeting, err error) {
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, meetings)
}
