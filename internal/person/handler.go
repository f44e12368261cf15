package person

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/personnel-suite/internal/transport"
)

type ServiceAPI interface {
	ListPeople(ctx context.Context, filter ListFilter) (*Page, error)
	GetPerson(ctx context.Context, id int64) (*Person, error)
	GetMe(ctx context.Context) (*Person, error)
	CreatePerson(ctx context.Context, req CreatePersonRequest) (*Person, error)
	UpdatePerson(ctx context.Context, id int64, req UpdatePersonRequest) (*UpdateResult, error)
	DeletePerson(ctx context.Context, id int64) error
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

func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Query:             q.Get("q"),
		FirstName:         q.Get("firstName"),
		LastName:          q.Get("lastName"),
		Email:             q.Get("email"),
		PhoneNumber:       q.Get("phoneNumber"),
		Address:           q.Get("address"),
		Gender:            q.Get("gender"),
		DepartmentID:      queryInt64(q.Get("departmentId")),
		TitleID:           queryInt64(q.Get("titleId")),
		ContractStartFrom: queryOptional(q.Get("contractStartFrom")),
		ContractStartTo:   queryOptional(q.Get("contractStartTo")),
		BirthDateFrom:     queryOptional(q.Get("birthDateFrom")),
		BirthDateTo:       queryOptional(q.Get("birthDateTo")),
		Page:              int(queryInt64(q.Get("page"))),
		Size:              int(queryInt64(q.Get("size"))),
		SortBy:            q.Get("sortBy"),
		Direction:         q.Get("direction"),
	}

	page, err := h.Service.ListPeople(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.GetPerson(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetMe(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.CreatePerson(r.Context(), req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var req UpdatePersonRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	res, err := h.Service.UpdatePerson(r.Context(), id, req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, res.Person)
}

func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.DeletePerson(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func queryOptional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
