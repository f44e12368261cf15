package person_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/person"
	"github.com/frahmantamala/personnel-suite/internal/transport"
)

type mockService struct {
	lastFilter person.ListFilter
	lastUpdate person.UpdatePersonRequest
	people     map[int64]*person.Person
	failError  error
}

func (m *mockService) ListPeople(_ context.Context, filter person.ListFilter) (*person.Page, error) {
	m.lastFilter = filter
	if m.failError != nil {
		return nil, m.failError
	}
	return person.NewPage([]*person.Person{m.people[5]}, filter, 1), nil
}

func (m *mockService) GetPerson(_ context.Context, id int64) (*person.Person, error) {
	if m.failError != nil {
		return nil, m.failError
	}
	p, ok := m.people[id]
	if !ok {
		return nil, apperrors.ErrPersonNotFound
	}
	return p, nil
}

func (m *mockService) GetMe(context.Context) (*person.Person, error) {
	return m.people[5], m.failError
}

func (m *mockService) CreatePerson(_ context.Context, req person.CreatePersonRequest) (*person.Person, error) {
	if m.failError != nil {
		return nil, m.failError
	}
	return &person.Person{ID: 6, FirstName: req.FirstName, LastName: req.LastName, Email: req.Email}, nil
}

func (m *mockService) UpdatePerson(_ context.Context, id int64, req person.UpdatePersonRequest) (*person.UpdateResult, error) {
	m.lastUpdate = req
	if m.failError != nil {
		return nil, m.failError
	}
	return &person.UpdateResult{Person: m.people[id]}, nil
}

func (m *mockService) DeletePerson(context.Context, int64) error {
	return m.failError
}

var _ = Describe("Handler", func() {
	var (
		svc    *mockService
		router chi.Router
	)

	BeforeEach(func() {
		svc = &mockService{people: map[int64]*person.Person{
			5: {ID: 5, FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com"},
		}}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		h := person.NewHandler(transport.NewBaseHandler(lg), svc)

		router = chi.NewRouter()
		router.Get("/people", h.ListPeople)
		router.Post("/people", h.CreatePerson)
		router.Get("/people/{id}", h.GetPerson)
		router.Put("/people/{id}", h.UpdatePerson)
		router.Delete("/people/{id}", h.DeletePerson)
	})

	serve := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("passes query parameters to the list filter", func() {
		rec := serve(http.MethodGet, "/people?q=ada&departmentId=3&page=2&size=5&sortBy=lastName&direction=desc&birthDateFrom=1990-01-01", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastFilter.Query).To(Equal("ada"))
		Expect(svc.lastFilter.DepartmentID).To(Equal(int64(3)))
		Expect(svc.lastFilter.Page).To(Equal(2))
		Expect(svc.lastFilter.Size).To(Equal(5))
		Expect(*svc.lastFilter.BirthDateFrom).To(Equal("1990-01-01"))
		Expect(svc.lastFilter.BirthDateTo).To(BeNil())

		var page map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &page)).To(Succeed())
		Expect(page).To(HaveKey("totalElements"))
		Expect(page).To(HaveKey("content"))
	})

	It("distinguishes absent, empty and present fields on update", func() {
		rec := serve(http.MethodPut, "/people/5", `{"address":"","phoneNumber":"555","departmentId":2}`)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastUpdate.FirstName).To(BeNil())
		Expect(*svc.lastUpdate.Address).To(Equal(""))
		Expect(*svc.lastUpdate.PhoneNumber).To(Equal("555"))
		Expect(*svc.lastUpdate.DepartmentID).To(Equal(int64(2)))
		Expect(svc.lastUpdate.TitleID).To(BeNil())
	})

	It("maps the head conflict to 409", func() {
		svc.failError = apperrors.ErrDepartmentHasHead
		rec := serve(http.MethodPut, "/people/5", `{"titleId":4,"departmentId":2}`)

		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(rec.Body.String()).To(ContainSubstring("department already has a head"))
	})

	It("rejects unknown body fields", func() {
		rec := serve(http.MethodPut, "/people/5", `{"nickname":"Ada"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for unknown people", func() {
		rec := serve(http.MethodGet, "/people/77", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects non-numeric ids", func() {
		rec := serve(http.MethodGet, "/people/abc", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("creates people", func() {
		rec := serve(http.MethodPost, "/people", `{"firstName":"Grace","lastName":"Hopper","email":"g@x.com"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(rec.Body.String()).To(ContainSubstring(`"firstName":"Grace"`))
	})

	It("deletes people", func() {
		rec := serve(http.MethodDelete, "/people/5", "")
		Expect(rec.Code).To(Equal(http.StatusNoContent))
	})
})
