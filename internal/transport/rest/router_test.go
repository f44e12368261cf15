package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/internal/transport/rest"
)

type stubValidator struct {
	principals map[string]*user.Principal
}

func (v stubValidator) ValidateToken(_ context.Context, token string) (*user.Principal, error) {
	if p, ok := v.principals[token]; ok {
		return p, nil
	}
	return nil, errors.New("unknown token")
}

var _ = Describe("Health", func() {
	It("reports healthy when the database answers", func() {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()
		mock.ExpectPing()

		h := rest.NewHealthHandler(map[string]rest.Check{"postgres": rest.DBCheck(db)})
		rec := httptest.NewRecorder()
		h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var body rest.HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Status).To(Equal(rest.HealthHealthy))
		Expect(body.Components).To(HaveKey("postgres"))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("answers 503 when any dependency fails", func() {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		h := rest.NewHealthHandler(map[string]rest.Check{
			"postgres": rest.DBCheck(db),
			"redis":    func(context.Context) error { return nil },
		})
		rec := httptest.NewRecorder()
		h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		var body rest.HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Components["postgres"].Status).To(Equal(rest.HealthUnhealthy))
		Expect(body.Components["postgres"].Message).To(ContainSubstring("connection refused"))
		Expect(body.Components["redis"].Status).To(Equal(rest.HealthHealthy))
	})
})

var _ = Describe("Personnel routes", func() {
	var router *chi.Mux

	BeforeEach(func() {
		router = chi.NewRouter()
		health := rest.NewHealthHandler(map[string]rest.Check{"noop": func(context.Context) error { return nil }})
		validator := stubValidator{principals: map[string]*user.Principal{
			"employee-token": {Email: "e@example.com", Role: user.RoleEmployee, Roles: []user.Role{user.RoleEmployee}},
		}}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		rest.RegisterPersonnelRoutes(router, health, validator, rest.PersonnelHandlers{}, rest.RouterConfig{}, logger)
	})

	It("serves health without a token", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})

	It("rejects requests without a bearer token", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/people", nil))
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects tokens the identity provider does not accept", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/me", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	DescribeTable("forbids writes to callers without the required role",
		func(method, path string) {
			req := httptest.NewRequest(method, path, nil)
			req.Header.Set("Authorization", "Bearer employee-token")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		},
		Entry("create person", http.MethodPost, "/api/v1/people"),
		Entry("update person", http.MethodPut, "/api/v1/people/5"),
		Entry("assign head", http.MethodPost, "/api/v1/departments/1/assign-head"),
		Entry("delete title", http.MethodDelete, "/api/v1/titles/3"),
		Entry("create task", http.MethodPost, "/api/v1/tasks/create"),
		Entry("close task", http.MethodPut, "/api/v1/tasks/9/close"),
	)
})
