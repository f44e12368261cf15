package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/personnel-suite/internal/auth"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/internal/department"
	"github.com/frahmantamala/personnel-suite/internal/meeting"
	"github.com/frahmantamala/personnel-suite/internal/person"
	"github.com/frahmantamala/personnel-suite/internal/task"
	"github.com/frahmantamala/personnel-suite/internal/title"
	"github.com/frahmantamala/personnel-suite/internal/transport/middleware"
	"github.com/frahmantamala/personnel-suite/internal/transport/swagger"
	"github.com/frahmantamala/personnel-suite/pkg/metrics"
)

type RouterConfig struct {
	AllowedOrigins []string
	MetricsEnabled bool
	MetricsPath    string
	OpenAPIPath    string
}

type PersonnelHandlers struct {
	Person     *person.Handler
	Department *department.Handler
	Title      *title.Handler
	Task       *task.Handler
	Meeting    *meeting.Handler
}

func registerCommon(router chi.Router, health *HealthHandler, cfg RouterConfig, logger *slog.Logger) {
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	if cfg.MetricsEnabled {
		router.Use(metrics.Middleware)
		router.Handle(cfg.MetricsPath, metrics.Handler())
	}

	if cfg.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, cfg.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}
}

// RegisterPersonnelRoutes mounts the personnel API. Every route under
// /api/v1 except health needs a bearer token the identity provider accepts.
func RegisterPersonnelRoutes(router chi.Router, health *HealthHandler, validator middleware.TokenValidator, h PersonnelHandlers, cfg RouterConfig, logger *slog.Logger) {
	registerCommon(router, health, cfg, logger)

	writers := middleware.RequireRoles(user.RoleAdmin, user.RoleHR)

	router.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", health.Health)
		api.Get("/ping", health.Ping)

		api.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(validator, logger))

			r.Route("/people", func(pr chi.Router) {
				pr.Get("/", h.Person.ListPeople)
				pr.Get("/me", h.Person.GetMe)
				pr.Get("/{id}", h.Person.GetPerson)
				pr.With(writers).Post("/", h.Person.CreatePerson)
				pr.With(writers).Put("/{id}", h.Person.UpdatePerson)
				pr.With(writers).Delete("/{id}", h.Person.DeletePerson)
			})

			r.Route("/departments", func(dr chi.Router) {
				dr.Get("/", h.Department.ListDepartments)
				dr.Get("/organization-structure", h.Department.OrganizationStructure)
				dr.Get("/{id}", h.Department.GetDepartment)
				dr.Group(func(wr chi.Router) {
					wr.Use(writers)
					wr.Post("/", h.Department.CreateDepartment)
					wr.Put("/{id}", h.Department.UpdateDepartment)
					wr.Post("/{id}/assign-head", h.Department.AssignHead)
					wr.Post("/{id}/clear-head", h.Department.ClearHead)
					wr.Delete("/{id}", h.Department.DeleteDepartment)
				})
			})

			r.Route("/titles", func(tr chi.Router) {
				tr.Get("/", h.Title.ListTitles)
				tr.Get("/department/{departmentId}", h.Title.ListTitlesByDepartment)
				tr.Group(func(wr chi.Router) {
					wr.Use(writers)
					wr.Post("/", h.Title.CreateTitle)
					wr.Put("/{id}", h.Title.UpdateTitle)
					wr.Delete("/{id}", h.Title.DeleteTitle)
				})
			})

			r.Route("/tasks", func(tr chi.Router) {
				tr.Get("/", h.Task.ListTasks)
				tr.Get("/me", h.Task.ListMyTasks)
				tr.Get("/user", h.Task.ListUserTasks)
				tr.With(middleware.RequireRoles(user.RoleAdmin, user.RoleHead, user.RoleHR)).Post("/create", h.Task.CreateTask)
				tr.With(middleware.RequireRoles(user.RoleAdmin, user.RoleHead, user.RoleEmployee)).Put("/{id}/status", h.Task.UpdateTaskStatus)
				tr.With(middleware.RequireRoles(user.RoleAdmin, user.RoleHead)).Put("/{id}/close", h.Task.CloseTask)
			})

			r.Route("/meetings", func(mr chi.Router) {
				mr.Get("/", h.Meeting.ListMeetings)
				mr.Get("/me", h.Meeting.ListMyMeetings)
				mr.Get("/user", h.Meeting.ListUserMeetings)
				mr.Get("/department/{departmentId}", h.Meeting.ListDepartmentMeetings)
				mr.Get("/{id}", h.Meeting.GetMeeting)
				mr.Post("/create", h.Meeting.CreateMeeting)
			})
		})
	})
}

// RegisterAuthRoutes mounts the identity provider API. loginLimit may be nil.
func RegisterAuthRoutes(router chi.Router, health *HealthHandler, h *auth.Handler, loginLimit func(http.Handler) http.Handler, cfg RouterConfig, logger *slog.Logger) {
	registerCommon(router, health, cfg, logger)

	router.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", health.Health)
		api.Get("/ping", health.Ping)

		api.Route("/auth", func(r chi.Router) {
			if loginLimit != nil {
				r.With(loginLimit).Post("/login", h.Login)
			} else {
				r.Post("/login", h.Login)
			}
			r.Post("/refresh", h.RefreshToken)
			r.Post("/validate", h.Validate)
			r.Post("/provision", h.Provision)
			r.Post("/update-user", h.UpdateUser)
		})
	})
}
