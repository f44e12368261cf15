package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/personnel-suite/internal/auth"
	authRepo "github.com/frahmantamala/personnel-suite/internal/auth/postgres"
	"github.com/frahmantamala/personnel-suite/internal/transport"
	"github.com/frahmantamala/personnel-suite/internal/transport/middleware"
	"github.com/frahmantamala/personnel-suite/internal/transport/rest"
)

var authServerCmd = &cobra.Command{
	Use:   "auth",
	Short: "Start the identity provider API",
	Long:  `Start the HTTP server issuing and validating tokens and provisioning accounts`,
	Run: func(cmd *cobra.Command, args []string) {
		startAuthServer()
	},
}

func newAuthService(deps *Dependencies) *auth.Service {
	cfg := deps.Config.Security
	tokens := auth.NewJWTTokenGenerator(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenDuration, cfg.RefreshTokenDuration)
	return auth.NewService(authRepo.NewUserRepository(deps.Gorm), tokens, deps.publisher(), deps.Logger, auth.Options{
		AdminEmail: cfg.AdminEmail,
		BCryptCost: cfg.BCryptCost,
	})
}

func startAuthServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	cfg := deps.Config
	lg := deps.Logger

	svc := newAuthService(deps)
	if created, err := svc.SeedAdmin(context.Background(), cfg.Security.AdminPassword); err != nil {
		lg.Error("failed to ensure admin account", "error", err)
	} else if created {
		lg.Info("admin account created", "email", cfg.Security.AdminEmail)
	}

	loginLimit := rateLimiter(cfg.RateLimit.Enabled, cfg.RateLimit.LoginRate)

	router := chi.NewRouter()
	handler := auth.NewHandler(transport.NewBaseHandler(lg), svc)
	rest.RegisterAuthRoutes(router, rest.NewHealthHandler(deps.healthChecks()), handler, loginLimit, deps.routerConfig(), lg)

	serve(cfg.Server, cfg.Identity.Port, router, lg)
}

func rateLimiter(enabled bool, rate string) func(http.Handler) http.Handler {
	if !enabled {
		return nil
	}
	mw, err := middleware.RateLimit(rate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid login rate limit: %v\n", err)
		os.Exit(1)
	}
	return mw
}
