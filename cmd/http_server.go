package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/broker"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/internal/department"
	departmentRepo "github.com/frahmantamala/personnel-suite/internal/department/postgres"
	"github.com/frahmantamala/personnel-suite/internal/identity"
	"github.com/frahmantamala/personnel-suite/internal/meeting"
	meetingRepo "github.com/frahmantamala/personnel-suite/internal/meeting/postgres"
	"github.com/frahmantamala/personnel-suite/internal/notification"
	"github.com/frahmantamala/personnel-suite/internal/person"
	personRepo "github.com/frahmantamala/personnel-suite/internal/person/postgres"
	"github.com/frahmantamala/personnel-suite/internal/task"
	taskRepo "github.com/frahmantamala/personnel-suite/internal/task/postgres"
	"github.com/frahmantamala/personnel-suite/internal/title"
	titleRepo "github.com/frahmantamala/personnel-suite/internal/title/postgres"
	"github.com/frahmantamala/personnel-suite/internal/transport"
	"github.com/frahmantamala/personnel-suite/internal/transport/rest"
	"github.com/frahmantamala/personnel-suite/internal/transport/swagger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the personnel API",
	Long:  `Start the HTTP server for people, departments, titles, tasks and meetings`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Redis  *redis.Client
	Logger *slog.Logger

	dispatcher *notification.Dispatcher
}

func (d *Dependencies) Close() {
	if d.dispatcher != nil {
		d.dispatcher.Shutdown()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func (d *Dependencies) healthChecks() map[string]rest.Check {
	checks := map[string]rest.Check{"postgres": rest.DBCheck(d.DB.DB)}
	if d.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() }
	}
	return checks
}

// publisher sends events to the broker. When the broker is disabled they go
// to an in-process bus that feeds the notification dispatcher directly.
func (d *Dependencies) publisher() events.Publisher {
	if d.Redis == nil {
		bus := events.NewEventBus(d.Logger)
		dispatcher, err := newNotifier(d.Config, bus, d.Logger)
		if err != nil {
			d.Logger.Error("broker disabled and notifications unavailable, domain events are not delivered", "error", err)
			return bus
		}
		d.dispatcher = dispatcher
		d.Logger.Info("broker disabled, notifications are sent in-process")
		return bus
	}
	return broker.NewRedisPublisher(d.Redis, broker.Options{
		StreamPrefix:   d.Config.Broker.StreamPrefix,
		MaxLen:         d.Config.Broker.MaxLen,
		PublishTimeout: d.Config.Broker.PublishTimeout,
	}, d.Logger)
}

func (d *Dependencies) routerConfig() rest.RouterConfig {
	return rest.RouterConfig{
		AllowedOrigins: d.Config.Server.Origins(),
		MetricsEnabled: d.Config.Observability.Metrics.Enabled,
		MetricsPath:    d.Config.Observability.Metrics.Path,
		OpenAPIPath:    d.Config.Server.OpenAPIPath,
	}
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	cfg := deps.Config
	lg := deps.Logger

	if _, err := swagger.LoadSpec(context.Background(), cfg.Server.OpenAPIPath); err != nil {
		lg.Warn("openapi description not served correctly", "error", err)
	}

	identityClient := identity.NewClient(identity.Config{BaseURL: cfg.Identity.BaseURL, Timeout: cfg.Identity.Timeout}, lg)
	synchronizer := identity.NewSynchronizer(identityClient, cfg.Identity.SyncTimeout, lg)
	publisher := deps.publisher()
	base := transport.NewBaseHandler(lg)

	handlers := rest.PersonnelHandlers{
		Person:     person.NewHandler(base, person.NewService(personRepo.NewPersonRepository(deps.Gorm), synchronizer, publisher, lg)),
		Department: department.NewHandler(base, department.NewService(departmentRepo.NewDepartmentRepository(deps.Gorm), synchronizer, lg)),
		Title:      title.NewHandler(base, title.NewService(titleRepo.NewTitleRepository(deps.Gorm), lg)),
		Task:       task.NewHandler(base, task.NewService(taskRepo.NewTaskRepository(deps.Gorm), publisher, lg)),
		Meeting:    meeting.NewHandler(base, meeting.NewService(meetingRepo.NewMeetingRepository(deps.Gorm), publisher, lg)),
	}

	router := chi.NewRouter()
	rest.RegisterPersonnelRoutes(router, rest.NewHealthHandler(deps.healthChecks()), identityClient, handlers, deps.routerConfig(), lg)

	serve(cfg.Server, cfg.Server.Port, router, lg)
}

// serve runs the HTTP server until SIGINT/SIGTERM, then shuts it down gracefully.
func serve(cfg internal.ServerConfig, port int, handler http.Handler, lg *slog.Logger) {
	addr := fmt.Sprintf(":%d", port)
	lg.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			lg.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Server failed to start", "error", err)
			return
		}
	}

	lg.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, lg := mustLoad()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{Config: config, DB: db, Gorm: gdb, Logger: lg}
	if config.Broker.Enabled {
		deps.Redis = initRedis(config.Broker)
	}
	return deps, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm wraps the existing pool so sqlx and gorm share connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

func initRedis(cfg internal.BrokerConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
