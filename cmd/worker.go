package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/personnel-suite/internal/broker"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/internal/transport/rest"
	"github.com/frahmantamala/personnel-suite/pkg/metrics"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers consuming the broker`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start the notification dispatch worker",
	Long:  `Consume domain events from the broker and send the matching e-mails`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	metricsPort  int
)

func startNotificationWorker() {
	cfg, lg := mustLoad()
	if !cfg.Broker.Enabled {
		fmt.Fprintln(os.Stderr, "the notification worker needs the broker; set broker.enabled")
		os.Exit(1)
	}

	eventBus := events.NewEventBus(lg)
	dispatcher, err := newNotifier(cfg, eventBus, lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start notifications: %v\n", err)
		os.Exit(1)
	}

	rdb := initRedis(cfg.Broker)
	defer rdb.Close()

	consumer := broker.NewConsumer(rdb, broker.NewRegistry(), syncSink{eventBus}, broker.ConsumerOptions{
		StreamPrefix: cfg.Broker.StreamPrefix,
		Group:        cfg.Broker.ConsumerGroup,
		Name:         cfg.Broker.ConsumerName,
		BlockTimeout: cfg.Broker.BlockTimeout,
		BatchSize:    cfg.Broker.BatchSize,
	}, lg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if metricsPort > 0 {
		checks := map[string]rest.Check{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}
		metricsPath := ""
		if cfg.Observability.Metrics.Enabled {
			metricsPath = cfg.Observability.Metrics.Path
		}
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", metricsPort),
			Handler:           workerRouter(metricsPath, checks),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				lg.Error("metrics server failed", "error", err)
			}
		}()
	}

	lg.Info("notification worker is running. Press Ctrl+C to stop.")
	if err := consumer.Run(ctx); err != nil {
		lg.Error("consumer stopped with error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	shutdownDone := make(chan struct{})
	go func() {
		dispatcher.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		lg.Info("notification worker shutdown complete")
	case <-shutdownCtx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

// workerRouter serves liveness and dependency health for the worker, plus
// prometheus metrics when metricsPath is set.
func workerRouter(metricsPath string, checks map[string]rest.Check) http.Handler {
	router := chi.NewRouter()
	health := rest.NewHealthHandler(checks)
	router.Get("/health", health.Health)
	router.Get("/ping", health.Ping)
	if metricsPath != "" {
		router.Handle(metricsPath, metrics.Handler())
	}
	return router
}

// syncSink runs listeners inline so the consumer sees their errors.
type syncSink struct {
	bus *events.EventBus
}

func (s syncSink) Publish(ctx context.Context, event events.Event) error {
	return s.bus.PublishSync(ctx, event)
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	notificationWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of mail workers (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&jobQueueSize, "queue-size", 0, "Mail queue buffer size (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&metricsPort, "metrics-port", 9091, "Port exposing worker health and metrics, 0 disables")

	workerCmd.AddCommand(notificationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
