package cmd

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/internal/notification"
)

// newNotifier starts the mail dispatcher and subscribes its listeners on bus.
// Without an SMTP host mails are only logged.
func newNotifier(cfg *internal.Config, bus *events.EventBus, lg *slog.Logger) (*notification.Dispatcher, error) {
	var mailer notification.Mailer
	if cfg.Mail.Host == "" {
		mailer = notification.NewLogMailer(lg)
	} else {
		mailer = notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	}

	renderer, err := notification.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}

	dispatcherConfig := notification.DispatcherConfig{
		MaxWorkers:  getIntFlag(maxWorkers, cfg.Mail.Workers),
		QueueSize:   getIntFlag(jobQueueSize, cfg.Mail.QueueSize),
		SendTimeout: cfg.Mail.SendTimeout,
	}
	lg.Info("starting notification dispatcher",
		"max_workers", dispatcherConfig.MaxWorkers,
		"queue_size", dispatcherConfig.QueueSize,
		"smtp_host", cfg.Mail.Host)

	dispatcher := notification.NewDispatcher(mailer, dispatcherConfig, lg)
	notification.NewEventHandler(renderer, dispatcher, lg).RegisterEventHandlers(bus)
	return dispatcher, nil
}
