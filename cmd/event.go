package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/personnel-suite/internal/broker"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Inspect and inject broker events",
}

var publishEventCmd = &cobra.Command{
	Use:   "publish <event-type>",
	Short: "Publish one event to the broker",
	Long: `Publish one event to the broker, e.g. to exercise the notification worker.
--data takes the payload as JSON, or @path to read it from a file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishEvent(cmd, args[0])
	},
}

var eventTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the event types the worker understands",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, t := range broker.NewRegistry().Types() {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
	},
}

var eventData string

func readPayload(data string) (json.RawMessage, error) {
	if path, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		data = string(b)
	}
	if !json.Valid([]byte(data)) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func publishEvent(cmd *cobra.Command, eventType string) error {
	payload, err := readPayload(eventData)
	if err != nil {
		return err
	}

	// the registry rejects unknown types and bad payloads before anything
	// reaches the stream
	env := broker.Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	event, err := broker.NewRegistry().Decode(env)
	if err != nil {
		return err
	}

	cfg, lg := mustLoad()
	rdb := initRedis(cfg.Broker)
	defer rdb.Close()

	publisher := broker.NewRedisPublisher(rdb, broker.Options{
		StreamPrefix:   cfg.Broker.StreamPrefix,
		MaxLen:         cfg.Broker.MaxLen,
		PublishTimeout: cfg.Broker.PublishTimeout,
	}, lg)
	if err := publisher.Publish(cmd.Context(), event); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "published %s %s to %s\n",
		eventType, env.ID, broker.StreamName(cfg.Broker.StreamPrefix, eventType))
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "{}", "event payload as JSON, or @file")

	eventCmd.AddCommand(publishEventCmd, eventTypesCmd)
	rootCmd.AddCommand(eventCmd)
}
