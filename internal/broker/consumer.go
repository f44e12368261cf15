package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/pkg/metrics"
)

type ConsumerOptions struct {
	StreamPrefix string
	Group        string
	Name         string
	BlockTimeout time.Duration
	BatchSize    int64
}

// Consumer reads every registered stream through a consumer group and
// relays the decoded events into a local bus. Messages are acknowledged
// whatever the listeners return; failed deliveries are not retried.
type Consumer struct {
	client   StreamClient
	registry *Registry
	sink     events.Publisher
	opts     ConsumerOptions
	logger   *slog.Logger
	streams  map[string]string
}

func NewConsumer(client StreamClient, registry *Registry, sink events.Publisher, opts ConsumerOptions, logger *slog.Logger) *Consumer {
	if opts.BlockTimeout <= 0 {
		opts.BlockTimeout = 5 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	streams := make(map[string]string)
	for _, t := range registry.Types() {
		streams[StreamName(opts.StreamPrefix, t)] = t
	}
	return &Consumer{
		client:   client,
		registry: registry,
		sink:     sink,
		opts:     opts,
		logger:   logger,
		streams:  streams,
	}
}

// Setup creates the consumer group on every stream. Existing groups are kept.
func (c *Consumer) Setup(ctx context.Context) error {
	for stream := range c.streams {
		err := c.client.XGroupCreateMkStream(ctx, stream, c.opts.Group, "0").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("create group %s on %s: %w", c.opts.Group, stream, err)
		}
	}
	return nil
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.Setup(ctx); err != nil {
		return err
	}

	c.logger.Info("stream consumer started",
		"group", c.opts.Group,
		"consumer", c.opts.Name,
		"streams", len(c.streams))

	for {
		if ctx.Err() != nil {
			c.logger.Info("stream consumer stopped")
			return nil
		}
		if err := c.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("stream read failed", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		}
	}
}

// Poll performs one read across all streams and handles what it got.
func (c *Consumer) Poll(ctx context.Context) error {
	names := make([]string, 0, len(c.streams)*2)
	for stream := range c.streams {
		names = append(names, stream)
	}
	for range c.streams {
		names = append(names, ">")
	}

	res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.opts.Group,
		Consumer: c.opts.Name,
		Streams:  names,
		Count:    c.opts.BatchSize,
		Block:    c.opts.BlockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, stream := range res {
		for _, msg := range stream.Messages {
			c.handleMessage(ctx, stream.Stream, msg)
		}
	}
	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, stream string, msg redis.XMessage) {
	defer func() {
		// a message read before shutdown is still acked, or it would stay pending
		if err := c.client.XAck(context.WithoutCancel(ctx), stream, c.opts.Group, msg.ID).Err(); err != nil {
			c.logger.Error("failed to ack message", "stream", stream, "message_id", msg.ID, "error", err)
		}
	}()

	eventType := c.streams[stream]
	evt, err := c.decode(msg)
	if err != nil {
		metrics.EventConsumed(eventType, err)
		c.logger.Warn("dropping undecodable message", "stream", stream, "message_id", msg.ID, "error", err)
		return
	}

	err = c.sink.Publish(ctx, evt)
	metrics.EventConsumed(evt.EventType(), err)
	if err != nil {
		c.logger.Warn("event listener failed",
			"event_type", evt.EventType(),
			"event_id", evt.EventID(),
			"error", err)
	}
}

func (c *Consumer) decode(msg redis.XMessage) (events.Event, error) {
	raw, ok := msg.Values[envelopeField].(string)
	if !ok {
		return nil, fmt.Errorf("message has no %q field", envelopeField)
	}
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return c.registry.Decode(env)
}
