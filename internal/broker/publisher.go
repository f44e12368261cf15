package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/pkg/metrics"
)

const envelopeField = "envelope"

// StreamClient is the subset of *redis.Client the broker uses.
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

type Options struct {
	StreamPrefix   string
	MaxLen         int64
	PublishTimeout time.Duration
}

// StreamName is the stream an event type is appended to.
func StreamName(prefix, eventType string) string {
	return prefix + eventType
}

// RedisPublisher appends events to one stream per event type.
type RedisPublisher struct {
	client StreamClient
	opts   Options
	logger *slog.Logger
}

func NewRedisPublisher(client StreamClient, opts Options, logger *slog.Logger) *RedisPublisher {
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 3 * time.Second
	}
	return &RedisPublisher{client: client, opts: opts, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, event events.Event) error {
	err := p.publish(ctx, event)
	metrics.EventPublished(event.EventType(), err)
	return err
}

func (p *RedisPublisher) publish(ctx context.Context, event events.Event) error {
	env, err := Wrap(event)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	// events are raised after the business write committed; a caller that
	// goes away must not take the notification with it
	ctx, cancel := internal.Detached(ctx, p.opts.PublishTimeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: StreamName(p.opts.StreamPrefix, env.Type),
		Values: map[string]interface{}{envelopeField: string(body)},
	}
	if p.opts.MaxLen > 0 {
		args.MaxLen = p.opts.MaxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", args.Stream, err)
	}

	p.logger.Info("event published",
		"event_type", env.Type,
		"event_id", env.ID,
		"stream", args.Stream,
		"message_id", id)
	return nil
}
