package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/personnel-suite/internal/core/events"
)

var ErrUnknownEventType = errors.New("unknown event type")

// Envelope is the wire form of a domain event on a stream.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

func Wrap(event events.Event) (Envelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event.EventType(), err)
	}
	return Envelope{
		ID:         event.EventID(),
		Type:       event.EventType(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	}, nil
}

type decoder func(base events.BaseEvent, payload json.RawMessage) (events.Event, error)

// Registry turns envelopes back into the concrete event types listeners
// assert on.
type Registry struct {
	decoders map[string]decoder
}

func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[string]decoder)}

	r.decoders[events.EventTypePersonChanged] = func(base events.BaseEvent, raw json.RawMessage) (events.Event, error) {
		evt := &events.PersonChangedEvent{BaseEvent: base}
		return evt, json.Unmarshal(raw, &evt.PersonChanged)
	}
	r.decoders[events.EventTypeTaskAssigned] = func(base events.BaseEvent, raw json.RawMessage) (events.Event, error) {
		evt := &events.TaskAssignedEvent{BaseEvent: base}
		return evt, json.Unmarshal(raw, &evt.TaskAssigned)
	}
	r.decoders[events.EventTypeMeetingInvitation] = func(base events.BaseEvent, raw json.RawMessage) (events.Event, error) {
		evt := &events.MeetingInvitationEvent{BaseEvent: base}
		return evt, json.Unmarshal(raw, &evt.MeetingInvitation)
	}
	r.decoders[events.EventTypeUserProvisioned] = func(base events.BaseEvent, raw json.RawMessage) (events.Event, error) {
		evt := &events.UserProvisionedEvent{BaseEvent: base}
		return evt, json.Unmarshal(raw, &evt.UserProvisioned)
	}
	return r
}

// Types lists the registered event types.
func (r *Registry) Types() []string {
	return []string{
		events.EventTypePersonChanged,
		events.EventTypeTaskAssigned,
		events.EventTypeMeetingInvitation,
		events.EventTypeUserProvisioned,
	}
}

func (r *Registry) Decode(env Envelope) (events.Event, error) {
	decode, ok := r.decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}
	base := events.BaseEvent{ID: env.ID, Type: env.Type, Timestamp: env.OccurredAt}
	evt, err := decode(base, env.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return evt, nil
}
