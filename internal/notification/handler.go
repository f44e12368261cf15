package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/personnel-suite/internal/core/events"
)

// Queue accepts rendered messages for delivery. Dispatcher satisfies it.
type Queue interface {
	Enqueue(msg Message) error
}

type EventHandler struct {
	renderer *Renderer
	queue    Queue
	logger   *slog.Logger
}

func NewEventHandler(renderer *Renderer, queue Queue, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		renderer: renderer,
		queue:    queue,
		logger:   logger,
	}
}

func (h *EventHandler) HandlePersonChanged(ctx context.Context, event events.Event) error {
	evt, ok := event.(*events.PersonChangedEvent)
	if !ok {
		h.logger.Error("invalid event type for person changed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PersonChangedEvent, got %T", event)
	}

	h.logger.Info("handling person changed event",
		"person_id", evt.PersonID,
		"changes", len(evt.Changes),
		"event_id", evt.EventID())

	if len(evt.Changes) == 0 {
		return nil
	}

	msg, err := h.renderer.PersonUpdate(evt.PersonChanged)
	if err != nil {
		return fmt.Errorf("person update mail for %s: %w", evt.PersonEmail, err)
	}
	return h.enqueue(msg)
}

func (h *EventHandler) HandleTaskAssigned(ctx context.Context, event events.Event) error {
	evt, ok := event.(*events.TaskAssignedEvent)
	if !ok {
		h.logger.Error("invalid event type for task assigned handler", "event_type", event.EventType())
		return fmt.Errorf("expected TaskAssignedEvent, got %T", event)
	}

	h.logger.Info("handling task assigned event",
		"task_id", evt.TaskID,
		"assignee", evt.AssigneeEmail,
		"event_id", evt.EventID())

	msg, err := h.renderer.TaskAssignment(evt.TaskAssigned, evt.OccurredAt())
	if err != nil {
		return fmt.Errorf("task assignment mail for task %d: %w", evt.TaskID, err)
	}
	return h.enqueue(msg)
}

func (h *EventHandler) HandleMeetingInvitation(ctx context.Context, event events.Event) error {
	evt, ok := event.(*events.MeetingInvitationEvent)
	if !ok {
		h.logger.Error("invalid event type for meeting invitation handler", "event_type", event.EventType())
		return fmt.Errorf("expected MeetingInvitationEvent, got %T", event)
	}

	msgs, err := h.renderer.MeetingInvitation(evt.MeetingInvitation)
	if err != nil {
		return fmt.Errorf("meeting invitation mails for meeting %d: %w", evt.MeetingID, err)
	}

	h.logger.Info("handling meeting invitation event",
		"meeting_id", evt.MeetingID,
		"recipients", len(msgs),
		"event_id", evt.EventID())

	var firstErr error
	for _, msg := range msgs {
		if err := h.enqueue(msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *EventHandler) HandleUserProvisioned(ctx context.Context, event events.Event) error {
	evt, ok := event.(*events.UserProvisionedEvent)
	if !ok {
		h.logger.Error("invalid event type for user provisioned handler", "event_type", event.EventType())
		return fmt.Errorf("expected UserProvisionedEvent, got %T", event)
	}

	h.logger.Info("handling user provisioned event", "email", evt.Email, "event_id", evt.EventID())

	msg, err := h.renderer.UserProvisioned(evt.UserProvisioned)
	if err != nil {
		return fmt.Errorf("account mail for %s: %w", evt.Email, err)
	}
	return h.enqueue(msg)
}

func (h *EventHandler) enqueue(msg Message) error {
	if err := h.queue.Enqueue(msg); err != nil {
		return fmt.Errorf("queue %s for %s: %w", msg.Template, msg.To, err)
	}
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePersonChanged, h.HandlePersonChanged)
	eventBus.Subscribe(events.EventTypeTaskAssigned, h.HandleTaskAssigned)
	eventBus.Subscribe(events.EventTypeMeetingInvitation, h.HandleMeetingInvitation)
	eventBus.Subscribe(events.EventTypeUserProvisioned, h.HandleUserProvisioned)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{
			events.EventTypePersonChanged,
			events.EventTypeTaskAssigned,
			events.EventTypeMeetingInvitation,
			events.EventTypeUserProvisioned,
		})
}
