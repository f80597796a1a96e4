package server

import (
	"context"
	"log/slog"
	"time"

	"actionkit/pkg/bus"
)

func observeLifecycle(ctx context.Context, events <-chan bus.Event, unsubscribe func(), log *slog.Logger) {
	log = log.With("component", "bus.events")
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			logEvent(log, event)
		}
	}
}

func logEvent(log *slog.Logger, event bus.Event) {
	attrs := []any{
		"event_type", event.Type,
		"action", event.Action,
		"request_id", event.RequestID,
		"sender_id", event.SenderID,
		"timestamp", event.At.UTC().Format(time.RFC3339Nano),
	}
	if len(event.Payload) > 0 {
		attrs = append(attrs, "payload", event.Payload)
	}

	switch event.Type {
	case bus.EventActionFailed:
		log.Error("Action event", append(attrs, "error", event.Error)...)
	case bus.EventActionReceived, bus.EventActionCompleted:
		log.Info("Action event", attrs...)
	default:
		log.Debug("Action event", attrs...)
	}
}
