package audit

import (
	"context"
	"time"
)

// Actions and statuses written by this service.
const (
	ActionTransferMoney = "TRANSFER_MONEY"

	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Event is one auditable action and its outcome.
type Event struct {
	Action     string
	Status     string
	Details    map[string]any
	CustomerID string
	IPAddress  string
	At         time.Time
}

// Sink accepts audit events. Record must not block the caller and must not
// report failures; losing an event never changes the outcome of the action.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// Writer persists one event.
type Writer interface {
	Write(ctx context.Context, event Event) error
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Record(context.Context, Event) {}

// Actor identifies who triggered an action.
type Actor struct {
	CustomerID string
	IPAddress  string
}

type actorKey struct{}

// WithActor attaches actor metadata to ctx for audit events recorded
// further down the call chain.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor set by WithActor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
