package engine

import (
	"context"
	"time"
)

// EventKind names a domain event category.
type EventKind string

const (
	EventStressWarning       EventKind = "stress.warning"
	EventTraumaCheckRequired EventKind = "stress.trauma_check_required"
	EventCorruptionThreshold EventKind = "corruption.threshold"
	EventCharacterConsumed   EventKind = "corruption.consumed"
	EventCascadeTriggered    EventKind = "coherence.cascade"
	EventApotheosisExit      EventKind = "coherence.apotheosis_exit"
	EventFumbleApplied       EventKind = "fumble.applied"
)

// Event is one domain occurrence worth surfacing to operators or the
// encounter log.
type Event struct {
	Kind        EventKind
	CharacterID string
	Message     string
	Metadata    map[string]string
	At          time.Time
}

// Sink receives emitted events.
type Sink interface {
	Emit(ctx context.Context, evt Event) error
}

// Emitter publishes domain events. It is a no-op when the sink is nil,
// so callers never guard emission sites.
type Emitter struct {
	sink  Sink
	clock func() time.Time
}

// NewEmitter creates an event emitter over the given sink.
func NewEmitter(sink Sink) *Emitter {
	return &Emitter{sink: sink, clock: time.Now}
}

// Emit publishes one event, stamping the time if unset.
func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if e == nil || e.sink == nil {
		return nil
	}
	if evt.At.IsZero() {
		if e.clock == nil {
			evt.At = time.Now().UTC()
		} else {
			evt.At = e.clock().UTC()
		}
	}
	return e.sink.Emit(ctx, evt)
}
