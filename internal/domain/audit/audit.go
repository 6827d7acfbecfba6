// Package audit defines the structured event every ledger mutation and
// workflow transition emits. The engine keeps no audit copy of its own
// beyond the ledger table; the sink is a collaborator.
package audit

import (
	"context"
	"log/slog"
	"time"
)

type Event struct {
	Actor      string
	Action     string
	EntityKind string
	EntityID   string
	Before     any
	After      any
	At         time.Time
}

// Sink receives audit events. Implementations must not block the caller for
// long; a failed emit never fails the business operation.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// SlogSink writes audit events as structured log lines.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Record(ctx context.Context, event Event) {
	s.logger.InfoContext(ctx, "audit",
		"actor", event.Actor,
		"action", event.Action,
		"entity_kind", event.EntityKind,
		"entity_id", event.EntityID,
		"before", event.Before,
		"after", event.After,
		"at", event.At,
	)
}

// NopSink discards events, for tests.
type NopSink struct{}

func (NopSink) Record(context.Context, Event) {}
