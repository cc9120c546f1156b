// Package event carries the structured audit trail emitted by the suite.
//
// Every accepted state transition emits exactly one event; rejected calls
// emit nothing. Events are the only externally observable side effect of the
// core, so sinks must treat them as append-only facts.
package event

import (
	"sync"

	"go.uber.org/zap"
)

// Event is one audit record. Implementations are plain structs whose
// exported fields carry the key identifiers and new values of a transition.
type Event interface {
	// EventName returns the stable transition name, e.g. "transaction_submitted".
	EventName() string
}

// Sink receives events. Emit must not block the caller for long and must not
// fail: the core has no recovery path for a lost audit record beyond the
// sink's own durability story.
type Sink interface {
	Emit(e Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// MemorySink retains emitted events in order. Intended for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *MemorySink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a snapshot of all events emitted so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Named returns emitted events matching name, in emission order.
func (s *MemorySink) Named(name string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

// ZapSink logs each event as a structured info record.
type ZapSink struct {
	Logger *zap.Logger
}

func (s ZapSink) Emit(e Event) {
	if s.Logger == nil {
		return
	}
	s.Logger.Info(e.EventName(), zap.Any("event", e))
}

// Tee fans one event out to several sinks in order.
type Tee []Sink

func (t Tee) Emit(e Event) {
	for _, s := range t {
		if s != nil {
			s.Emit(e)
		}
	}
}
