package event

import (
	"testing"

	"go.uber.org/zap"
)

type testEvent struct {
	Name  string
	Value int
}

func (e testEvent) EventName() string { return e.Name }

func TestMemorySink_OrderAndFilter(t *testing.T) {
	var s MemorySink
	s.Emit(testEvent{Name: "a", Value: 1})
	s.Emit(testEvent{Name: "b", Value: 2})
	s.Emit(testEvent{Name: "a", Value: 3})

	all := s.Events()
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	as := s.Named("a")
	if len(as) != 2 {
		t.Fatalf("got %d 'a' events, want 2", len(as))
	}
	if as[1].(testEvent).Value != 3 {
		t.Fatalf("events out of emission order")
	}
}

func TestZapSink_NilLoggerIsSafe(t *testing.T) {
	ZapSink{}.Emit(testEvent{Name: "x"})
	ZapSink{Logger: zap.NewNop()}.Emit(testEvent{Name: "y"})
}

func TestTee_FansOut(t *testing.T) {
	var a, b MemorySink
	Tee{&a, nil, &b}.Emit(testEvent{Name: "t"})
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatalf("tee did not reach all sinks")
	}
}
