package events

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type recordingHandler struct {
	seen []string
	err  error
}

func (h *recordingHandler) CanHandle(string) bool { return true }

func (h *recordingHandler) Handle(event Event) error {
	h.seen = append(h.seen, event.Type())
	return h.err
}

func TestInMemoryEventStore_VersionsPerStream(t *testing.T) {
	store := NewInMemoryEventStore()

	_ = store.AppendEvent("coursework", NewInstanceLoadedEvent(InstanceLoaded{Name: "coursework", Products: 5}))
	_ = store.AppendEvent("coursework", NewModelBuiltEvent("coursework", ModelBuilt{Variables: 69}))
	_ = store.AppendEvent("other", NewSolveCompletedEvent("other", SolveCompleted{Status: "Optimal"}))

	events, err := store.ReadEvents("coursework", 0)
	if err != nil {
		t.Fatalf("Failed to read events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[1].Version() != 2 {
		t.Errorf("Expected version 2, got %d", events[1].Version())
	}
	if events[0].Data().(InstanceLoaded).Products != 5 {
		t.Errorf("Expected payload to survive append, got %+v", events[0].Data())
	}

	all, _ := store.ReadAllEvents(1)
	if len(all) != 2 {
		t.Errorf("Expected 2 events after position 1, got %d", len(all))
	}
	if store.Position() != 3 {
		t.Errorf("Expected position 3, got %d", store.Position())
	}

	missing, _ := store.ReadEvents("nope", 1)
	if len(missing) != 0 {
		t.Errorf("Expected no events for unknown stream, got %d", len(missing))
	}
}

func TestInMemoryEventStore_NotifiesSynchronously(t *testing.T) {
	store := NewInMemoryEventStore()
	handler := &recordingHandler{}
	_ = store.Subscribe([]string{SolveCompletedEvent, PlanVerifiedEvent}, handler)

	_ = store.AppendEvent("s", NewModelBuiltEvent("s", ModelBuilt{}))
	_ = store.AppendEvent("s", NewSolveCompletedEvent("s", SolveCompleted{}))
	_ = store.AppendEvent("s", NewPlanVerifiedEvent("s", PlanVerified{Valid: true}))

	if got := strings.Join(handler.seen, ","); got != "solve.completed,plan.verified" {
		t.Fatalf("Expected handler to see solve and verify events in order, got %q", got)
	}

	_ = store.Unsubscribe(handler)
	_ = store.AppendEvent("s", NewSolveCompletedEvent("s", SolveCompleted{}))
	if len(handler.seen) != 2 {
		t.Errorf("Expected no delivery after unsubscribe, got %d events", len(handler.seen))
	}
}

func TestInMemoryEventStore_ReturnsHandlerError(t *testing.T) {
	store := NewInMemoryEventStore()
	boom := errors.New("boom")
	_ = store.Subscribe([]string{PlanVerifiedEvent}, &recordingHandler{err: boom})

	err := store.AppendEvent("s", NewPlanVerifiedEvent("s", PlanVerified{}))
	if !errors.Is(err, boom) {
		t.Fatalf("Expected handler error, got %v", err)
	}

	events, _ := store.ReadEvents("s", 1)
	if len(events) != 1 {
		t.Errorf("Expected event to be stored despite handler error, got %d", len(events))
	}
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := NewInMemoryEventStore()
	_ = store.Subscribe(AllEventTypes, &LogHandler{Logger: logger})
	_ = store.AppendEvent("coursework", NewRelaxationComputedEvent("coursework", RelaxationComputed{Bound: 42}))

	out := buf.String()
	if !strings.Contains(out, "type=relaxation.computed") {
		t.Errorf("Expected event type in log output, got %q", out)
	}
	if !strings.Contains(out, "stream=coursework") {
		t.Errorf("Expected stream in log output, got %q", out)
	}
}
