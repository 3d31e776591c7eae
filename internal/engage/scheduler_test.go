package engage

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"evabot/internal/bus"
	"evabot/internal/corpus"
	"evabot/internal/domain"
	"evabot/internal/respond"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testComposer(t *testing.T) *respond.Composer {
	t.Helper()
	c, err := corpus.New(
		[]domain.TopicDocument{
			{ID: "etosha", Category: domain.CategoryWildlife, Title: "Etosha",
				Keywords: []string{"etosha"}, Body: "Etosha body."},
		},
		[]domain.PropertyListing{
			{ID: "prop-001", Location: "Windhoek", Price: "N$ 1,850,000",
				Description: "Three-bedroom house.", Keywords: []string{"windhoek"}},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return respond.New("Eva", c, 2)
}

// testHarness wires a scheduler against a controllable clock and
// captures everything sent on the bus.
type testHarness struct {
	sched *Scheduler
	state *StateStore
	sent  *[]domain.OutboundMessage
	now   *time.Time
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	b := bus.New(10, testLogger())
	t.Cleanup(b.Close)

	var sent []domain.OutboundMessage
	b.OnOutbound("test", func(msg domain.OutboundMessage) {
		sent = append(sent, msg)
	})

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	states := NewStateStore()
	sched := NewScheduler(Config{
		States:                states,
		Bus:                   b,
		Composer:              testComposer(t),
		Logger:                testLogger(),
		TickSeconds:           30,
		DailyPostHour:         10,
		GreetingIntervalHours: 2,
		Now:                   func() time.Time { return now },
	})

	return &testHarness{sched: sched, state: states, sent: &sent, now: &now}
}

func TestObserve_CreatesState(t *testing.T) {
	h := newHarness(t)
	h.state.Observe("test", "chat-1", *h.now)
	h.state.Observe("test", "chat-1", *h.now)

	st, ok := h.state.Get("test", "chat-1")
	if !ok {
		t.Fatal("state not created on first observation")
	}
	if st.MessagesSinceTrigger != 2 {
		t.Errorf("expected 2 observed messages, got %d", st.MessagesSinceTrigger)
	}
}

func TestDailyPost_FiresOnceAtConfiguredHour(t *testing.T) {
	h := newHarness(t)
	h.state.Observe("test", "chat-1", *h.now)

	// LastDailyPost is zero, wall clock is at hour 10: due.
	h.sched.runTick(context.Background())
	if len(*h.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(*h.sent))
	}
	if !strings.Contains((*h.sent)[0].Content, "Property of the Day") {
		t.Errorf("expected daily property post, got %q", (*h.sent)[0].Content)
	}

	// Repeated ticks within the same window must not re-fire.
	for i := 0; i < 5; i++ {
		*h.now = h.now.Add(time.Minute)
		h.sched.runTick(context.Background())
	}
	if len(*h.sent) != 1 {
		t.Errorf("daily post double-fired: %d messages", len(*h.sent))
	}
}

func TestDailyPost_WaitsForConfiguredHour(t *testing.T) {
	h := newHarness(t)
	*h.now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	h.state.Observe("test", "chat-1", *h.now)

	h.sched.runTick(context.Background())
	if len(*h.sent) != 0 {
		t.Fatalf("fired outside configured hour: %v", *h.sent)
	}

	*h.now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	h.sched.runTick(context.Background())
	if len(*h.sent) != 1 {
		t.Errorf("expected fire at hour 10, got %d messages", len(*h.sent))
	}
}

func TestDailyPost_NextDay(t *testing.T) {
	h := newHarness(t)
	h.state.Observe("test", "chat-1", *h.now)

	h.sched.runTick(context.Background())
	*h.now = h.now.Add(24 * time.Hour)
	h.sched.runTick(context.Background())

	if len(*h.sent) != 2 {
		t.Errorf("expected a post on each day, got %d", len(*h.sent))
	}
}

func TestGreeting_FiresAfterInterval(t *testing.T) {
	h := newHarness(t)
	// Hour 9 keeps the daily trigger quiet.
	*h.now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	h.state.Observe("test", "chat-1", *h.now)
	h.state.MarkDailyPost("test", "chat-1", *h.now)

	// Inside the interval: silent.
	*h.now = h.now.Add(time.Hour)
	h.sched.runTick(context.Background())
	if len(*h.sent) != 0 {
		t.Fatalf("greeting fired too early: %v", *h.sent)
	}

	*h.now = h.now.Add(time.Hour)
	h.sched.runTick(context.Background())
	if len(*h.sent) != 1 {
		t.Fatalf("expected greeting after 2h, got %d messages", len(*h.sent))
	}

	// Interval restarts after firing.
	*h.now = h.now.Add(30 * time.Minute)
	h.sched.runTick(context.Background())
	if len(*h.sent) != 1 {
		t.Errorf("greeting re-fired within interval: %d messages", len(*h.sent))
	}
}

func TestDailyTakesPrecedenceOverGreeting(t *testing.T) {
	h := newHarness(t)
	h.state.Observe("test", "chat-1", *h.now)

	// Both triggers due at once: exactly one message, the daily post.
	*h.now = h.now.Add(48 * time.Hour)
	h.sched.runTick(context.Background())
	if len(*h.sent) != 1 {
		t.Fatalf("expected exactly 1 message, got %d", len(*h.sent))
	}
	if !strings.Contains((*h.sent)[0].Content, "Property of the Day") {
		t.Errorf("daily post should win, got %q", (*h.sent)[0].Content)
	}
}

func TestGreeting_RotatesAcrossChats(t *testing.T) {
	h := newHarness(t)
	*h.now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for _, chat := range []string{"chat-1", "chat-2"} {
		h.state.Observe("test", chat, *h.now)
		h.state.MarkDailyPost("test", chat, *h.now)
	}

	*h.now = h.now.Add(3 * time.Hour)
	h.sched.runTick(context.Background())
	if len(*h.sent) != 2 {
		t.Fatalf("expected 2 greetings, got %d", len(*h.sent))
	}
	if (*h.sent)[0].Content == (*h.sent)[1].Content {
		t.Error("greeting rotation should advance between sends")
	}
}

func TestRestore_ExistingStateWins(t *testing.T) {
	h := newHarness(t)
	h.state.Observe("test", "chat-1", *h.now)

	snapshot := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	h.state.Restore([]domain.ChatEngagementState{
		{Channel: "test", ChatID: "chat-1", LastGreeting: snapshot},
		{Channel: "test", ChatID: "chat-2", LastGreeting: snapshot},
	})

	st, _ := h.state.Get("test", "chat-1")
	if st.LastGreeting.Equal(snapshot) {
		t.Error("restore overwrote live state")
	}
	if _, ok := h.state.Get("test", "chat-2"); !ok {
		t.Error("restore did not seed new chat")
	}
}

func TestMark_TimestampsNeverRegress(t *testing.T) {
	h := newHarness(t)
	h.state.Observe("test", "chat-1", *h.now)

	later := h.now.Add(time.Hour)
	h.state.MarkGreeting("test", "chat-1", later)
	h.state.MarkGreeting("test", "chat-1", *h.now)

	st, _ := h.state.Get("test", "chat-1")
	if !st.LastGreeting.Equal(later) {
		t.Errorf("timestamp regressed to %v", st.LastGreeting)
	}
}

func TestScheduler_StopUnblocksStart(t *testing.T) {
	h := newHarness(t)

	done := make(chan struct{})
	go func() {
		h.sched.Start(context.Background())
		close(done)
	}()

	h.sched.Stop()
	h.sched.Stop() // safe to call twice

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
