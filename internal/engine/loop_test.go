package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"evabot/internal/bus"
	"evabot/internal/corpus"
	"evabot/internal/domain"
	"evabot/internal/engage"
	"evabot/internal/intent"
	"evabot/internal/match"
	"evabot/internal/respond"
	"evabot/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testLoop(t *testing.T, withStore bool) *Loop {
	t.Helper()

	c, err := corpus.New(
		[]domain.TopicDocument{
			{ID: "etosha", Category: domain.CategoryWildlife, Title: "Etosha National Park",
				Keywords: []string{"etosha", "safari", "lion"}, Body: "Etosha is Namibia's flagship park."},
			{ID: "himba", Category: domain.CategoryCulture, Title: "The Himba People",
				Keywords: []string{"himba", "culture"}, Body: "The Himba are semi-nomadic pastoralists."},
		},
		[]domain.PropertyListing{
			{ID: "prop-001", Location: "Windhoek", Price: "N$ 1,850,000",
				Description: "Three-bedroom house in Klein Windhoek.", Keywords: []string{"windhoek", "house"}},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	classifier := intent.NewClassifier(intent.Config{
		MentionTokens:    []string{"eva"},
		GreetingWords:    []string{"hi", "hello"},
		QuestionMarkers:  []string{"what", "where", "when", "why", "how", "who", "which"},
		PropertyKeywords: []string{"property", "house", "rent"},
		DomainKeywords:   []string{"etosha", "safari", "himba", "windhoek"},
		Logger:           testLogger(),
	})

	b := bus.New(10, testLogger())
	t.Cleanup(b.Close)

	var qs domain.QueryStore
	if withStore {
		s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), testLogger())
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { s.Close() })
		qs = s
	}

	return NewLoop(LoopConfig{
		Corpus:     c,
		Classifier: classifier,
		Matcher:    match.New(0.6),
		Composer:   respond.New("Eva", c, 2),
		States:     engage.NewStateStore(),
		Store:      qs,
		Bus:        b,
		Logger:     testLogger(),
	})
}

func TestHandleMessage_TopicQuestion(t *testing.T) {
	l := testLoop(t, false)
	out := l.ProcessDirect(context.Background(), "what can you tell me about etosha?", "cli", "local")
	if !strings.Contains(out, "flagship park") {
		t.Errorf("expected topic body, got %q", out)
	}
}

func TestHandleMessage_PropertyInquiry(t *testing.T) {
	l := testLoop(t, false)
	out := l.ProcessDirect(context.Background(), "looking for a house in windhoek", "cli", "local")
	if !strings.Contains(out, "Windhoek") || !strings.Contains(out, "N$") {
		t.Errorf("expected listing reply, got %q", out)
	}
}

func TestHandleMessage_GreetingRotates(t *testing.T) {
	l := testLoop(t, false)
	a := l.ProcessDirect(context.Background(), "hello", "cli", "local")
	b := l.ProcessDirect(context.Background(), "hello", "cli", "local")
	if a == "" || b == "" {
		t.Fatal("greeting must not be empty")
	}
	if a == b {
		t.Error("greeting rotation should advance between replies")
	}
}

func TestHandleMessage_GroupUnaddressedIsSilent(t *testing.T) {
	l := testLoop(t, false)
	out := l.handleMessage(context.Background(), domain.InboundMessage{
		Channel: "telegram", ChatID: "g1", SenderID: "u1",
		Content: "did anyone watch the game", IsGroup: true,
		Timestamp: time.Now(),
	})
	if out != "" {
		t.Errorf("group chat without mention or keyword must be silent, got %q", out)
	}
}

func TestHandleMessage_FallbackNeverSilent(t *testing.T) {
	l := testLoop(t, false)
	out := l.ProcessDirect(context.Background(), "eva quantum chromodynamics", "cli", "local")
	if out == "" {
		t.Fatal("mention must never be silent")
	}
	if !strings.Contains(out, "/menu") {
		t.Errorf("fallback should point at /menu, got %q", out)
	}
}

func TestHandleMessage_NewMemberWelcome(t *testing.T) {
	l := testLoop(t, false)
	out := l.handleMessage(context.Background(), domain.InboundMessage{
		Channel: "telegram", ChatID: "g1", SenderID: "u9",
		NewMember: true, IsGroup: true, Timestamp: time.Now(),
	})
	if !strings.Contains(out, "Welcome") {
		t.Errorf("expected welcome message, got %q", out)
	}
}

func TestHandleMessage_Commands(t *testing.T) {
	l := testLoop(t, false)
	cases := map[string]string{
		"/start":      "Eva",
		"/menu":       "Wildlife",
		"/topics":     "Etosha National Park",
		"/properties": "Windhoek",
		"/help":       "/menu",
	}
	for cmd, want := range cases {
		out := l.ProcessDirect(context.Background(), cmd, "cli", "local")
		if !strings.Contains(out, want) {
			t.Errorf("%s: expected %q in reply, got %q", cmd, want, out)
		}
	}
}

func TestHandleMessage_StatsWithStore(t *testing.T) {
	l := testLoop(t, true)
	ctx := context.Background()

	l.ProcessDirect(ctx, "hello", "cli", "local")
	l.ProcessDirect(ctx, "what about etosha?", "cli", "local")

	out := l.ProcessDirect(ctx, "/stats", "cli", "local")
	if !strings.Contains(out, "Queries answered: 2") {
		t.Errorf("expected 2 logged queries, got %q", out)
	}
}

func TestHandleMessage_StatsWithoutStore(t *testing.T) {
	l := testLoop(t, false)
	out := l.ProcessDirect(context.Background(), "/stats", "cli", "local")
	if !strings.Contains(out, "disabled") {
		t.Errorf("expected disabled notice, got %q", out)
	}
}

func TestHandleMessage_ObservesEngagementState(t *testing.T) {
	l := testLoop(t, false)
	l.ProcessDirect(context.Background(), "hello", "cli", "chat-7")
	if _, ok := l.states.Get("cli", "chat-7"); !ok {
		t.Error("inbound message should create engagement state")
	}
}

func TestParseCommand(t *testing.T) {
	if cmd := ParseCommand("not a command"); cmd != nil {
		t.Errorf("expected nil for plain text, got %+v", cmd)
	}
	cmd := ParseCommand("/Menu@EvaGeisesBot extra arg")
	if cmd == nil {
		t.Fatal("expected parsed command")
	}
	if cmd.Name != "menu" {
		t.Errorf("expected name menu, got %q", cmd.Name)
	}
	if len(cmd.Args) != 2 {
		t.Errorf("expected 2 args, got %v", cmd.Args)
	}
}

func TestParseCommand_UnknownFallsThrough(t *testing.T) {
	l := testLoop(t, false)
	res := l.handleCommand(context.Background(), ParseCommand("/dance"))
	if res.Handled {
		t.Error("unknown command should fall through to classification")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	l := testLoop(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}
