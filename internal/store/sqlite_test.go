package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"evabot/internal/domain"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "evabot.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordQueryAndStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	records := []domain.QueryRecord{
		{Channel: "telegram", ChatID: "c1", SenderID: "u1", RawText: "hi", Intent: domain.IntentGreeting},
		{Channel: "telegram", ChatID: "c1", SenderID: "u2", RawText: "etosha?", Intent: domain.IntentDirectQuestion},
		{Channel: "discord", ChatID: "c2", SenderID: "u3", RawText: "safari", Intent: domain.IntentTopicLookup},
	}
	for _, rec := range records {
		if err := s.RecordQuery(ctx, rec); err != nil {
			t.Fatalf("record query: %v", err)
		}
	}
	if err := s.RecordChatSeen(ctx, "telegram", "c1", true); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordChatSeen(ctx, "discord", "c2", false); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalQueries != 3 {
		t.Errorf("expected 3 queries, got %d", stats.TotalQueries)
	}
	if stats.KnownChats != 2 {
		t.Errorf("expected 2 chats, got %d", stats.KnownChats)
	}
	if stats.ByIntent[domain.IntentGreeting] != 1 || stats.ByIntent[domain.IntentDirectQuestion] != 1 {
		t.Errorf("unexpected intent breakdown: %v", stats.ByIntent)
	}
}

func TestRecordChatSeen_Upsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.RecordChatSeen(ctx, "telegram", "c1", false); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordChatSeen(ctx, "telegram", "c1", true); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.KnownChats != 1 {
		t.Errorf("upsert created duplicate chat rows: %d", stats.KnownChats)
	}
}

func TestEngagementRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	daily := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	state := domain.ChatEngagementState{
		Channel:              "telegram",
		ChatID:               "c1",
		LastDailyPost:        daily,
		LastGreeting:         daily.Add(2 * time.Hour),
		MessagesSinceTrigger: 4,
	}
	if err := s.SaveEngagement(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Second save overwrites, not duplicates.
	state.MessagesSinceTrigger = 7
	if err := s.SaveEngagement(ctx, state); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := s.LoadEngagement(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(loaded))
	}
	got := loaded[0]
	if !got.LastDailyPost.Equal(daily) {
		t.Errorf("daily timestamp mismatch: %v", got.LastDailyPost)
	}
	if got.MessagesSinceTrigger != 7 {
		t.Errorf("expected counter 7, got %d", got.MessagesSinceTrigger)
	}
}

func TestEngagement_ZeroTimesRoundTripAsZero(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveEngagement(ctx, domain.ChatEngagementState{
		Channel: "telegram", ChatID: "fresh",
	}); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadEngagement(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(loaded))
	}
	if !loaded[0].LastDailyPost.IsZero() || !loaded[0].LastGreeting.IsZero() {
		t.Errorf("zero timestamps did not survive: %+v", loaded[0])
	}
}
