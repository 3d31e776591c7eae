package domain

import (
	"context"
	"time"
)

// QueryRecord is one append-only analytics row. Never read back on the
// live decision path; the /stats report is the only consumer.
type QueryRecord struct {
	ID        int64
	Channel   string
	ChatID    string
	SenderID  string
	RawText   string
	Intent    IntentKind
	CreatedAt time.Time
}

// StoreStats is the aggregate view used by the /stats report.
type StoreStats struct {
	TotalQueries int64
	KnownChats   int64
	ByIntent     map[IntentKind]int64
}

// QueryStore is the persistence collaborator: an append-only query log,
// a registry of chats the bot has seen, and engagement snapshots so
// restarts do not re-fire scheduled posts.
type QueryStore interface {
	RecordQuery(ctx context.Context, rec QueryRecord) error
	RecordChatSeen(ctx context.Context, channel, chatID string, isGroup bool) error
	SaveEngagement(ctx context.Context, state ChatEngagementState) error
	LoadEngagement(ctx context.Context) ([]ChatEngagementState, error)
	Stats(ctx context.Context) (StoreStats, error)
	Close() error
}
