// Package store persists the append-only query log, chat registry, and
// engagement snapshots in SQLite. Nothing here is read back on the live
// reply path; reads serve /stats and startup restore only.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"evabot/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.QueryStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection: SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS queries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		channel     TEXT NOT NULL,
		chat_id     TEXT NOT NULL,
		sender_id   TEXT,
		raw_text    TEXT,
		intent      TEXT NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_queries_chat ON queries(channel, chat_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_queries_intent ON queries(intent);

	CREATE TABLE IF NOT EXISTS chats (
		channel     TEXT NOT NULL,
		chat_id     TEXT NOT NULL,
		is_group    INTEGER NOT NULL DEFAULT 0,
		first_seen  DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen   DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (channel, chat_id)
	);

	CREATE TABLE IF NOT EXISTS engagement (
		channel          TEXT NOT NULL,
		chat_id          TEXT NOT NULL,
		last_daily_post  DATETIME,
		last_greeting    DATETIME,
		messages_since   INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (channel, chat_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordQuery appends one classified inbound message to the query log.
func (s *SQLiteStore) RecordQuery(ctx context.Context, rec domain.QueryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (channel, chat_id, sender_id, raw_text, intent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Channel, rec.ChatID, rec.SenderID, rec.RawText, string(rec.Intent), rec.CreatedAt,
	)
	return err
}

// RecordChatSeen upserts the chat registry entry, bumping last_seen.
func (s *SQLiteStore) RecordChatSeen(ctx context.Context, channel, chatID string, isGroup bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (channel, chat_id, is_group, first_seen, last_seen)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		 ON CONFLICT(channel, chat_id) DO UPDATE SET
		 	is_group = excluded.is_group,
		 	last_seen = CURRENT_TIMESTAMP`,
		channel, chatID, boolToInt(isGroup),
	)
	return err
}

// SaveEngagement upserts one chat's engagement snapshot.
func (s *SQLiteStore) SaveEngagement(ctx context.Context, st domain.ChatEngagementState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO engagement (channel, chat_id, last_daily_post, last_greeting, messages_since)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(channel, chat_id) DO UPDATE SET
		 	last_daily_post = excluded.last_daily_post,
		 	last_greeting = excluded.last_greeting,
		 	messages_since = excluded.messages_since`,
		st.Channel, st.ChatID, nullTime(st.LastDailyPost), nullTime(st.LastGreeting), st.MessagesSinceTrigger,
	)
	return err
}

// LoadEngagement returns every persisted engagement snapshot, used to
// seed the scheduler's state store at startup.
func (s *SQLiteStore) LoadEngagement(ctx context.Context) ([]domain.ChatEngagementState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT channel, chat_id, last_daily_post, last_greeting, messages_since
		 FROM engagement ORDER BY channel, chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ChatEngagementState
	for rows.Next() {
		var st domain.ChatEngagementState
		var daily, greeting sql.NullTime
		if err := rows.Scan(&st.Channel, &st.ChatID, &daily, &greeting, &st.MessagesSinceTrigger); err != nil {
			return nil, err
		}
		if daily.Valid {
			st.LastDailyPost = daily.Time
		}
		if greeting.Valid {
			st.LastGreeting = greeting.Time
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Stats aggregates the query log for /stats reporting.
func (s *SQLiteStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	stats := domain.StoreStats{ByIntent: make(map[domain.IntentKind]int64)}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queries`).Scan(&stats.TotalQueries); err != nil {
		return stats, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chats`).Scan(&stats.KnownChats); err != nil {
		return stats, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT intent, COUNT(*) FROM queries GROUP BY intent`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return stats, err
		}
		stats.ByIntent[domain.IntentKind(kind)] = n
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullTime maps the zero time to NULL so "never fired" round-trips.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
