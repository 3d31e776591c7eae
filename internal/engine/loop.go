// Package engine is the core message loop: consume inbound messages from
// the bus, resolve commands and intents, run the fuzzy matcher over the
// corpus, and push composed replies back out.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"evabot/internal/corpus"
	"evabot/internal/domain"
	"evabot/internal/engage"
	"evabot/internal/intent"
	"evabot/internal/match"
	"evabot/internal/metrics"
	"evabot/internal/respond"
)

const defaultConcurrency = 3

// Loop wires classifier, matcher, and composer behind the message bus.
type Loop struct {
	corpus     *corpus.Corpus
	classifier *intent.Classifier
	matcher    *match.Matcher
	composer   *respond.Composer
	states     *engage.StateStore
	store      domain.QueryStore
	bus        domain.MessageBus
	logger     *slog.Logger

	concurrency int
	candidates  []match.Candidate

	mu            sync.Mutex
	greetRotation int
}

// LoopConfig holds the loop's collaborators. Store may be nil when
// persistence is disabled.
type LoopConfig struct {
	Corpus      *corpus.Corpus
	Classifier  *intent.Classifier
	Matcher     *match.Matcher
	Composer    *respond.Composer
	States      *engage.StateStore
	Store       domain.QueryStore
	Bus         domain.MessageBus
	Logger      *slog.Logger
	Concurrency int
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Loop{
		corpus:      cfg.Corpus,
		classifier:  cfg.Classifier,
		matcher:     cfg.Matcher,
		composer:    cfg.Composer,
		states:      cfg.States,
		store:       cfg.Store,
		bus:         cfg.Bus,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
		candidates:  buildCandidates(cfg.Corpus),
	}
}

// buildCandidates flattens the corpus into the matcher's candidate space.
// Order follows corpus insertion order so score ties resolve stably.
func buildCandidates(c *corpus.Corpus) []match.Candidate {
	var out []match.Candidate
	for _, t := range c.Topics() {
		labels := make([]string, 0, len(t.Keywords)+1)
		labels = append(labels, t.Keywords...)
		labels = append(labels, t.Title)
		out = append(out, match.Candidate{Ref: t.ID, Labels: labels})
	}
	for _, l := range c.Listings() {
		labels := make([]string, 0, len(l.Keywords)+1)
		labels = append(labels, l.Keywords...)
		labels = append(labels, l.Location)
		out = append(out, match.Candidate{Ref: l.ID, Labels: labels})
	}
	return out
}

// Run consumes inbound messages with bounded concurrency until the
// context is cancelled or the bus closes.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("engine loop started", "concurrency", l.concurrency)

	sem := make(chan struct{}, l.concurrency)
	inbound := l.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("engine loop stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				l.logger.Info("inbound channel closed, engine loop stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.InboundMessage) {
				defer func() { <-sem }()
				l.processMessage(ctx, m)
			}(msg)
		}
	}
}

// ProcessDirect handles one message synchronously and returns the reply
// text. Used by the CLI channel and the `chat` command. An empty reply
// means the message warranted no response.
func (l *Loop) ProcessDirect(ctx context.Context, content, channel, chatID string) string {
	return l.handleMessage(ctx, domain.InboundMessage{
		Channel:   channel,
		ChatID:    chatID,
		SenderID:  "user",
		Content:   content,
		Timestamp: time.Now(),
	})
}

func (l *Loop) processMessage(ctx context.Context, msg domain.InboundMessage) {
	reply := l.handleMessage(ctx, msg)
	if reply == "" {
		return
	}
	l.bus.SendOutbound(domain.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: reply,
	})
	metrics.RepliesTotal.Inc()
}

// handleMessage runs the full decision path and returns the reply text,
// or "" when silence is the correct outcome.
func (l *Loop) handleMessage(ctx context.Context, msg domain.InboundMessage) string {
	metrics.MessagesTotal.Inc()

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	l.states.Observe(msg.Channel, msg.ChatID, ts)
	metrics.KnownChats.Set(int64(len(l.states.All())))
	l.recordChatSeen(ctx, msg)

	if msg.NewMember {
		return l.composer.Welcome()
	}

	if cmd := ParseCommand(msg.Content); cmd != nil {
		if res := l.handleCommand(ctx, cmd); res.Handled {
			return res.Response
		}
	}

	qi := l.classifier.Classify(msg.Content, intent.Meta{
		ChatID:   msg.ChatID,
		SenderID: msg.SenderID,
		IsGroup:  msg.IsGroup,
	})
	l.recordQuery(ctx, msg, qi, ts)

	if !qi.OwesReply() {
		return ""
	}

	if qi.Kind == domain.IntentGreeting {
		l.mu.Lock()
		rotation := l.greetRotation
		l.greetRotation++
		l.mu.Unlock()
		return l.composer.Compose(qi, nil, rotation)
	}

	start := time.Now()
	matches := l.matcher.Match(strings.Join(qi.Terms, " "), l.candidates)
	metrics.MatchLatency.Observe(time.Since(start).Seconds())

	l.logger.Debug("query matched",
		"kind", qi.Kind,
		"terms", len(qi.Terms),
		"matches", len(matches),
	)
	if len(matches) == 0 {
		metrics.FallbacksTotal.Inc()
	}
	return l.composer.Compose(qi, matches, 0)
}

// recordQuery appends to the analytics log. Never fatal: a failed write
// must not affect the reply.
func (l *Loop) recordQuery(ctx context.Context, msg domain.InboundMessage, qi domain.QueryIntent, ts time.Time) {
	if l.store == nil {
		return
	}
	err := l.store.RecordQuery(ctx, domain.QueryRecord{
		Channel:   msg.Channel,
		ChatID:    msg.ChatID,
		SenderID:  msg.SenderID,
		RawText:   msg.Content,
		Intent:    qi.Kind,
		CreatedAt: ts,
	})
	if err != nil {
		l.logger.Warn("query log write failed", "error", err)
	}
}

func (l *Loop) recordChatSeen(ctx context.Context, msg domain.InboundMessage) {
	if l.store == nil {
		return
	}
	if err := l.store.RecordChatSeen(ctx, msg.Channel, msg.ChatID, msg.IsGroup); err != nil {
		l.logger.Warn("chat registry write failed", "error", err)
	}
}
