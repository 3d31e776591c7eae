package engage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"evabot/internal/domain"
	"evabot/internal/metrics"
	"evabot/internal/respond"
)

// Scheduler fires proactive messages on a recurring tick: a daily
// property post when 24h have passed and the wall clock reaches the
// configured hour, and a rotating greeting when the greeting interval
// elapses. Triggers are evaluated per chat against the StateStore, so
// repeated ticks inside a threshold window never double-fire.
type Scheduler struct {
	states   *StateStore
	bus      domain.MessageBus
	composer *respond.Composer
	store    domain.QueryStore
	logger   *slog.Logger
	now      func() time.Time

	tick          time.Duration
	dailyHour     int
	greetInterval time.Duration

	mu            sync.Mutex
	dailyRotation int
	greetRotation int

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Config wires the scheduler's collaborators. Store may be nil when
// persistence is disabled; Now defaults to time.Now.
type Config struct {
	States                *StateStore
	Bus                   domain.MessageBus
	Composer              *respond.Composer
	Store                 domain.QueryStore
	Logger                *slog.Logger
	TickSeconds           int
	DailyPostHour         int
	GreetingIntervalHours int
	Now                   func() time.Time
}

func NewScheduler(cfg Config) *Scheduler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		states:        cfg.States,
		bus:           cfg.Bus,
		composer:      cfg.Composer,
		store:         cfg.Store,
		logger:        cfg.Logger,
		now:           now,
		tick:          time.Duration(cfg.TickSeconds) * time.Second,
		dailyHour:     cfg.DailyPostHour,
		greetInterval: time.Duration(cfg.GreetingIntervalHours) * time.Hour,
		stopCh:        make(chan struct{}),
	}
}

// Start runs the tick loop until the context is cancelled or Stop is
// called. Blocks; run it on its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("engagement scheduler started",
		"tick", s.tick,
		"daily_post_hour", s.dailyHour,
		"greeting_interval", s.greetInterval,
	)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("engagement scheduler stopping")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runTick(ctx)
		}
	}
}

// Stop halts the scheduler. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// runTick evaluates every chat's triggers at the current time. The
// daily post takes precedence; at most one proactive message is sent
// per chat per tick.
func (s *Scheduler) runTick(ctx context.Context) {
	now := s.now()

	for _, st := range s.states.All() {
		switch {
		case s.dailyDue(st, now):
			s.fireDaily(ctx, st, now)
		case s.greetingDue(st, now):
			s.fireGreeting(ctx, st, now)
		}
	}
}

func (s *Scheduler) dailyDue(st domain.ChatEngagementState, now time.Time) bool {
	return now.Sub(st.LastDailyPost) >= 24*time.Hour && now.Hour() == s.dailyHour
}

func (s *Scheduler) greetingDue(st domain.ChatEngagementState, now time.Time) bool {
	return now.Sub(st.LastGreeting) >= s.greetInterval
}

func (s *Scheduler) fireDaily(ctx context.Context, st domain.ChatEngagementState, now time.Time) {
	s.mu.Lock()
	rotation := s.dailyRotation
	s.dailyRotation++
	s.mu.Unlock()

	text := s.composer.DailyPost(rotation)
	if text == "" {
		// No listings to post. Mark anyway so the check is not
		// re-evaluated every tick for the rest of the hour.
		s.states.MarkDailyPost(st.Channel, st.ChatID, now)
		return
	}

	s.bus.SendOutbound(domain.OutboundMessage{
		Channel: st.Channel,
		ChatID:  st.ChatID,
		Content: text,
	})
	s.states.MarkDailyPost(st.Channel, st.ChatID, now)
	metrics.ScheduledTotal.Inc()
	s.logger.Info("daily property post sent", "channel", st.Channel, "chat_id", st.ChatID)
	s.persist(ctx, st.Channel, st.ChatID)
}

func (s *Scheduler) fireGreeting(ctx context.Context, st domain.ChatEngagementState, now time.Time) {
	s.mu.Lock()
	rotation := s.greetRotation
	s.greetRotation++
	s.mu.Unlock()

	s.bus.SendOutbound(domain.OutboundMessage{
		Channel: st.Channel,
		ChatID:  st.ChatID,
		Content: s.composer.Greeting(rotation),
	})
	s.states.MarkGreeting(st.Channel, st.ChatID, now)
	metrics.ScheduledTotal.Inc()
	s.logger.Info("periodic greeting sent", "channel", st.Channel, "chat_id", st.ChatID)
	s.persist(ctx, st.Channel, st.ChatID)
}

// persist snapshots one chat's state. Persistence failures are logged
// and otherwise ignored; in-memory state is authoritative.
func (s *Scheduler) persist(ctx context.Context, channel, chatID string) {
	if s.store == nil {
		return
	}
	st, ok := s.states.Get(channel, chatID)
	if !ok {
		return
	}
	if err := s.store.SaveEngagement(ctx, st); err != nil {
		s.logger.Warn("engagement snapshot failed", "chat_id", chatID, "error", err)
	}
}
