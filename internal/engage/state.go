// Package engage drives proactive engagement: per-chat state tracking
// and the recurring tick that sends daily property posts and periodic
// greetings independent of the inbound-message path.
package engage

import (
	"sort"
	"sync"
	"time"

	"evabot/internal/domain"
)

// StateStore owns all ChatEngagementState instances, keyed by
// channel:chatID. States are created on first observed message and live
// for the process lifetime.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]*domain.ChatEngagementState
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]*domain.ChatEngagementState)}
}

func stateKey(channel, chatID string) string { return channel + ":" + chatID }

// Observe records an inbound message from a chat, creating its state on
// first contact. A fresh state starts its greeting clock at the
// observation time so a chat that just spoke is not greeted immediately.
func (s *StateStore) Observe(channel, chatID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := stateKey(channel, chatID)
	st, ok := s.states[key]
	if !ok {
		st = &domain.ChatEngagementState{
			Channel:      channel,
			ChatID:       chatID,
			LastGreeting: at,
		}
		s.states[key] = st
	}
	st.MessagesSinceTrigger++
}

// Restore seeds states from a persisted snapshot. Existing in-memory
// state wins over the snapshot.
func (s *StateStore) Restore(states []domain.ChatEngagementState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range states {
		key := stateKey(st.Channel, st.ChatID)
		if _, ok := s.states[key]; ok {
			continue
		}
		cp := st
		s.states[key] = &cp
	}
}

// Get returns a copy of one chat's state.
func (s *StateStore) Get(channel, chatID string) (domain.ChatEngagementState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[stateKey(channel, chatID)]
	if !ok {
		return domain.ChatEngagementState{}, false
	}
	return *st, true
}

// All returns a snapshot of every state in stable key order.
func (s *StateStore) All() []domain.ChatEngagementState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.states))
	for k := range s.states {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.ChatEngagementState, 0, len(keys))
	for _, k := range keys {
		out = append(out, *s.states[k])
	}
	return out
}

// MarkDailyPost advances the daily-post timestamp and resets the message
// counter. Timestamps never move backwards.
func (s *StateStore) MarkDailyPost(channel, chatID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[stateKey(channel, chatID)]; ok {
		if at.After(st.LastDailyPost) {
			st.LastDailyPost = at
		}
		st.MessagesSinceTrigger = 0
	}
}

// MarkGreeting advances the greeting timestamp and resets the message
// counter.
func (s *StateStore) MarkGreeting(channel, chatID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[stateKey(channel, chatID)]; ok {
		if at.After(st.LastGreeting) {
			st.LastGreeting = at
		}
		st.MessagesSinceTrigger = 0
	}
}
