package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore keeps a per-caller log of admission timestamps in process
// memory. State is lost on restart and is not shared between instances.
type MemoryStore struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	policy Policy
	now    func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore(policy Policy, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		hits:   make(map[string][]time.Time),
		policy: policy.normalized(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit prunes expired hits for key and records a new one if fewer than
// Limit remain. Prune and append happen under one lock.
func (s *MemoryStore) Admit(_ context.Context, key string) (Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	valid := s.prune(s.hits[key], now)
	if len(valid) >= s.policy.Limit {
		s.hits[key] = valid
		return denied(valid[0], now, s.policy.Window), nil
	}

	valid = append(valid, now)
	s.hits[key] = valid

	return Decision{Allowed: true, Remaining: s.policy.Limit - len(valid)}, nil
}

// prune drops timestamps at least one window old. hits is ordered oldest first.
func (s *MemoryStore) prune(hits []time.Time, now time.Time) []time.Time {
	i := 0
	for i < len(hits) && now.Sub(hits[i]) >= s.policy.Window {
		i++
	}
	if i == 0 {
		return hits
	}
	valid := make([]time.Time, len(hits)-i, max(len(hits)-i, s.policy.Limit))
	copy(valid, hits[i:])
	return valid
}

// Sweep removes callers whose newest hit has left the window. Without it a
// caller who never returns keeps its entry for the life of the process.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, hits := range s.hits {
		if len(hits) == 0 || now.Sub(hits[len(hits)-1]) >= s.policy.Window {
			delete(s.hits, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked callers.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hits)
}

// RunJanitor calls Sweep every interval until ctx is done.
func RunJanitor(ctx context.Context, sweeper Sweeper, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sweeper.Sweep(ctx)
			if logger == nil {
				continue
			}
			if err != nil {
				logger.Error("rate limit sweep failed", slog.Any("error", err))
				continue
			}
			if removed > 0 {
				logger.Debug("rate limit sweep", slog.Int("removed", removed))
			}
		}
	}
}
