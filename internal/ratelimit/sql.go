package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/welldanyogia/webrana-contact/internal/repository"
)

// SQLStore persists hits through the rate limit repository, so the
// window survives restarts and is shared by every instance on the database.
type SQLStore struct {
	repo   repository.RateLimitRepository
	policy Policy
	now    func() time.Time
}

// SQLOption configures a SQLStore.
type SQLOption func(*SQLStore)

// WithSQLClock replaces time.Now, for tests.
func WithSQLClock(now func() time.Time) SQLOption {
	return func(s *SQLStore) {
		s.now = now
	}
}

// NewSQLStore creates a store on top of repo.
func NewSQLStore(repo repository.RateLimitRepository, policy Policy, opts ...SQLOption) *SQLStore {
	s := &SQLStore{
		repo:   repo,
		policy: policy.normalized(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit counts and records the hit in a single repository transaction.
func (s *SQLStore) Admit(ctx context.Context, key string) (Decision, error) {
	now := s.now()

	res, err := s.repo.Admit(ctx, key, now, s.policy.Window, s.policy.Limit)
	if err != nil {
		return Decision{}, fmt.Errorf("sql admit: %w", err)
	}
	if res.Admitted {
		return Decision{Allowed: true, Remaining: s.policy.Limit - int(res.Count)}, nil
	}
	return denied(res.Oldest, now, s.policy.Window), nil
}

// Sweep deletes hits that have left the window for every caller.
func (s *SQLStore) Sweep(ctx context.Context) (int, error) {
	n, err := s.repo.Sweep(ctx, s.now().Add(-s.policy.Window))
	return int(n), err
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
