// Package background runs best-effort work that must not delay or fail
// the request that triggered it.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds a single task when none is configured.
const DefaultTimeout = 10 * time.Second

// Observer is told about every failed task.
type Observer func(name string, err error)

// SideChannel runs tasks detached from the caller's cancellation.
type SideChannel struct {
	wg       sync.WaitGroup
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

// Option configures a SideChannel.
type Option func(*SideChannel)

// WithTimeout sets the per-task timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *SideChannel) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithObserver registers a failure callback.
func WithObserver(o Observer) Option {
	return func(s *SideChannel) {
		s.observer = o
	}
}

// New creates a SideChannel that logs failures to logger.
func New(logger *slog.Logger, opts ...Option) *SideChannel {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SideChannel{
		timeout: DefaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Go runs fn in its own goroutine. fn receives a context that keeps ctx's
// values but not its cancellation, bounded by the channel timeout.
// Errors and panics are logged and observed, never returned.
func (s *SideChannel) Go(ctx context.Context, name string, fn func(context.Context) error) {
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		err := s.run(taskCtx, fn)
		if err == nil {
			return
		}

		s.logger.Warn("background task failed", slog.String("task", name), slog.Any("error", err))
		if s.observer != nil {
			s.observer(name, err)
		}
	}()
}

func (s *SideChannel) run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every started task has finished.
func (s *SideChannel) Wait() {
	s.wg.Wait()
}

// Drain waits like Wait but gives up when ctx is done. It reports whether
// all tasks finished.
func (s *SideChannel) Drain(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
