// Package ratelimit bounds how many contact submissions a single caller
// identifier may make within a trailing time window.
//
// Three stores implement Limiter: MemoryStore for single-instance
// deployments, and RedisStore and SQLStore for deployments where several
// processes must share the same window.
package ratelimit

import (
	"context"
	"time"
)

// Defaults applied to contact submissions.
const (
	DefaultLimit  = 5
	DefaultWindow = 10 * time.Minute
)

// Policy is a sliding-window rule: at most Limit admissions per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// DefaultPolicy returns 5 submissions per 10 minutes.
func DefaultPolicy() Policy {
	return Policy{Limit: DefaultLimit, Window: DefaultWindow}
}

func (p Policy) normalized() Policy {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Window <= 0 {
		p.Window = DefaultWindow
	}
	return p
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed bool
	// Remaining admissions left in the current window after this one.
	Remaining int
	// RetryAfter is when the oldest recorded hit leaves the window. Zero when allowed.
	RetryAfter time.Duration
}

// Limiter decides whether a caller may submit now. An admitted call is
// recorded; a denied call is not.
type Limiter interface {
	Admit(ctx context.Context, key string) (Decision, error)
}

// Pinger is implemented by stores backed by an external service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sweeper is implemented by stores that can drop callers whose window
// has fully elapsed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

func denied(oldest, now time.Time, window time.Duration) Decision {
	retry := oldest.Add(window).Sub(now)
	if retry < 0 {
		retry = 0
	}
	return Decision{Allowed: false, RetryAfter: retry}
}
