package internal

import (
	"context"
	"time"
)

// DefaultQueryTimeout bounds every repository call made on behalf of a request.
const DefaultQueryTimeout = 5 * time.Second

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if duration <= 0 {
		duration = DefaultQueryTimeout
	}
	return context.WithTimeout(ctx, duration)
}
