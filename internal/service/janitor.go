package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/blog_api/internal/logging"
)

// SessionJanitor purges expired refresh tokens every Interval until ctx ends.
type SessionJanitor struct {
	Sessions SessionStore
	Interval time.Duration
}

func (j *SessionJanitor) Run(ctx context.Context) {
	if j.Interval <= 0 {
		return
	}
	l := logging.FromContext(ctx).With("svc", "session.janitor")
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.Sessions.DeleteExpiredRefreshTokens(ctx, time.Now())
			if err != nil {
				l.Warn("session_gc_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("session_gc", "deleted", n)
			}
		}
	}
}
