package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dariamatveeva/beautycare-backend/api/responses"
	pkgerrors "github.com/dariamatveeva/beautycare-backend/pkg/errors"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
)

// Limiter is the fixed-window counter contract. The redis client satisfies
// it; LocalLimiter is the in-process fallback when redis is not configured.
type Limiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit enforces a fixed-window limit per client IP and bucket name.
// Limiter failures fail open: a broken redis must not take the API down.
func RateLimit(name string, limit int64, window time.Duration, limiter Limiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 || window <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			scope := name + ":" + clientIP(r)
			allowed, count, err := limiter.FixedWindowAllow(ctx, scope, limit, window)
			if err != nil {
				if logg != nil {
					lctx := logg.WithFields(ctx, map[string]any{"scope": scope, "error": err.Error()})
					logg.Warn(lctx, "rate limiter unavailable, allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests").
						WithDetails(map[string]any{"count": count}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type localWindow struct {
	start time.Time
	count int64
}

// LocalLimiter is a process-local fixed-window counter used when no redis
// endpoint is configured. Windows are pruned lazily on access.
type LocalLimiter struct {
	mu      sync.Mutex
	windows map[string]localWindow
	now     func() time.Time
}

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		windows: make(map[string]localWindow),
		now:     time.Now,
	}
}

func (l *LocalLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.windows[scope]
	if !ok || now.Sub(entry.start) >= window {
		entry = localWindow{start: now}
	}
	entry.count++
	l.windows[scope] = entry

	if len(l.windows) > 4096 {
		for key, win := range l.windows {
			if now.Sub(win.start) >= window {
				delete(l.windows, key)
			}
		}
	}
	return entry.count <= limit, entry.count, nil
}
