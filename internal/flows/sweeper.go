package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/dariamatveeva/beautycare-backend/pkg/config"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
	"github.com/dariamatveeva/beautycare-backend/pkg/metrics"
)

// Sweeper periodically expires idle sessions. It also runs one aggressive
// pass at startup, clearing sessions left over from before a restart.
type Sweeper struct {
	coord   *Coordinator
	cfg     config.SessionsConfig
	metrics *metrics.PlatformMetrics
	logg    *logger.Logger
	done    chan struct{}
}

func NewSweeper(coord *Coordinator, cfg config.SessionsConfig, m *metrics.PlatformMetrics, logg *logger.Logger) (*Sweeper, error) {
	if coord == nil {
		return nil, fmt.Errorf("coordinator is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Sweeper{
		coord:   coord,
		cfg:     cfg,
		metrics: m,
		logg:    logg,
		done:    make(chan struct{}),
	}, nil
}

// Run blocks until the context is cancelled or Stop is called. Intended to
// be launched as a goroutine at startup.
func (s *Sweeper) Run(ctx context.Context) {
	// Startup pass with the aggressive threshold.
	s.sweep(ctx, s.cfg.AggressiveTimeout, "aggressive")

	interval := s.cfg.SweepInterval
	if interval <= 0 || interval > s.cfg.IdleTimeout/2 {
		interval = s.cfg.IdleTimeout / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(ctx, s.cfg.IdleTimeout, "idle")
		}
	}
}

// Stop signals Run to exit. Safe to call once.
func (s *Sweeper) Stop() {
	close(s.done)
}

func (s *Sweeper) sweep(ctx context.Context, threshold time.Duration, mode string) {
	start := time.Now()
	expired := s.coord.SweepExpired(threshold, mode)
	s.metrics.ObserveSweep(time.Since(start))

	if expired > 0 {
		lctx := s.logg.WithFields(ctx, map[string]any{
			"expired": expired,
			"mode":    mode,
		})
		s.logg.Info(lctx, "expired idle sessions")
	}
}
