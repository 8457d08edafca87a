package flows

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dariamatveeva/beautycare-backend/pkg/config"
	"github.com/dariamatveeva/beautycare-backend/pkg/errors"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
	"github.com/dariamatveeva/beautycare-backend/pkg/metrics"
)

// Session is one user's active questionnaire run. At most one exists per
// user at any time.
type Session struct {
	UserID       int64             `json:"user_id"`
	Flow         string            `json:"flow"`
	CurrentStep  string            `json:"current_step"`
	FlowData     map[string]string `json:"flow_data"`
	StartedAt    time.Time         `json:"started_at"`
	LastActivity time.Time         `json:"last_activity"`
	StepCount    int               `json:"step_count"`
	Progress     float64           `json:"progress"`
}

// clone returns a detached copy so callers never observe a session mutated
// under the coordinator lock.
func (s *Session) clone() *Session {
	cp := *s
	cp.FlowData = make(map[string]string, len(s.FlowData))
	for k, v := range s.FlowData {
		cp.FlowData[k] = v
	}
	return &cp
}

// Conflict describes the session blocking a new flow start.
type Conflict struct {
	Flow         string    `json:"flow"`
	FlowTitle    string    `json:"flow_title"`
	Progress     float64   `json:"progress"`
	StepCount    int       `json:"step_count"`
	LastActivity time.Time `json:"last_activity"`
	TimeAgo      string    `json:"time_ago"`
}

// Recovery carries what the shell needs to offer "continue where you left
// off" after a reconnect.
type Recovery struct {
	Flow        string  `json:"flow"`
	FlowTitle   string  `json:"flow_title"`
	Description string  `json:"description"`
	Progress    float64 `json:"progress"`
	StepCount   int     `json:"step_count"`
	TimeAgo     string  `json:"time_ago"`
	CurrentStep string  `json:"current_step"`
}

// Stats is a point-in-time snapshot of session activity for monitoring.
type Stats struct {
	ActiveSessions   int            `json:"active_sessions"`
	FlowDistribution map[string]int `json:"flow_distribution"`
	AverageProgress  float64        `json:"average_progress"`
	TotalSteps       int            `json:"total_steps_completed"`
}

type CoordinatorParams struct {
	Config  config.SessionsConfig
	Metrics *metrics.PlatformMetrics
	Logger  *logger.Logger
}

// Coordinator enforces the single-active-flow invariant and tracks step
// progress. All state is in-memory behind one mutex; sessions are cheap and
// expire quickly.
type Coordinator struct {
	cfg     config.SessionsConfig
	metrics *metrics.PlatformMetrics
	logg    *logger.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewCoordinator(params CoordinatorParams) (*Coordinator, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Coordinator{
		cfg:      params.Config,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      time.Now,
		sessions: make(map[int64]*Session),
	}, nil
}

// CanStart reports whether the user may begin the requested flow. Resuming
// the flow that is already active is always allowed; a different active
// flow produces a conflict describing it.
func (c *Coordinator) CanStart(ctx context.Context, userID int64, requestedFlow string) (bool, *Conflict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked(c.cfg.IdleTimeout, "idle")

	session, ok := c.sessions[userID]
	if !ok || session.Flow == requestedFlow {
		return true, nil
	}

	title := session.Flow
	if def, ok := DefinitionFor(session.Flow); ok {
		title = def.Title
	}
	return false, &Conflict{
		Flow:         session.Flow,
		FlowTitle:    title,
		Progress:     session.Progress,
		StepCount:    session.StepCount,
		LastActivity: session.LastActivity,
		TimeAgo:      FormatTimeAgo(c.now().Sub(session.LastActivity)),
	}
}

// Start creates a fresh session, discarding any previous one. Callers are
// expected to have honored CanStart.
func (c *Coordinator) Start(ctx context.Context, userID int64, flow string) (*Session, error) {
	if !KnownFlow(flow) {
		return nil, errors.New(errors.CodeValidation, "unknown flow").
			WithDetails(map[string]any{"flow": flow})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	session := &Session{
		UserID:       userID,
		Flow:         flow,
		FlowData:     make(map[string]string),
		StartedAt:    now,
		LastActivity: now,
	}
	c.sessions[userID] = session
	c.metrics.SetActiveSessions(len(c.sessions))

	c.logg.Info(c.logg.WithFlow(c.logg.WithUserID(ctx, userID), flow), "flow started")
	return session.clone(), nil
}

// UpdateStep records an answered step: merges the partial data, advances
// the step counter and recomputes progress. An unknown step name or a
// missing session is a no-op returning nil. A duplicate callback for the
// step just recorded, inside the debounce window, returns the session
// unchanged.
func (c *Coordinator) UpdateStep(ctx context.Context, userID int64, step string, data map[string]string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[userID]
	if !ok {
		return nil
	}
	idx := stepIndex(session.Flow, step)
	if idx < 0 {
		return nil
	}

	now := c.now()
	if session.CurrentStep == step && c.cfg.CallbackDebounce > 0 &&
		now.Sub(session.LastActivity) < c.cfg.CallbackDebounce {
		return session.clone()
	}

	session.CurrentStep = step
	session.LastActivity = now
	session.StepCount++
	for k, v := range data {
		session.FlowData[k] = v
	}
	if def, ok := DefinitionFor(session.Flow); ok {
		session.Progress = float64(idx+1) / float64(len(def.Steps))
	}
	return session.clone()
}

// Complete finalizes the session: progress is forced to 1 and the session
// is removed. Returns nil when the user has no active session.
func (c *Coordinator) Complete(ctx context.Context, userID int64) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[userID]
	if !ok {
		return nil
	}
	session.Progress = 1.0
	delete(c.sessions, userID)
	c.metrics.SetActiveSessions(len(c.sessions))

	c.logg.Info(c.logg.WithFlow(c.logg.WithUserID(ctx, userID), session.Flow), "flow completed")
	return session
}

// Abandon removes the session unconditionally.
func (c *Coordinator) Abandon(ctx context.Context, userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[userID]
	if !ok {
		return false
	}
	delete(c.sessions, userID)
	c.metrics.SetActiveSessions(len(c.sessions))

	c.logg.Info(c.logg.WithFlow(c.logg.WithUserID(ctx, userID), session.Flow), "flow abandoned")
	return true
}

// Session returns the user's active session, pruning expired ones first.
func (c *Coordinator) Session(ctx context.Context, userID int64) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked(c.cfg.IdleTimeout, "idle")

	session, ok := c.sessions[userID]
	if !ok {
		return nil, false
	}
	return session.clone(), true
}

// RecoveryInfo builds the resume prompt data for a reconnecting user.
func (c *Coordinator) RecoveryInfo(ctx context.Context, userID int64) (*Recovery, bool) {
	session, ok := c.Session(ctx, userID)
	if !ok {
		return nil, false
	}

	title, description := session.Flow, ""
	if def, ok := DefinitionFor(session.Flow); ok {
		title, description = def.Title, def.Description
	}
	return &Recovery{
		Flow:        session.Flow,
		FlowTitle:   title,
		Description: description,
		Progress:    session.Progress,
		StepCount:   session.StepCount,
		TimeAgo:     FormatTimeAgo(c.now().Sub(session.LastActivity)),
		CurrentStep: session.CurrentStep,
	}, true
}

// Stats summarizes the active sessions.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		ActiveSessions:   len(c.sessions),
		FlowDistribution: make(map[string]int),
	}
	total := 0.0
	for _, session := range c.sessions {
		stats.FlowDistribution[session.Flow]++
		stats.TotalSteps += session.StepCount
		total += session.Progress
	}
	if stats.ActiveSessions > 0 {
		stats.AverageProgress = total / float64(stats.ActiveSessions)
	}
	return stats
}

// SweepExpired removes sessions idle longer than the threshold and returns
// how many were removed. mode labels the expiry metric.
func (c *Coordinator) SweepExpired(threshold time.Duration, mode string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expireLocked(threshold, mode)
}

// expireLocked must be called with the mutex held. The last-activity check
// happens under the lock, so a session reactivated between sweeps survives.
func (c *Coordinator) expireLocked(threshold time.Duration, mode string) int {
	if threshold <= 0 {
		return 0
	}
	now := c.now()
	expired := 0
	for userID, session := range c.sessions {
		if now.Sub(session.LastActivity) > threshold {
			delete(c.sessions, userID)
			expired++
		}
	}
	if expired > 0 {
		c.metrics.AddExpiredSessions(mode, expired)
		c.metrics.SetActiveSessions(len(c.sessions))
	}
	return expired
}

// FormatTimeAgo renders a coarse "time since" phrase for conflict and
// recovery prompts.
func FormatTimeAgo(elapsed time.Duration) string {
	switch {
	case elapsed < time.Minute:
		return "только что"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d мин назад", int(elapsed.Minutes()))
	default:
		return fmt.Sprintf("%d ч назад", int(elapsed.Hours()))
	}
}
