package flows

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dariamatveeva/beautycare-backend/pkg/config"
	apperrors "github.com/dariamatveeva/beautycare-backend/pkg/errors"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
)

func testSessionsConfig() config.SessionsConfig {
	return config.SessionsConfig{
		IdleTimeout:       30 * time.Minute,
		AggressiveTimeout: 5 * time.Minute,
		SweepInterval:     10 * time.Minute,
		CallbackDebounce:  700 * time.Millisecond,
	}
}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	coord, err := NewCoordinator(CoordinatorParams{
		Config: testSessionsConfig(),
		Logger: logger.New(logger.Options{ServiceName: "test", Output: os.Stderr}),
	})
	require.NoError(t, err)
	return coord
}

func TestStartUnknownFlow(t *testing.T) {
	coord := newTestCoordinator(t)

	_, err := coord.Start(context.Background(), 1, "horoscope")
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code())
}

func TestStartAndUpdateProgress(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	session, err := coord.Start(ctx, 1, FlowPalette)
	require.NoError(t, err)
	assert.Zero(t, session.StepCount)
	assert.Zero(t, session.Progress)
	assert.Empty(t, session.FlowData)

	base := time.Now()
	coord.now = func() time.Time { return base }
	session = coord.UpdateStep(ctx, 1, "A1_UNDERTONE", map[string]string{"undertone": "a"})
	require.NotNil(t, session)
	assert.Equal(t, 1, session.StepCount)
	assert.InDelta(t, 1.0/8.0, session.Progress, 1e-9)
	assert.Equal(t, "a", session.FlowData["undertone"])

	coord.now = func() time.Time { return base.Add(time.Second) }
	session = coord.UpdateStep(ctx, 1, "A6_CONTRAST", map[string]string{"contrast": "b"})
	require.NotNil(t, session)
	assert.Equal(t, 2, session.StepCount)
	assert.InDelta(t, 6.0/8.0, session.Progress, 1e-9)
	// Earlier answers are kept.
	assert.Equal(t, "a", session.FlowData["undertone"])
}

func TestUpdateUnknownStepIsNoop(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	_, err := coord.Start(ctx, 1, FlowSkincare)
	require.NoError(t, err)

	assert.Nil(t, coord.UpdateStep(ctx, 1, "Z9_BOGUS", map[string]string{"x": "y"}))

	session, ok := coord.Session(ctx, 1)
	require.True(t, ok)
	assert.Zero(t, session.StepCount)
	assert.Empty(t, session.FlowData)
}

func TestUpdateWithoutSession(t *testing.T) {
	coord := newTestCoordinator(t)
	assert.Nil(t, coord.UpdateStep(context.Background(), 1, "B1_TYPE", nil))
}

func TestDuplicateCallbackDebounced(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()
	base := time.Now()
	coord.now = func() time.Time { return base }

	_, err := coord.Start(ctx, 1, FlowSkincare)
	require.NoError(t, err)

	session := coord.UpdateStep(ctx, 1, "B1_TYPE", map[string]string{"skin_type": "dry"})
	require.NotNil(t, session)
	require.Equal(t, 1, session.StepCount)

	// Same button pressed again 200ms later: no state change.
	coord.now = func() time.Time { return base.Add(200 * time.Millisecond) }
	session = coord.UpdateStep(ctx, 1, "B1_TYPE", map[string]string{"skin_type": "oily"})
	require.NotNil(t, session)
	assert.Equal(t, 1, session.StepCount)
	assert.Equal(t, "dry", session.FlowData["skin_type"])

	// Past the window a repeat counts as a real answer.
	coord.now = func() time.Time { return base.Add(2 * time.Second) }
	session = coord.UpdateStep(ctx, 1, "B1_TYPE", map[string]string{"skin_type": "oily"})
	require.NotNil(t, session)
	assert.Equal(t, 2, session.StepCount)
	assert.Equal(t, "oily", session.FlowData["skin_type"])
}

func TestCanStartConflicts(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()
	base := time.Now()
	coord.now = func() time.Time { return base }

	ok, conflict := coord.CanStart(ctx, 1, FlowPalette)
	assert.True(t, ok)
	assert.Nil(t, conflict)

	_, err := coord.Start(ctx, 1, FlowPalette)
	require.NoError(t, err)
	coord.UpdateStep(ctx, 1, "A2_VALUE", nil)

	// Resuming the same flow is fine.
	ok, conflict = coord.CanStart(ctx, 1, FlowPalette)
	assert.True(t, ok)
	assert.Nil(t, conflict)

	coord.now = func() time.Time { return base.Add(5 * time.Minute) }
	ok, conflict = coord.CanStart(ctx, 1, FlowSkincare)
	assert.False(t, ok)
	require.NotNil(t, conflict)
	assert.Equal(t, FlowPalette, conflict.Flow)
	assert.Equal(t, "Цветотип", conflict.FlowTitle)
	assert.Equal(t, 1, conflict.StepCount)
	assert.InDelta(t, 2.0/8.0, conflict.Progress, 1e-9)
	assert.Equal(t, "5 мин назад", conflict.TimeAgo)
}

func TestCompleteRemovesSession(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	_, err := coord.Start(ctx, 1, FlowDetailedSkincare)
	require.NoError(t, err)
	coord.UpdateStep(ctx, 1, "Q1_TIGHTNESS", map[string]string{"tightness": "a"})

	final := coord.Complete(ctx, 1)
	require.NotNil(t, final)
	assert.Equal(t, 1.0, final.Progress)
	assert.Equal(t, "a", final.FlowData["tightness"])

	_, ok := coord.Session(ctx, 1)
	assert.False(t, ok)
	assert.Nil(t, coord.Complete(ctx, 1))
}

func TestAbandon(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	assert.False(t, coord.Abandon(ctx, 1))

	_, err := coord.Start(ctx, 1, FlowPalette)
	require.NoError(t, err)
	assert.True(t, coord.Abandon(ctx, 1))
	assert.False(t, coord.Abandon(ctx, 1))
}

func TestIdleSessionExpires(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()
	base := time.Now()
	coord.now = func() time.Time { return base }

	_, err := coord.Start(ctx, 1, FlowPalette)
	require.NoError(t, err)

	coord.now = func() time.Time { return base.Add(31 * time.Minute) }
	_, ok := coord.Session(ctx, 1)
	assert.False(t, ok)

	// An expired session no longer blocks a new flow.
	ok, conflict := coord.CanStart(ctx, 1, FlowSkincare)
	assert.True(t, ok)
	assert.Nil(t, conflict)
}

func TestReactivatedSessionSurvivesSweep(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()
	base := time.Now()
	coord.now = func() time.Time { return base }

	_, err := coord.Start(ctx, 1, FlowPalette)
	require.NoError(t, err)

	// Activity refresh just before the sweep threshold would fire.
	coord.now = func() time.Time { return base.Add(29 * time.Minute) }
	require.NotNil(t, coord.UpdateStep(ctx, 1, "A1_UNDERTONE", nil))

	coord.now = func() time.Time { return base.Add(31 * time.Minute) }
	assert.Zero(t, coord.SweepExpired(30*time.Minute, "idle"))

	_, ok := coord.Session(ctx, 1)
	assert.True(t, ok)
}

func TestSweepExpiredCounts(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()
	base := time.Now()
	coord.now = func() time.Time { return base }

	for userID := int64(1); userID <= 3; userID++ {
		_, err := coord.Start(ctx, userID, FlowPalette)
		require.NoError(t, err)
	}

	coord.now = func() time.Time { return base.Add(6 * time.Minute) }
	_, err := coord.Start(ctx, 4, FlowSkincare)
	require.NoError(t, err)

	// Aggressive restart sweep removes the stale three, keeps the fresh one.
	assert.Equal(t, 3, coord.SweepExpired(5*time.Minute, "aggressive"))
	_, ok := coord.Session(ctx, 4)
	assert.True(t, ok)
}

func TestRecoveryInfo(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()
	base := time.Now()
	coord.now = func() time.Time { return base }

	_, ok := coord.RecoveryInfo(ctx, 1)
	assert.False(t, ok)

	_, err := coord.Start(ctx, 1, FlowDetailedPalette)
	require.NoError(t, err)
	coord.UpdateStep(ctx, 1, "Q2_EYE_COLOR", map[string]string{"eye_color": "b"})

	coord.now = func() time.Time { return base.Add(40 * time.Second) }
	recovery, ok := coord.RecoveryInfo(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "Детальный цветотип", recovery.FlowTitle)
	assert.Equal(t, "Q2_EYE_COLOR", recovery.CurrentStep)
	assert.Equal(t, "только что", recovery.TimeAgo)
	assert.InDelta(t, 2.0/9.0, recovery.Progress, 1e-9)
}

func TestStats(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	assert.Zero(t, coord.Stats().ActiveSessions)

	_, err := coord.Start(ctx, 1, FlowPalette)
	require.NoError(t, err)
	_, err = coord.Start(ctx, 2, FlowPalette)
	require.NoError(t, err)
	_, err = coord.Start(ctx, 3, FlowSkincare)
	require.NoError(t, err)
	coord.UpdateStep(ctx, 1, "A4_BROWS", nil)

	stats := coord.Stats()
	assert.Equal(t, 3, stats.ActiveSessions)
	assert.Equal(t, 2, stats.FlowDistribution[FlowPalette])
	assert.Equal(t, 1, stats.FlowDistribution[FlowSkincare])
	assert.Equal(t, 1, stats.TotalSteps)
	assert.InDelta(t, (4.0/8.0)/3.0, stats.AverageProgress, 1e-9)
}

func TestFormatTimeAgo(t *testing.T) {
	assert.Equal(t, "только что", FormatTimeAgo(30*time.Second))
	assert.Equal(t, "5 мин назад", FormatTimeAgo(5*time.Minute+10*time.Second))
	assert.Equal(t, "2 ч назад", FormatTimeAgo(2*time.Hour+30*time.Minute))
}
