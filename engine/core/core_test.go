package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEvents(t *testing.T) {
	t.Helper()
	EventSystemShutdown()
	require.True(t, EventSystemInitialize())
	require.NoError(t, InputInitialize())
	t.Cleanup(func() {
		EventSystemShutdown()
		InputShutdown()
	})
}

func TestEventFireStopsAtFirstHandler(t *testing.T) {
	withEvents(t)
	a, b := new(int), new(int)
	calls := []string{}
	require.True(t, EventRegister(EVENT_CODE_RESIZED, a, func(ctx EventContext) bool {
		calls = append(calls, "a")
		return true
	}))
	require.True(t, EventRegister(EVENT_CODE_RESIZED, b, func(ctx EventContext) bool {
		calls = append(calls, "b")
		return false
	}))
	assert.False(t, EventRegister(EVENT_CODE_RESIZED, a, func(ctx EventContext) bool { return false }))

	assert.True(t, EventFire(EventContext{Type: EVENT_CODE_RESIZED, Data: &SystemEvent{WindowWidth: 1}}))
	assert.Equal(t, []string{"a"}, calls)

	assert.True(t, EventUnregister(EVENT_CODE_RESIZED, a))
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_RESIZED}))
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestInputProcessKeyFiresOnlyOnChange(t *testing.T) {
	withEvents(t)
	var got []EventCode
	listener := new(int)
	handler := func(ctx EventContext) bool {
		got = append(got, ctx.Type)
		return false
	}
	EventRegister(EVENT_CODE_KEY_PRESSED, listener, handler)
	EventRegister(EVENT_CODE_KEY_RELEASED, listener, handler)

	require.NoError(t, InputProcessKey(KEY_W, true))
	require.NoError(t, InputProcessKey(KEY_W, true))
	require.NoError(t, InputProcessKey(KEY_W, false))
	assert.Equal(t, []EventCode{EVENT_CODE_KEY_PRESSED, EVENT_CODE_KEY_RELEASED}, got)
	assert.True(t, InputIsKeyUp(KEY_W))
}

func TestInputMouseMoveReportsDeltas(t *testing.T) {
	withEvents(t)
	var moves []MouseEvent
	EventRegister(EVENT_CODE_MOUSE_MOVED, new(int), func(ctx EventContext) bool {
		moves = append(moves, *ctx.Data.(*MouseEvent))
		return true
	})
	require.NoError(t, InputProcessMouseMove(100, 100))
	require.NoError(t, InputProcessMouseMove(110, 95))
	require.Len(t, moves, 1)
	assert.Equal(t, float32(10), moves[0].DeltaX)
	assert.Equal(t, float32(-5), moves[0].DeltaY)
}

func TestFPSCalculator(t *testing.T) {
	now := time.Unix(0, 0)
	f := NewFPSCalculator(func() time.Time { return now })
	for i := 0; i < 120; i++ {
		f.Count()
	}
	now = now.Add(2 * time.Second)
	assert.InDelta(t, 60.0, f.FPS(), 1e-9)
	now = now.Add(time.Second)
	assert.Equal(t, 0.0, f.FPS())
}

func TestMetricsAverage(t *testing.T) {
	require.NoError(t, MetricsInitialize())
	for i := 0; i < AVG_COUNT; i++ {
		MetricsUpdate(0.016)
	}
	assert.InDelta(t, 16.0, MetricsFrameTime(), 1e-6)

	// The window slides: half of it now holds slower frames.
	for i := 0; i < AVG_COUNT/2; i++ {
		MetricsUpdate(0.032)
	}
	assert.InDelta(t, 24.0, MetricsFrameTime(), 1e-6)
}

func TestDeltaTimerFirstTickIsZero(t *testing.T) {
	now := time.Unix(10, 0)
	d := NewDeltaTimer(func() time.Time { return now })
	assert.Equal(t, float32(0), d.Tick())
	now = now.Add(500 * time.Millisecond)
	assert.InDelta(t, 0.5, d.Tick(), 1e-6)
}
