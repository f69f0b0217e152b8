package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_FrameRunsOnFire(t *testing.T) {
	m := NewManual()
	ran := false
	m.Frame(func() { ran = true })

	assert.False(t, ran)
	m.Fire()
	assert.True(t, ran)
}

func TestManual_FireDrainsNestedFrames(t *testing.T) {
	m := NewManual()
	var order []string
	m.Frame(func() {
		order = append(order, "outer")
		m.Frame(func() { order = append(order, "inner") })
	})

	m.Fire()

	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestManual_AdvanceFiresDueTimersInDeadlineOrder(t *testing.T) {
	m := NewManual()
	var order []string
	m.After(200*time.Millisecond, func() { order = append(order, "late") })
	m.After(100*time.Millisecond, func() { order = append(order, "early") })
	m.After(300*time.Millisecond, func() { order = append(order, "never") })

	m.Advance(250 * time.Millisecond)

	require.Equal(t, []string{"early", "late"}, order)
	assert.Equal(t, 1, m.PendingTimers())
}

func TestManual_StoppedTimerNeverFires(t *testing.T) {
	m := NewManual()
	fired := false
	timer := m.After(100*time.Millisecond, func() { fired = true })

	assert.True(t, timer.Stop())
	m.Advance(200 * time.Millisecond)

	assert.False(t, fired)
	assert.False(t, timer.Stop(), "second stop reports nothing prevented")
}

func TestManual_AdvanceAccumulates(t *testing.T) {
	m := NewManual()
	fired := false
	m.After(100*time.Millisecond, func() { fired = true })

	m.Advance(60 * time.Millisecond)
	assert.False(t, fired)
	m.Advance(60 * time.Millisecond)
	assert.True(t, fired)
}

func TestManual_TimerScheduledDuringAdvance(t *testing.T) {
	m := NewManual()
	var order []string
	m.After(50*time.Millisecond, func() {
		order = append(order, "first")
		m.After(50*time.Millisecond, func() { order = append(order, "second") })
	})

	m.Advance(200 * time.Millisecond)

	require.Equal(t, []string{"first", "second"}, order)
}

func TestWall_AfterFires(t *testing.T) {
	w := NewWall()
	done := make(chan struct{})
	w.After(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "timer never fired")
	}
}

func TestWall_StopPreventsFiring(t *testing.T) {
	w := NewWall()
	var fired atomic.Bool
	timer := w.After(50*time.Millisecond, func() { fired.Store(true) })

	assert.True(t, timer.Stop())
	time.Sleep(100 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestWall_FrameFires(t *testing.T) {
	w := &Wall{FrameInterval: time.Millisecond}
	done := make(chan struct{})
	w.Frame(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "frame callback never ran")
	}
}
