package engagement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// manualClock steps time forward under test control
type manualClock struct {
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time            { return c.now }
func (c *manualClock) Advance(d time.Duration)   { c.now = c.now.Add(d) }

func TestAttentionTracker_BasicView(t *testing.T) {
	clock := newManualClock()
	a := NewAttentionTracker()
	a.SetClock(clock.Now)

	a.StartViewing("post-1")
	clock.Advance(30 * time.Second)

	id, viewTime := a.StopViewing()
	assert.Equal(t, "post-1", id)
	assert.InDelta(t, 30.0, viewTime, 1e-9)

	// Stopping again while idle reports nothing.
	id, viewTime = a.StopViewing()
	assert.Empty(t, id)
	assert.Zero(t, viewTime)
}

func TestAttentionTracker_PauseExcludedFromViewTime(t *testing.T) {
	clock := newManualClock()
	a := NewAttentionTracker()
	a.SetClock(clock.Now)

	a.StartViewing("post-1")
	clock.Advance(10 * time.Second)
	a.Pause()
	clock.Advance(60 * time.Second)
	a.Resume()
	clock.Advance(5 * time.Second)

	_, viewTime := a.StopViewing()
	assert.InDelta(t, 15.0, viewTime, 1e-9)
}

func TestAttentionTracker_StopWhilePaused(t *testing.T) {
	clock := newManualClock()
	a := NewAttentionTracker()
	a.SetClock(clock.Now)

	a.StartViewing("post-1")
	clock.Advance(10 * time.Second)
	a.Pause()
	clock.Advance(20 * time.Second)

	_, viewTime := a.StopViewing()
	assert.InDelta(t, 10.0, viewTime, 1e-9, "time spent paused must not count")
}

func TestAttentionTracker_StartFlushesActiveView(t *testing.T) {
	clock := newManualClock()
	a := NewAttentionTracker()
	a.SetClock(clock.Now)

	a.StartViewing("post-1")
	clock.Advance(12 * time.Second)

	flushedID, flushedTime := a.StartViewing("post-2")
	assert.Equal(t, "post-1", flushedID)
	assert.InDelta(t, 12.0, flushedTime, 1e-9)
	assert.Equal(t, "post-2", a.CurrentContentID())
}

func TestAttentionTracker_PauseResumeEdgeCases(t *testing.T) {
	clock := newManualClock()
	a := NewAttentionTracker()
	a.SetClock(clock.Now)

	// Pause/Resume while idle are no-ops.
	a.Pause()
	a.Resume()
	assert.Zero(t, a.CurrentViewTime())

	a.StartViewing("post-1")
	a.Pause()
	// Double pause must not reset the pause start.
	clock.Advance(5 * time.Second)
	a.Pause()
	clock.Advance(5 * time.Second)
	a.Resume()
	// Double resume must not subtract twice.
	a.Resume()

	clock.Advance(3 * time.Second)
	_, viewTime := a.StopViewing()
	assert.InDelta(t, 3.0, viewTime, 1e-9)
}

func TestAttentionTracker_CurrentViewTime(t *testing.T) {
	clock := newManualClock()
	a := NewAttentionTracker()
	a.SetClock(clock.Now)

	a.StartViewing("post-1")
	clock.Advance(8 * time.Second)
	assert.InDelta(t, 8.0, a.CurrentViewTime(), 1e-9)

	a.Pause()
	clock.Advance(100 * time.Second)
	assert.InDelta(t, 8.0, a.CurrentViewTime(), 1e-9, "paused clock must freeze the reading")
}
