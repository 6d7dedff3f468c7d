// Package engagement turns raw viewer behavior into graph events: an
// attention state machine measures effective view time per session, and the
// tracker commits views, likes, shares and comments to the graph.
package engagement

import (
	"sync"
	"time"
)

// attentionState is the tracker's position in the viewing lifecycle
type attentionState int

const (
	stateIdle attentionState = iota
	stateViewing
	statePaused
)

// AttentionTracker measures how long a viewer actually attends to one piece
// of content. Paused intervals (tab switches, backgrounding) are subtracted
// from the reported view time. Only one content item is tracked at a time;
// starting a new view flushes the previous one.
type AttentionTracker struct {
	mu          sync.Mutex
	state       attentionState
	contentID   string
	startedAt   time.Time
	pausedAt    time.Time
	totalPaused time.Duration
	now         func() time.Time
}

// NewAttentionTracker creates an idle tracker
func NewAttentionTracker() *AttentionTracker {
	return &AttentionTracker{now: time.Now}
}

// SetClock overrides the tracker's time source. Intended for tests.
func (a *AttentionTracker) SetClock(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
}

// StartViewing begins tracking contentID. An active view is implicitly
// stopped first; its result is returned so the caller can flush it.
func (a *AttentionTracker) StartViewing(contentID string) (flushedID string, flushedViewTime float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != stateIdle {
		flushedID, flushedViewTime = a.stopLocked()
	}
	a.contentID = contentID
	a.startedAt = a.now()
	a.totalPaused = 0
	a.state = stateViewing
	return flushedID, flushedViewTime
}

// Pause suspends the attention clock. A no-op unless actively viewing.
func (a *AttentionTracker) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != stateViewing {
		return
	}
	a.pausedAt = a.now()
	a.state = statePaused
}

// Resume restarts the attention clock after a pause
func (a *AttentionTracker) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != statePaused {
		return
	}
	a.totalPaused += a.now().Sub(a.pausedAt)
	a.state = stateViewing
}

// StopViewing ends the current view and returns its content id and effective
// view time in seconds. Returns ("", 0) when idle.
func (a *AttentionTracker) StopViewing() (string, float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopLocked()
}

func (a *AttentionTracker) stopLocked() (string, float64) {
	if a.state == stateIdle {
		return "", 0
	}
	if a.state == statePaused {
		a.totalPaused += a.now().Sub(a.pausedAt)
	}
	viewTime := a.now().Sub(a.startedAt).Seconds() - a.totalPaused.Seconds()
	if viewTime < 0 {
		viewTime = 0
	}
	contentID := a.contentID

	a.state = stateIdle
	a.contentID = ""
	a.totalPaused = 0
	return contentID, viewTime
}

// CurrentContentID returns the content being tracked, or "" when idle
func (a *AttentionTracker) CurrentContentID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.contentID
}

// CurrentViewTime reports the effective view time so far without stopping
func (a *AttentionTracker) CurrentViewTime() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case stateIdle:
		return 0
	case statePaused:
		elapsed := a.pausedAt.Sub(a.startedAt).Seconds() - a.totalPaused.Seconds()
		if elapsed < 0 {
			return 0
		}
		return elapsed
	default:
		elapsed := a.now().Sub(a.startedAt).Seconds() - a.totalPaused.Seconds()
		if elapsed < 0 {
			return 0
		}
		return elapsed
	}
}
