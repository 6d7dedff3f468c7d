package engagement

import (
	"go.uber.org/zap"

	"weave-backend/internal/domain/graph"
)

// FeedbackSink receives aggregated per-content feedback, typically the agent
// pool that created the content
type FeedbackSink interface {
	ProcessFeedback(contentID, agentID string, viewTime float64, likes int)
}

// Tracker is the engagement front door for a single viewer session. It runs
// the attention state machine and commits events to the graph, forwarding
// feedback to the creating agent when one is known.
type Tracker struct {
	store     *graph.Store
	attention *AttentionTracker
	sink      FeedbackSink
	userID    string
	logger    *zap.Logger
}

// NewTracker creates a tracker for the given user node id. sink may be nil
// when no agent feedback loop is attached.
func NewTracker(store *graph.Store, userID string, sink FeedbackSink, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:     store,
		attention: NewAttentionTracker(),
		sink:      sink,
		userID:    userID,
		logger:    logger,
	}
}

// Attention exposes the session's attention state machine
func (t *Tracker) Attention() *AttentionTracker { return t.attention }

// StartViewing begins attending to contentID. A still-active prior view is
// flushed to the graph first.
func (t *Tracker) StartViewing(contentID string) {
	flushedID, viewTime := t.attention.StartViewing(contentID)
	if flushedID != "" {
		t.commitView(flushedID, viewTime)
	}
}

// StopViewing ends the current view and records it. Returns the content id
// and effective view time that were committed.
func (t *Tracker) StopViewing() (string, float64) {
	contentID, viewTime := t.attention.StopViewing()
	if contentID != "" {
		t.commitView(contentID, viewTime)
	}
	return contentID, viewTime
}

func (t *Tracker) commitView(contentID string, viewTime float64) {
	if err := t.store.RecordView(contentID, t.userID, viewTime); err != nil {
		t.logger.Warn("failed to record view",
			zap.String("content_id", contentID),
			zap.String("user_id", t.userID),
			zap.Error(err))
		return
	}
	t.forwardFeedback(contentID, viewTime, 0)
}

// RecordLike records a like on contentID. The like counts the attention
// accumulated so far when the liked content is the one being viewed.
func (t *Tracker) RecordLike(contentID string) error {
	if err := t.store.RecordLike(contentID, t.userID); err != nil {
		return err
	}
	viewTime := 0.0
	if t.attention.CurrentContentID() == contentID {
		viewTime = t.attention.CurrentViewTime()
	}
	t.forwardFeedback(contentID, viewTime, 1)
	return nil
}

// RecordShare records a share of contentID on the given platform
func (t *Tracker) RecordShare(contentID, platform string) error {
	return t.store.RecordShare(contentID, t.userID, platform)
}

// RecordComment records a comment on contentID
func (t *Tracker) RecordComment(contentID, commentID string) error {
	return t.store.RecordComment(contentID, t.userID, commentID)
}

// RecordSkip ends the current view without positive feedback. Skips still
// report their (short) view time so agents learn what gets skipped.
func (t *Tracker) RecordSkip(contentID string) {
	viewTime := 0.0
	if t.attention.CurrentContentID() == contentID {
		viewTime = t.attention.CurrentViewTime()
		t.attention.StopViewing()
		if err := t.store.RecordView(contentID, t.userID, viewTime); err != nil {
			t.logger.Warn("failed to record skipped view",
				zap.String("content_id", contentID), zap.Error(err))
		}
	}
	t.forwardFeedback(contentID, viewTime, 0)
}

// forwardFeedback routes engagement to the content's creating agent, if any
func (t *Tracker) forwardFeedback(contentID string, viewTime float64, likes int) {
	if t.sink == nil {
		return
	}
	node, err := t.store.GetNode(contentID)
	if err != nil {
		return
	}
	agentID := node.Content().AgentID
	if agentID == "" {
		return
	}
	t.sink.ProcessFeedback(contentID, agentID, viewTime, likes)
}
