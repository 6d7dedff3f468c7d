package graph

import (
	"time"

	pkgerrors "weave-backend/pkg/errors"
)

// Engagement events. Each appends a typed user->content edge, bumps the
// matching counter on the content node and folds a sample into the scores of
// every topic the content is tagged with. Events are append-only so the
// trending window can count them by edge timestamp.

// RecordView records that userID viewed contentID for duration seconds
func (s *Store) RecordView(contentID, userID string, duration float64) error {
	return s.recordEvent(contentID, userID, EdgeViews, EdgeProps{Duration: duration},
		func(n *Node, now time.Time) { n.recordView(duration, now) },
		viewSample(duration))
}

// RecordLike records a like from userID on contentID
func (s *Store) RecordLike(contentID, userID string) error {
	return s.recordEvent(contentID, userID, EdgeLikes, EdgeProps{},
		func(n *Node, now time.Time) { n.addLike(now) }, 1.0)
}

// RecordShare records that userID shared contentID on the given platform
func (s *Store) RecordShare(contentID, userID, platform string) error {
	return s.recordEvent(contentID, userID, EdgeShares, EdgeProps{Platform: platform},
		func(n *Node, now time.Time) { n.addShare(now) }, 1.0)
}

// RecordComment records a comment by userID on contentID
func (s *Store) RecordComment(contentID, userID, commentID string) error {
	if commentID == "" {
		return pkgerrors.NewValidation("comment id cannot be empty")
	}
	return s.recordEvent(contentID, userID, EdgeComments, EdgeProps{CommentID: commentID},
		func(n *Node, now time.Time) { n.addComment(now) }, 1.0)
}

func (s *Store) recordEvent(contentID, userID string, typ EdgeType, props EdgeProps, bump func(*Node, time.Time), sample float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.nodes[contentID]
	if !ok || content.kind != KindContent {
		return pkgerrors.NewNotFound("content node " + contentID)
	}
	if _, ok := s.nodes[userID]; !ok {
		return pkgerrors.NewNotFound("user node " + userID)
	}

	now := s.now()
	s.insertEdgeLocked(newEdge(typ, userID, contentID, 0, props, now))
	bump(content, now)
	s.updateTaggedTopicsLocked(contentID, sample, now)
	return nil
}

// updateTaggedTopicsLocked folds one engagement sample into every topic the
// content links to via HAS_TAG
func (s *Store) updateTaggedTopicsLocked(contentID string, sample float64, now time.Time) {
	for _, e := range s.out[contentID] {
		if e.typ != EdgeHasTag {
			continue
		}
		target, ok := s.nodes[e.targetID]
		if !ok || target.kind != KindTopic {
			continue
		}
		target.updateEngagement(sample, "", now)
		target.updateTrending(sample, now)
	}
}

// viewSample normalizes a view duration to a 0..1 engagement sample, with a
// minute of attention counting as full engagement
func viewSample(duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	sample := duration / 60.0
	if sample > 1 {
		sample = 1
	}
	return sample
}
