// Package engine exposes the knowledge-graph engine to the web layer as one
// facade. Every operation takes a context, is traced, and records its latency.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"weave-backend/internal/agents"
	"weave-backend/internal/domain/graph"
	"weave-backend/internal/engagement"
	"weave-backend/internal/feed"
	"weave-backend/internal/scoring"
	"weave-backend/pkg/errors"
	"weave-backend/pkg/observability"
)

// Interaction types accepted by RecordInteraction
const (
	InteractionView    = "view"
	InteractionLike    = "like"
	InteractionShare   = "share"
	InteractionComment = "comment"
)

// Service is the engine facade. It owns no state of its own beyond per-user
// viewing sessions; all graph state lives in the store.
type Service struct {
	store     *graph.Store
	engine    *scoring.Engine
	generator *agents.Generator
	source    *feed.GraphSource
	metrics   *observability.Collector
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*engagement.Tracker
	cursors  map[string]*feed.Cursor
}

// NewService wires the facade over the store, scoring engine and agent pool
func NewService(store *graph.Store, engine *scoring.Engine, generator *agents.Generator, metrics *observability.Collector, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		engine:    engine,
		generator: generator,
		source:    feed.NewGraphSource(store, engine),
		metrics:   metrics,
		logger:    logger,
		sessions:  make(map[string]*engagement.Tracker),
		cursors:   make(map[string]*feed.Cursor),
	}
}

// observe traces and times one facade operation
func (s *Service) observe(ctx context.Context, operation string) (context.Context, func(error)) {
	ctx, span := observability.StartSpan(ctx, "engine."+operation)
	start := time.Now()
	return ctx, func(err error) {
		s.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		observability.EndSpan(span, err)
	}
}

// UpsertNode creates or updates a node addressed by (kind, key)
func (s *Service) UpsertNode(ctx context.Context, kind graph.NodeKind, key string, props map[string]any) (id string, err error) {
	_, done := s.observe(ctx, "UpsertNode")
	defer func() { done(err) }()

	id, err = s.store.UpsertNode(kind, key, props)
	if err == nil {
		s.metrics.SetGraphSize(s.store.NodeCount(), s.store.EdgeCount())
	}
	return id, err
}

// AddEdge creates a typed edge between two existing nodes
func (s *Service) AddEdge(ctx context.Context, typ graph.EdgeType, sourceID, targetID string, weight float64, props graph.EdgeProps) (id string, err error) {
	_, done := s.observe(ctx, "AddEdge")
	defer func() { done(err) }()

	id, err = s.store.AddEdge(typ, sourceID, targetID, weight, props)
	if err == nil {
		s.metrics.SetGraphSize(s.store.NodeCount(), s.store.EdgeCount())
	}
	return id, err
}

// GetTrendingTopics returns topic names by descending trending score
func (s *Service) GetTrendingTopics(ctx context.Context, limit int) []string {
	_, done := s.observe(ctx, "GetTrendingTopics")
	defer done(nil)
	return s.store.TrendingTopics(limit)
}

// GetPopularTopics returns topic names by descending engagement score
func (s *Service) GetPopularTopics(ctx context.Context, limit int) []string {
	_, done := s.observe(ctx, "GetPopularTopics")
	defer done(nil)
	return s.store.PopularTopics(limit)
}

// GetTopicsByCategory returns topic names matching any of the categories
func (s *Service) GetTopicsByCategory(ctx context.Context, categories []string) []string {
	_, done := s.observe(ctx, "GetTopicsByCategory")
	defer done(nil)
	return s.store.TopicsByCategory(categories)
}

// GetTrendingContent returns content ranked by recent engagement. A zero
// window falls back to the default 24h.
func (s *Service) GetTrendingContent(ctx context.Context, limit int, window time.Duration) []scoring.ScoredItem {
	_, done := s.observe(ctx, "GetTrendingContent")
	defer done(nil)

	if window <= 0 {
		window = scoring.DefaultTrendingWindow
	}
	return s.engine.TrendingContent(limit, window)
}

// GetRecommendedContent returns personalized recommendations for the user
func (s *Service) GetRecommendedContent(ctx context.Context, userID string, limit int, excludeSeen bool) []scoring.ScoredItem {
	_, done := s.observe(ctx, "GetRecommendedContent")
	defer done(nil)
	return s.engine.RecommendedContent(userID, limit, excludeSeen)
}

// GetSimilarUsers returns users ranked by behavioral similarity
func (s *Service) GetSimilarUsers(ctx context.Context, userID string, limit int) []scoring.ScoredItem {
	_, done := s.observe(ctx, "GetSimilarUsers")
	defer done(nil)
	return s.engine.SimilarUsers(userID, limit)
}

// GetSimilarContent returns content similar to the given piece
func (s *Service) GetSimilarContent(ctx context.Context, contentID string, limit int) []scoring.ScoredItem {
	_, done := s.observe(ctx, "GetSimilarContent")
	defer done(nil)
	return s.engine.SimilarContent(contentID, limit)
}

// GetUserFeed returns the blended recommended/trending feed for the user
func (s *Service) GetUserFeed(ctx context.Context, userID string, limit int) []scoring.FeedItem {
	_, done := s.observe(ctx, "GetUserFeed")
	defer done(nil)
	return s.engine.UserFeed(userID, limit)
}

// GetTopicClusters returns topic hubs by degree centrality
func (s *Service) GetTopicClusters(ctx context.Context, limit int) []scoring.TopicCluster {
	_, done := s.observe(ctx, "GetTopicClusters")
	defer done(nil)
	return s.engine.TopicClusters(limit)
}

// GetBridgeNodes returns nodes by betweenness centrality
func (s *Service) GetBridgeNodes(ctx context.Context, limit int) []scoring.ScoredItem {
	_, done := s.observe(ctx, "GetBridgeNodes")
	defer done(nil)
	return s.engine.BridgeNodes(limit)
}

// RecordInteraction records one user interaction with content. The user is
// upserted by external key first, so unknown users are created on the fly;
// the content must already exist.
func (s *Service) RecordInteraction(ctx context.Context, userID, contentID, interactionType string, data map[string]any) (err error) {
	_, done := s.observe(ctx, "RecordInteraction")
	defer func() { done(err) }()

	userNodeID, err := s.store.UpsertNode(graph.KindUser, userID, nil)
	if err != nil {
		return err
	}

	switch interactionType {
	case InteractionView:
		err = s.store.RecordView(contentID, userNodeID, floatValue(data, "duration"))
	case InteractionLike:
		err = s.store.RecordLike(contentID, userNodeID)
	case InteractionShare:
		err = s.store.RecordShare(contentID, userNodeID, stringValue(data, "platform"))
	case InteractionComment:
		err = s.store.RecordComment(contentID, userNodeID, stringValue(data, "comment_id"))
	default:
		err = errors.NewValidation(fmt.Sprintf("unknown interaction type: %s", interactionType))
	}
	if err != nil {
		return err
	}

	s.metrics.Interactions.WithLabelValues(interactionType).Inc()
	s.logger.Debug("interaction recorded",
		zap.String("user_id", userID),
		zap.String("content_id", contentID),
		zap.String("type", interactionType))
	return nil
}

// UpdateUserInterests rebuilds the user's INTEREST_IN edges from their likes
// and views: hashtags on liked content score +2, on viewed content +0.5,
// normalized to [0,1] by dividing by 10.
func (s *Service) UpdateUserInterests(ctx context.Context, userID string) (err error) {
	_, done := s.observe(ctx, "UpdateUserInterests")
	defer func() { done(err) }()

	user, ok := s.store.NodeByKey(graph.KindUser, userID)
	if !ok {
		return errors.NewNotFound(fmt.Sprintf("user not found: %s", userID))
	}

	scores := make(map[string]float64)
	for _, edge := range s.store.EdgesFrom(user.ID(), graph.EdgeLikes) {
		for _, tag := range s.store.EdgesFrom(edge.TargetID(), graph.EdgeHasTag) {
			scores[tag.TargetID()] += 2
		}
	}
	for _, edge := range s.store.EdgesFrom(user.ID(), graph.EdgeViews) {
		for _, tag := range s.store.EdgesFrom(edge.TargetID(), graph.EdgeHasTag) {
			scores[tag.TargetID()] += 0.5
		}
	}

	removed := s.store.RemoveEdges(user.ID(), graph.EdgeInterestIn)
	for tagID, score := range scores {
		weight := score / 10
		if weight > 1 {
			weight = 1
		}
		if _, err := s.store.AddEdge(graph.EdgeInterestIn, user.ID(), tagID, weight, graph.EdgeProps{Score: weight}); err != nil {
			return err
		}
	}

	s.logger.Info("user interests updated",
		zap.String("user_id", userID),
		zap.Int("removed", removed),
		zap.Int("interests", len(scores)))
	return nil
}

// GenerateContent has one agent produce and publish a draft. An empty agentID
// picks a random agent.
func (s *Service) GenerateContent(ctx context.Context, agentID string) (draft *agents.ContentDraft, err error) {
	ctx, done := s.observe(ctx, "GenerateContent")
	defer func() { done(err) }()

	draft, err = s.generator.Generate(ctx, agentID)
	if err != nil {
		return nil, err
	}
	s.metrics.ContentGenerated.WithLabelValues(draft.AgentID).Inc()
	s.metrics.SetGraphSize(s.store.NodeCount(), s.store.EdgeCount())
	return draft, nil
}

// GenerateBatch has up to count distinct agents each publish a draft
func (s *Service) GenerateBatch(ctx context.Context, count int) (drafts []*agents.ContentDraft, err error) {
	ctx, done := s.observe(ctx, "GenerateBatch")
	defer func() { done(err) }()

	drafts, err = s.generator.GenerateBatch(ctx, count)
	if err != nil {
		return nil, err
	}
	for _, draft := range drafts {
		s.metrics.ContentGenerated.WithLabelValues(draft.AgentID).Inc()
	}
	s.metrics.SetGraphSize(s.store.NodeCount(), s.store.EdgeCount())
	return drafts, nil
}

// RunAdaptationCycle runs one adaptation pass over every agent
func (s *Service) RunAdaptationCycle(ctx context.Context) {
	_, done := s.observe(ctx, "RunAdaptationCycle")
	defer done(nil)

	s.generator.AdaptAll()
	s.metrics.AdaptationCycles.Inc()
}

// ReceiveFeedback routes engagement metrics for a piece of content back to
// its agent and into the graph
func (s *Service) ReceiveFeedback(ctx context.Context, contentID, agentID string, viewTime float64, likes int) {
	_, done := s.observe(ctx, "ReceiveFeedback")
	defer done(nil)

	s.generator.ProcessFeedback(contentID, agentID, viewTime, likes)
	s.metrics.FeedbackReceived.Inc()
}

// Session returns the viewing-session tracker for the user, creating both
// the tracker and the user node on first use. Trackers feed attention-derived
// view time back to the agents.
func (s *Service) Session(userID string) (*engagement.Tracker, error) {
	nodeID, err := s.store.UpsertNode(graph.KindUser, userID, nil)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tracker, ok := s.sessions[userID]
	if !ok {
		tracker = engagement.NewTracker(s.store, nodeID, s.generator, s.logger)
		s.sessions[userID] = tracker
	}
	return tracker, nil
}

// Cursor returns the user's feed cursor, creating it on first use
func (s *Service) Cursor(userID string) *feed.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursor, ok := s.cursors[userID]
	if !ok {
		cursor = feed.NewCursor(s.source, feed.DefaultWindowSize)
		s.cursors[userID] = cursor
	}
	return cursor
}

// Save writes the graph snapshot to disk
func (s *Service) Save(ctx context.Context) (err error) {
	_, done := s.observe(ctx, "Save")
	defer func() { done(err) }()
	return s.store.Save()
}

// Traverse walks the graph breadth-first from a start node
func (s *Service) Traverse(ctx context.Context, startID string, maxDepth, limit int) (result *graph.TraversalResult, err error) {
	_, done := s.observe(ctx, "Traverse")
	defer func() { done(err) }()
	return s.store.Traverse(startID, maxDepth, limit)
}

func floatValue(data map[string]any, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func stringValue(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
