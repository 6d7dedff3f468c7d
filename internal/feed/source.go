package feed

import (
	"sort"

	"weave-backend/internal/domain/graph"
	"weave-backend/internal/scoring"
)

// GraphSource feeds cursors from the graph: ranked content when engagement
// signals exist, newest-first otherwise
type GraphSource struct {
	store  *graph.Store
	engine *scoring.Engine
}

// NewGraphSource creates a source over the given store and scoring engine
func NewGraphSource(store *graph.Store, engine *scoring.Engine) *GraphSource {
	return &GraphSource{store: store, engine: engine}
}

// Latest returns the trending window, falling back to newest content when
// nothing has engaged yet
func (s *GraphSource) Latest(limit int) []scoring.FeedItem {
	trending := s.engine.TrendingContent(limit, scoring.DefaultTrendingWindow)
	if len(trending) > 0 {
		items := make([]scoring.FeedItem, len(trending))
		for i, item := range trending {
			items[i] = scoring.FeedItem{ScoredItem: item, Source: "trending"}
		}
		return items
	}

	nodes := s.store.NodesByKind(graph.KindContent)
	sort.SliceStable(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt().Equal(nodes[j].CreatedAt()) {
			return nodes[i].CreatedAt().After(nodes[j].CreatedAt())
		}
		return nodes[i].ID() < nodes[j].ID()
	})
	if limit > 0 && len(nodes) > limit {
		nodes = nodes[:limit]
	}
	items := make([]scoring.FeedItem, len(nodes))
	for i, n := range nodes {
		items[i] = scoring.FeedItem{
			ScoredItem: scoring.ScoredItem{ID: n.ID(), Name: n.Name()},
			Source:     "latest",
		}
	}
	return items
}

// ByAgent returns the agent's content, newest first
func (s *GraphSource) ByAgent(agentID string, limit int) []scoring.FeedItem {
	var ids []string
	for _, edge := range s.store.EdgesTo(agentID, graph.EdgeCreatedBy) {
		ids = append(ids, edge.SourceID())
	}
	return s.itemsNewestFirst(ids, limit, "agent")
}

// ByTopic returns content tagged with the named topic or hashtag, newest
// first. Unknown topics yield an empty window.
func (s *GraphSource) ByTopic(topic string, limit int) []scoring.FeedItem {
	node, ok := s.store.NodeByKey(graph.KindTopic, topic)
	if !ok {
		node, ok = s.store.NodeByKey(graph.KindHashtag, topic)
	}
	if !ok {
		return nil
	}

	var ids []string
	for _, edge := range s.store.EdgesTo(node.ID(), graph.EdgeHasTag) {
		ids = append(ids, edge.SourceID())
	}
	return s.itemsNewestFirst(ids, limit, "topic")
}

func (s *GraphSource) itemsNewestFirst(ids []string, limit int, source string) []scoring.FeedItem {
	var nodes []*graph.Node
	for _, id := range ids {
		if n, err := s.store.GetNode(id); err == nil && n.Kind() == graph.KindContent {
			nodes = append(nodes, n)
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt().Equal(nodes[j].CreatedAt()) {
			return nodes[i].CreatedAt().After(nodes[j].CreatedAt())
		}
		return nodes[i].ID() < nodes[j].ID()
	})
	if limit > 0 && len(nodes) > limit {
		nodes = nodes[:limit]
	}

	items := make([]scoring.FeedItem, len(nodes))
	for i, n := range nodes {
		items[i] = scoring.FeedItem{
			ScoredItem: scoring.ScoredItem{ID: n.ID(), Name: n.Name()},
			Source:     source,
		}
	}
	return items
}
