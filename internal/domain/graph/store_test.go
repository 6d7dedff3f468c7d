package graph

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "weave-backend/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("", zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestUpsertNode_Idempotent(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.UpsertNode(KindUser, "alice", nil)
	require.NoError(t, err)
	id2, err := s.UpsertNode(KindUser, "alice", map[string]any{"display_name": "Alice"})
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "same external key must resolve to the same node")

	n, err := s.GetNode(id1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", n.User().DisplayName, "second upsert must merge properties")
}

func TestUpsertNode_Validation(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name string
		kind NodeKind
		key  string
	}{
		{"unknown kind", NodeKind("ROBOT"), "r2d2"},
		{"empty key", KindUser, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.UpsertNode(tt.kind, tt.key, nil)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func TestUpsertNode_DistinctKindsShareKeys(t *testing.T) {
	s := newTestStore(t)

	userID, err := s.UpsertNode(KindUser, "golang", nil)
	require.NoError(t, err)
	tagID, err := s.UpsertNode(KindHashtag, "golang", nil)
	require.NoError(t, err)

	assert.NotEqual(t, userID, tagID, "the upsert index is scoped per kind")
}

func TestAddEdge_MissingEndpointRejectsWithoutWrite(t *testing.T) {
	s := newTestStore(t)

	userID, err := s.UpsertNode(KindUser, "alice", nil)
	require.NoError(t, err)

	before := s.EdgeCount()
	_, err = s.AddEdge(EdgeFollows, userID, "missing", 0, EdgeProps{})
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, before, s.EdgeCount(), "rejected edge must leave no partial write")

	_, err = s.AddEdge(EdgeFollows, "missing", userID, 0, EdgeProps{})
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, before, s.EdgeCount())
}

func TestAddEdge_DefaultWeight(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.UpsertNode(KindUser, "alice", nil)
	b, _ := s.UpsertNode(KindUser, "bob", nil)

	_, err := s.AddEdge(EdgeFollows, a, b, 0, EdgeProps{})
	require.NoError(t, err)

	edges := s.GetEdges(a, b, EdgeFollows)
	require.Len(t, edges, 1)
	assert.Equal(t, 1.0, edges[0].Weight())
}

func TestGetEdges_Filters(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.UpsertNode(KindUser, "alice", nil)
	b, _ := s.UpsertNode(KindUser, "bob", nil)
	c, _ := s.UpsertNode(KindContent, "post-1", map[string]any{"title": "Post"})

	_, err := s.AddEdge(EdgeFollows, a, b, 0, EdgeProps{})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeLikes, a, c, 0, EdgeProps{})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeViews, a, c, 0, EdgeProps{Duration: 12})
	require.NoError(t, err)

	assert.Len(t, s.GetEdges(a, "", ""), 3)
	assert.Len(t, s.GetEdges(a, c, ""), 2)
	assert.Len(t, s.GetEdges(a, "", EdgeLikes), 1)
	assert.Len(t, s.GetEdges(a, b, EdgeLikes), 0)
	assert.Len(t, s.EdgesTo(c, EdgeViews), 1)
}

func TestRemoveNode_CascadesEdges(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.UpsertNode(KindUser, "alice", nil)
	b, _ := s.UpsertNode(KindUser, "bob", nil)
	c, _ := s.UpsertNode(KindContent, "post-1", map[string]any{"title": "Post"})

	_, err := s.AddEdge(EdgeFollows, a, b, 0, EdgeProps{})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeLikes, b, c, 0, EdgeProps{})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeViews, a, c, 0, EdgeProps{})
	require.NoError(t, err)

	require.NoError(t, s.RemoveNode(b))

	_, err = s.GetNode(b)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Len(t, s.GetEdges(a, "", ""), 1, "only the alice->content edge should survive")
	assert.Len(t, s.EdgesTo(c, ""), 1)
	assert.Equal(t, 1, s.EdgeCount())

	// The key index entry must be gone: re-upserting creates a fresh node.
	b2, err := s.UpsertNode(KindUser, "bob", nil)
	require.NoError(t, err)
	assert.NotEqual(t, b, b2)
}

func TestRemoveEdges_ByType(t *testing.T) {
	s := newTestStore(t)

	u, _ := s.UpsertNode(KindUser, "alice", nil)
	t1, err := s.GetOrCreateTopic("Technology", nil)
	require.NoError(t, err)
	t2, err := s.GetOrCreateTopic("Science", nil)
	require.NoError(t, err)

	_, err = s.AddEdge(EdgeInterestIn, u, t1.ID(), 0.5, EdgeProps{})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeInterestIn, u, t2.ID(), 0.8, EdgeProps{})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeViews, u, t1.ID(), 0, EdgeProps{})
	require.NoError(t, err)

	removed := s.RemoveEdges(u, EdgeInterestIn)
	assert.Equal(t, 2, removed)
	assert.Len(t, s.GetEdges(u, "", EdgeInterestIn), 0)
	assert.Len(t, s.GetEdges(u, "", EdgeViews), 1)
}

func TestTraverse_BreadthFirstInDiscoveryOrder(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.UpsertNode(KindUser, "a", nil)
	b, _ := s.UpsertNode(KindUser, "b", nil)
	c, _ := s.UpsertNode(KindUser, "c", nil)
	d, _ := s.UpsertNode(KindUser, "d", nil)

	// a -> b, a -> c, b -> d
	_, err := s.AddEdge(EdgeFollows, a, b, 0, EdgeProps{})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeFollows, a, c, 0, EdgeProps{})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeFollows, b, d, 0, EdgeProps{})
	require.NoError(t, err)

	result, err := s.Traverse(a, 2, 10)
	require.NoError(t, err)

	ids := make([]string, len(result.Nodes))
	for i, n := range result.Nodes {
		ids[i] = n.ID()
	}
	assert.Equal(t, []string{a, b, c, d}, ids, "frontier must follow edge discovery order")
	assert.Len(t, result.Edges, 3)
}

func TestTraverse_RespectsDepthAndLimit(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.UpsertNode(KindUser, "a", nil)
	b, _ := s.UpsertNode(KindUser, "b", nil)
	c, _ := s.UpsertNode(KindUser, "c", nil)
	_, err := s.AddEdge(EdgeFollows, a, b, 0, EdgeProps{})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeFollows, b, c, 0, EdgeProps{})
	require.NoError(t, err)

	shallow, err := s.Traverse(a, 1, 10)
	require.NoError(t, err)
	assert.Len(t, shallow.Nodes, 2, "depth 1 must not expand past direct neighbors")

	capped, err := s.Traverse(a, 5, 1)
	require.NoError(t, err)
	assert.Len(t, capped.Nodes, 1)

	_, err = s.Traverse("missing", 1, 10)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestContentNode_UsesCallerSuppliedID(t *testing.T) {
	s := newTestStore(t)

	id, err := s.UpsertNode(KindContent, "post-42", map[string]any{
		"title":        "Hello",
		"content_type": "article",
		"tags":         []string{"go", "graphs"},
	})
	require.NoError(t, err)
	assert.Equal(t, "post-42", id)

	n, err := s.GetNode(id)
	require.NoError(t, err)
	assert.Equal(t, "Hello", n.Content().Title)
	assert.Equal(t, "article", n.Content().ContentType)
	assert.Equal(t, []string{"go", "graphs"}, n.Content().Tags)
}

func TestUpsertNode_MergesAgentAndContentNames(t *testing.T) {
	s := newTestStore(t)

	agentID, err := s.UpsertNode(KindAgent, "agent-1", map[string]any{"name": "Scout"})
	require.NoError(t, err)
	_, err = s.UpsertNode(KindAgent, "agent-1", map[string]any{"name": "Pathfinder"})
	require.NoError(t, err)
	agent, err := s.GetNode(agentID)
	require.NoError(t, err)
	assert.Equal(t, "Pathfinder", agent.Name(), "re-registering an agent must pick up the new name")

	contentID, err := s.UpsertNode(KindContent, "post-1", map[string]any{"title": "Draft"})
	require.NoError(t, err)
	_, err = s.UpsertNode(KindContent, "post-1", map[string]any{"name": "Final"})
	require.NoError(t, err)
	content, err := s.GetNode(contentID)
	require.NoError(t, err)
	assert.Equal(t, "Final", content.Name())
	assert.Equal(t, "Final", content.Content().Title)

	// For topics the name is the external key itself and never changes.
	topicID, err := s.UpsertNode(KindTopic, "Go", nil)
	require.NoError(t, err)
	_, err = s.UpsertNode(KindTopic, "Go", map[string]any{"name": "Golang"})
	require.NoError(t, err)
	topic, err := s.GetNode(topicID)
	require.NoError(t, err)
	assert.Equal(t, "Go", topic.Name())
}

func TestNodeReads_DetachedFromLaterWrites(t *testing.T) {
	s := newTestStore(t)

	userID, err := s.UpsertNode(KindUser, "alice", nil)
	require.NoError(t, err)
	contentID, err := s.UpsertNode(KindContent, "post-1", map[string]any{"title": "Post"})
	require.NoError(t, err)

	before, err := s.GetNode(contentID)
	require.NoError(t, err)
	require.NoError(t, s.RecordLike(contentID, userID))

	assert.Equal(t, 0, before.Content().LikeCount, "an earlier read must not observe later writes")

	after, err := s.GetNode(contentID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Content().LikeCount)
}

func TestNodeReads_ConcurrentWithWrites(t *testing.T) {
	s := newTestStore(t)

	userID, err := s.UpsertNode(KindUser, "alice", nil)
	require.NoError(t, err)
	contentID, err := s.UpsertNode(KindContent, "post-1", map[string]any{"title": "Post"})
	require.NoError(t, err)

	const likes = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < likes; i++ {
			if err := s.RecordLike(contentID, userID); err != nil {
				t.Error(err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < likes; i++ {
			for _, n := range s.NodesByKind(KindContent) {
				_ = n.Content().LikeCount
			}
		}
	}()
	wg.Wait()

	n, err := s.GetNode(contentID)
	require.NoError(t, err)
	assert.Equal(t, likes, n.Content().LikeCount)
}

func TestSetClock(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	id, err := s.UpsertNode(KindUser, "alice", nil)
	require.NoError(t, err)
	n, err := s.GetNode(id)
	require.NoError(t, err)
	assert.Equal(t, fixed, n.CreatedAt())
}
