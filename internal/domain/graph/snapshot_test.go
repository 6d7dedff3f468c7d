package graph

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")

	s, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	aliceID, err := s.UpsertNode(KindUser, "alice", map[string]any{"display_name": "Alice"})
	require.NoError(t, err)
	agentID, err := s.UpsertNode(KindAgent, "agent-1", map[string]any{
		"name":            "Spotter",
		"personality":     "trend_spotter",
		"specializations": []string{"Technology"},
	})
	require.NoError(t, err)
	require.NoError(t, s.UpdateTopicWeight("AI", 0.8, agentID))
	require.NoError(t, s.RecordContentEngagement("post-1", agentID, "AI", 10, 2))
	_, err = s.AddEdge(EdgeLikes, aliceID, "post-1", 0, EdgeProps{})
	require.NoError(t, err)

	require.NoError(t, s.Save())

	reloaded, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, s.NodeCount(), reloaded.NodeCount())
	assert.Equal(t, s.EdgeCount(), reloaded.EdgeCount())

	// Scores survive the round trip.
	orig := topicProps(t, s, "AI")
	back := topicProps(t, reloaded, "AI")
	assert.InDelta(t, orig.EngagementScore, back.EngagementScore, 1e-9)
	assert.InDelta(t, orig.TrendingScore, back.TrendingScore, 1e-9)

	// The external-key index is rebuilt: upserts stay idempotent after load.
	again, err := reloaded.UpsertNode(KindUser, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, aliceID, again)
	assert.Equal(t, "Alice", mustNode(t, reloaded, again).User().DisplayName)

	// Adjacency is rebuilt too.
	assert.Len(t, reloaded.EdgesTo("post-1", EdgeLikes), 1)
	agent := mustNode(t, reloaded, agentID)
	assert.Equal(t, 1, agent.Agent().ContentCount)
}

func mustNode(t *testing.T, s *Store, id string) *Node {
	t.Helper()
	n, err := s.GetNode(id)
	require.NoError(t, err)
	return n
}

func TestSnapshot_SaveConcurrentWithWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	s, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)

	agentID, err := s.UpsertNode(KindAgent, "agent-1", map[string]any{"name": "Spotter"})
	require.NoError(t, err)

	// Engagement writes mutate topic and agent score maps; saving in parallel
	// must serialize against them.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if err := s.RecordContentEngagement("post-1", agentID, "AI", 5, 1); err != nil {
				t.Error(err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			if err := s.Save(); err != nil {
				t.Error(err)
			}
		}
	}()
	wg.Wait()

	require.NoError(t, s.Save())
	reloaded, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, s.NodeCount(), reloaded.NodeCount())
	assert.Equal(t, 100, mustNode(t, reloaded, "post-1").Content().LikeCount)
}

func TestSnapshot_MissingFileSeedsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	s, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, s.NodesByKind(KindTopic), 10)
}

func TestSnapshot_CorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path, zap.NewNop())
	assert.Error(t, err)
}

func TestSnapshot_SkipsDanglingEdges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	payload := `{
	  "nodes": [
	    {"id": "u1", "kind": "USER", "name": "alice", "properties": {"user": {"username": "alice"}}}
	  ],
	  "edges": [
	    {"id": "e1", "sourceId": "u1", "targetId": "gone", "type": "FOLLOWS", "weight": 1}
	  ]
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	s, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, s.NodeCount())
	assert.Equal(t, 0, s.EdgeCount(), "edges to missing endpoints are dropped on load")
}
