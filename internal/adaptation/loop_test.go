package adaptation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weave-backend/internal/agents"
	"weave-backend/internal/domain/graph"
)

func newLoopFixture(t *testing.T) (*graph.Store, *agents.Generator) {
	t.Helper()
	store, err := graph.NewStore("", zap.NewNop())
	require.NoError(t, err)
	gen := agents.NewGenerator(store, zap.NewNop(), 1)
	require.NoError(t, gen.AddAgent(agents.NewTrendSpotter(nil, 1)))
	require.NoError(t, gen.AddAgent(agents.NewEntertainer(nil, 2)))
	return store, gen
}

func TestLoop_StopsOnCancel(t *testing.T) {
	store, gen := newLoopFixture(t)
	loop := NewLoop(store, gen, 10*time.Millisecond, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		loop.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}

func TestLoop_InteractCycleProducesActivity(t *testing.T) {
	store, gen := newLoopFixture(t)
	loop := NewLoop(store, gen, time.Hour, time.Hour, zap.NewNop())

	// Seed one piece by an outside creator so commenting always has a target.
	_, err := store.UpsertNode(graph.KindContent, "seed-post", map[string]any{
		"title":    "Seed",
		"agent_id": "someone-else",
	})
	require.NoError(t, err)

	before := store.NodeCount() + store.EdgeCount()
	loop.interactCycle(context.Background())

	// Each ready agent either posted (new nodes and edges) or commented
	// (a new comment edge); both leave a trace in the graph.
	assert.Greater(t, store.NodeCount()+store.EdgeCount(), before)
}

func TestLoop_AgentsNotReadyAreSkipped(t *testing.T) {
	store, gen := newLoopFixture(t)
	loop := NewLoop(store, gen, time.Hour, time.Hour, zap.NewNop())

	loop.interactCycle(context.Background())
	afterFirst := store.NodeCount() + store.EdgeCount()

	// Immediately re-running the cycle finds no agent past its interval.
	loop.interactCycle(context.Background())
	assert.Equal(t, afterFirst, store.NodeCount()+store.EdgeCount())
}

func TestLoop_AdaptCycleRunsAllAgents(t *testing.T) {
	store, gen := newLoopFixture(t)
	loop := NewLoop(store, gen, time.Hour, time.Hour, zap.NewNop())

	spotter := gen.Agents()[0].(*agents.TrendSpotter)
	draft, err := gen.Generate(context.Background(), spotter.ID())
	require.NoError(t, err)
	gen.ProcessFeedback(draft.ID, spotter.ID(), 15, 3)

	loop.adaptCycle(context.Background())

	assert.NotEmpty(t, spotter.TopicWeights())
	topic, ok := store.NodeByKey(graph.KindTopic, draft.Topic)
	require.True(t, ok)
	assert.Greater(t, topic.Topic().EngagementScore, 0.0)
}
