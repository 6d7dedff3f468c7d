package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weave-backend/internal/domain/graph"
	pkgerrors "weave-backend/pkg/errors"
)

func newPool(t *testing.T) (*graph.Store, *Generator) {
	t.Helper()
	store := newAgentStore(t)
	gen := NewGenerator(store, zap.NewNop(), 99)
	require.NoError(t, gen.AddAgent(NewTrendSpotter(nil, 1)))
	require.NoError(t, gen.AddAgent(NewDeepDive(nil, 2)))
	require.NoError(t, gen.AddAgent(NewEntertainer(nil, 3)))
	return store, gen
}

func TestGenerator_AddAgentRegistersGraphNode(t *testing.T) {
	store, gen := newPool(t)

	agents := store.NodesByKind(graph.KindAgent)
	assert.Len(t, agents, 3)

	node, err := store.GetNode(gen.Agents()[0].ID())
	require.NoError(t, err)
	assert.Equal(t, "TrendSpotter", node.Name())
	assert.NotEmpty(t, node.Agent().Specializations)

	err = gen.AddAgent(NewTrendSpotter(nil, 4))
	assert.True(t, pkgerrors.IsValidation(err), "duplicate agent ids are rejected")
}

func TestGenerator_GeneratePublishesIntoGraph(t *testing.T) {
	store, gen := newPool(t)

	draft, err := gen.Generate(context.Background(), "agent-deep-dive")
	require.NoError(t, err)
	assert.Equal(t, "agent-deep-dive", draft.AgentID)

	node, err := store.GetNode(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, graph.KindContent, node.Kind())
	assert.Equal(t, draft.Title, node.Content().Title)

	assert.Len(t, store.GetEdges(draft.ID, draft.AgentID, graph.EdgeCreatedBy), 1)
	assert.NotEmpty(t, store.GetEdges(draft.ID, "", graph.EdgeHasTag))
}

func TestGenerator_GenerateSelection(t *testing.T) {
	_, gen := newPool(t)

	_, err := gen.Generate(context.Background(), "no-such-agent")
	assert.True(t, pkgerrors.IsNotFound(err))

	draft, err := gen.Generate(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, draft.AgentID, "empty id picks a random agent")

	empty := NewGenerator(newAgentStore(t), zap.NewNop(), 1)
	_, err = empty.Generate(context.Background(), "")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGenerator_GenerateBatchClampsToPoolSize(t *testing.T) {
	store, gen := newPool(t)

	drafts, err := gen.GenerateBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, drafts, 3, "batch size is capped at one draft per agent")

	seen := make(map[string]bool)
	for _, d := range drafts {
		assert.False(t, seen[d.AgentID], "agents are sampled without replacement")
		seen[d.AgentID] = true

		_, err := store.GetNode(d.ID)
		assert.NoError(t, err)
	}
}

func TestGenerator_ProcessFeedbackRoutesToCreator(t *testing.T) {
	store, gen := newPool(t)

	spotter := gen.Agents()[0].(*TrendSpotter)
	draft, err := gen.Generate(context.Background(), spotter.ID())
	require.NoError(t, err)

	gen.ProcessFeedback(draft.ID, spotter.ID(), 12, 3)

	perf := spotter.Performance()
	assert.Equal(t, 1, perf.TotalContent)
	assert.InDelta(t, 12.0, perf.AvgViewTime, 1e-9)

	// The graph saw the engagement too.
	node, err := store.GetNode(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, node.Content().LikeCount)

	// Feedback for an unknown agent is silently dropped.
	gen.ProcessFeedback(draft.ID, "ghost", 1, 1)
}

func TestGenerator_AdaptAll(t *testing.T) {
	store, gen := newPool(t)

	spotter := gen.Agents()[0].(*TrendSpotter)
	draft, err := gen.Generate(context.Background(), spotter.ID())
	require.NoError(t, err)
	gen.ProcessFeedback(draft.ID, spotter.ID(), 20, 5)

	gen.AdaptAll()

	weights := spotter.TopicWeights()
	assert.NotEmpty(t, weights)

	topic, ok := store.NodeByKey(graph.KindTopic, draft.Topic)
	require.True(t, ok)
	assert.Greater(t, topic.Topic().EngagementScore, 0.0)
}
