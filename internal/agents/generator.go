package agents

import (
	"context"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"weave-backend/internal/domain/graph"
	pkgerrors "weave-backend/pkg/errors"
)

// Generator owns the agent pool: it registers agents in the graph, routes
// generation requests, fans feedback out to the creating agent and runs the
// adaptation cycle over all agents.
type Generator struct {
	mu     sync.Mutex
	store  *graph.Store
	agents []Agent
	byID   map[string]Agent
	rng    *rand.Rand
	logger *zap.Logger
}

// NewGenerator creates an empty agent pool over the given store
func NewGenerator(store *graph.Store, logger *zap.Logger, seed int64) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		store:  store,
		byID:   make(map[string]Agent),
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
	}
}

// AddAgent registers an agent and mirrors it as an AGENT node in the graph
func (g *Generator) AddAgent(agent Agent) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.byID[agent.ID()]; exists {
		return pkgerrors.NewValidation("agent already registered: " + agent.ID())
	}

	_, err := g.store.UpsertNode(graph.KindAgent, agent.ID(), map[string]any{
		"name":            agent.Name(),
		"personality":     agent.Personality(),
		"specializations": agent.Specializations(),
	})
	if err != nil {
		return err
	}

	g.agents = append(g.agents, agent)
	g.byID[agent.ID()] = agent
	g.logger.Info("registered content agent",
		zap.String("agent_id", agent.ID()),
		zap.String("agent_name", agent.Name()))
	return nil
}

// Agents returns the registered agents in registration order
func (g *Generator) Agents() []Agent {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Agent, len(g.agents))
	copy(out, g.agents)
	return out
}

// Generate produces one draft, from the named agent or a random one when
// agentID is empty, and publishes it into the graph
func (g *Generator) Generate(ctx context.Context, agentID string) (*ContentDraft, error) {
	agent, err := g.selectAgent(agentID)
	if err != nil {
		return nil, err
	}

	draft, err := agent.Generate(ctx, g.store)
	if err != nil {
		return nil, err
	}
	if err := g.publish(draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// GenerateBatch produces drafts from up to count distinct agents
func (g *Generator) GenerateBatch(ctx context.Context, count int) ([]*ContentDraft, error) {
	g.mu.Lock()
	if len(g.agents) == 0 {
		g.mu.Unlock()
		return nil, pkgerrors.NewValidation("no agents available for content generation")
	}
	if count > len(g.agents) {
		count = len(g.agents)
	}
	selected := make([]Agent, 0, count)
	for _, idx := range g.rng.Perm(len(g.agents))[:count] {
		selected = append(selected, g.agents[idx])
	}
	g.mu.Unlock()

	drafts := make([]*ContentDraft, 0, count)
	for _, agent := range selected {
		draft, err := agent.Generate(ctx, g.store)
		if err != nil {
			g.logger.Warn("agent failed to generate",
				zap.String("agent_id", agent.ID()), zap.Error(err))
			continue
		}
		if err := g.publish(draft); err != nil {
			g.logger.Warn("failed to publish draft",
				zap.String("content_id", draft.ID), zap.Error(err))
			continue
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

func (g *Generator) selectAgent(agentID string) (Agent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.agents) == 0 {
		return nil, pkgerrors.NewValidation("no agents available for content generation")
	}
	if agentID == "" {
		return g.agents[g.rng.Intn(len(g.agents))], nil
	}
	agent, ok := g.byID[agentID]
	if !ok {
		return nil, pkgerrors.NewNotFound("agent " + agentID)
	}
	return agent, nil
}

// publish mirrors a draft into the graph: the content node, its creator
// edge, the topic tag and the hashtag links
func (g *Generator) publish(draft *ContentDraft) error {
	_, err := g.store.UpsertNode(graph.KindContent, draft.ID, map[string]any{
		"title":        draft.Title,
		"content_type": draft.ContentType,
		"agent_id":     draft.AgentID,
		"agent_name":   draft.AgentName,
		"tags":         draft.Tags,
	})
	if err != nil {
		return err
	}
	if _, err := g.store.AddEdge(graph.EdgeCreatedBy, draft.ID, draft.AgentID, 0, graph.EdgeProps{}); err != nil {
		return err
	}

	topic, err := g.store.GetOrCreateTopic(draft.Topic, nil)
	if err != nil {
		return err
	}
	if _, err := g.store.AddEdge(graph.EdgeHasTag, draft.ID, topic.ID(), 0, graph.EdgeProps{}); err != nil {
		return err
	}
	for _, tag := range draft.Tags {
		if tag == draft.Topic {
			continue
		}
		tagNode, err := g.store.GetOrCreateHashtag(tag)
		if err != nil {
			continue
		}
		if _, err := g.store.AddEdge(graph.EdgeHasTag, draft.ID, tagNode.ID(), 0, graph.EdgeProps{}); err != nil {
			return err
		}
	}
	return nil
}

// ProcessFeedback routes one engagement sample to the agent that created
// the content and records it in the graph. Unknown agents are ignored;
// feedback is best-effort by design.
func (g *Generator) ProcessFeedback(contentID, agentID string, viewTime float64, likes int) {
	g.mu.Lock()
	agent, ok := g.byID[agentID]
	g.mu.Unlock()
	if !ok {
		return
	}

	agent.ReceiveFeedback(contentID, Metrics{
		MetricViewTime: viewTime,
		MetricLikes:    float64(likes),
	})

	topic, known := agent.TopicOf(contentID)
	if !known {
		return
	}
	if err := g.store.RecordContentEngagement(contentID, agentID, topic, viewTime, likes); err != nil {
		g.logger.Warn("failed to record content engagement",
			zap.String("content_id", contentID), zap.Error(err))
	}
}

// AdaptAll runs one adaptation pass over every agent and snapshots the
// graph afterwards. A failed save is logged, not fatal: the learned state
// survives in memory.
func (g *Generator) AdaptAll() {
	for _, agent := range g.Agents() {
		agent.AdaptStrategy(g.store)
	}
	if err := g.store.Save(); err != nil {
		g.logger.Warn("failed to save graph after adaptation", zap.Error(err))
	}
}
