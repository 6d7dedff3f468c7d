package agents

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"weave-backend/internal/domain/graph"
)

// trendSpotter blend: viewers who stick around matter more than likes for
// fast-moving topical content
const (
	trendViewTimeWeight = 0.7
	trendLikesWeight    = 0.3
)

var trendFallbackTopics = []string{
	"AI advancements",
	"Climate change initiatives",
	"Space exploration news",
	"Tech industry updates",
	"Social media trends",
}

// TrendSpotter chases whatever the graph says is trending and learns which
// topics its audience actually rewards
type TrendSpotter struct {
	core
	topicWeights map[string]float64
}

// NewTrendSpotter creates a trend-spotting agent. synth may be nil.
func NewTrendSpotter(synth Synthesizer, seed int64) *TrendSpotter {
	return &TrendSpotter{
		core: newCore(
			"agent-trend-spotter",
			"TrendSpotter",
			"Curious, up-to-date, and always on the lookout for what's new and exciting",
			[]string{"trends", "current events", "viral content", "popular culture"},
			synth,
			seed,
		),
		topicWeights: make(map[string]float64),
	}
}

// Generate drafts a post about a currently trending topic, preferring topics
// the agent's past content performed well on
func (a *TrendSpotter) Generate(ctx context.Context, store *graph.Store) (*ContentDraft, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	available := store.TrendingTopics(5)
	if len(available) == 0 {
		available = trendFallbackTopics
	}
	topic := a.weightedTopic(a.topicWeights, available)

	templates := []string{
		fmt.Sprintf("Have you heard about the latest developments in %s? Everyone's talking about it!", topic),
		fmt.Sprintf("Breaking: New trends in %s are changing how we think about this space.", topic),
		fmt.Sprintf("Why %s is gaining traction and what you need to know about it.", topic),
		fmt.Sprintf("The 3 most important things happening right now in %s.", topic),
		fmt.Sprintf("%s is evolving rapidly - here's what's trending today.", topic),
	}
	fallback := a.pick(templates)
	body := a.synthesize(ctx,
		fmt.Sprintf("Write a short, punchy social post about what's new in %s.", topic),
		a.personality, fallback)

	draft := &ContentDraft{
		ID:          "trend-" + uuid.NewString(),
		AgentID:     a.id,
		AgentName:   a.name,
		Topic:       topic,
		Title:       "Latest on " + topic,
		Body:        body,
		ContentType: "text",
		Tags:        append([]string{topic}, a.sampleSpecializations(2)...),
		CreatedAt:   a.now(),
	}
	a.remember(draft)
	return draft, nil
}

// AdaptStrategy re-derives topic weights from feedback and pushes them into
// the graph as the agent's specialization signal
func (a *TrendSpotter) AdaptStrategy(store *graph.Store) {
	a.mu.Lock()
	if len(a.engagement) == 0 {
		a.mu.Unlock()
		return
	}
	for topic, scores := range a.feedbackByTopic(trendViewTimeWeight, trendLikesWeight) {
		a.topicWeights[topic] = mean(scores)
	}
	weights := make(map[string]float64, len(a.topicWeights))
	for topic, w := range a.topicWeights {
		weights[topic] = w
	}
	a.mu.Unlock()

	// Graph writes happen outside the agent lock; the store serializes them.
	for topic, weight := range weights {
		_ = store.UpdateTopicWeight(topic, weight, a.id)
	}
}

// TopicWeights returns a copy of the learned per-topic weights
func (a *TrendSpotter) TopicWeights() map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]float64, len(a.topicWeights))
	for k, v := range a.topicWeights {
		out[k] = v
	}
	return out
}
