// Package agents implements the autonomous content agents: archetypes that
// draft content from the graph's topic signals, absorb engagement feedback
// and adapt their topic and format preferences over time.
package agents

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"weave-backend/internal/domain/graph"
)

const (
	// agentLearningRate is the EMA step for agent-local metrics, slower than
	// the graph-side engagement rates so agents don't chase noise
	agentLearningRate = 0.1

	// maxHistory bounds the per-agent content history
	maxHistory = 100
)

// Metric keys reported by the engagement layer
const (
	MetricViewTime = "view_time"
	MetricLikes    = "likes"
)

// Metrics is one feedback sample for a piece of content
type Metrics map[string]float64

// ContentDraft is a generated piece of content ready for publishing
type ContentDraft struct {
	ID          string            `json:"id"`
	AgentID     string            `json:"agent_id"`
	AgentName   string            `json:"agent_name"`
	Topic       string            `json:"topic"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	ContentType string            `json:"content_type"`
	Tags        []string          `json:"tags"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Agent is one autonomous content archetype
type Agent interface {
	ID() string
	Name() string
	Personality() string
	Specializations() []string

	// Generate drafts content from the current graph state.
	Generate(ctx context.Context, store *graph.Store) (*ContentDraft, error)

	// ReceiveFeedback folds one engagement sample into the agent's local
	// metrics for the given content.
	ReceiveFeedback(contentID string, metrics Metrics)

	// AdaptStrategy re-derives the agent's topic/format preferences from
	// accumulated feedback and pushes the learned signals into the graph.
	AdaptStrategy(store *graph.Store)

	// TopicOf resolves a generated content id to its topic, if this agent
	// produced it and still remembers it.
	TopicOf(contentID string) (string, bool)
}

// PerformanceSummary aggregates an agent's feedback history
type PerformanceSummary struct {
	AvgViewTime  float64 `json:"avg_view_time"`
	AvgLikes     float64 `json:"avg_likes"`
	TotalContent int     `json:"total_content"`
}

// core carries the state every archetype shares. Feedback arrives from
// request handlers while the adaptation loop reads, so all access is behind
// the mutex.
type core struct {
	mu              sync.Mutex
	id              string
	name            string
	personality     string
	specializations []string
	history         []*ContentDraft
	engagement      map[string]Metrics
	synth           Synthesizer
	rng             *rand.Rand
	now             func() time.Time
}

func newCore(id, name, personality string, specializations []string, synth Synthesizer, seed int64) core {
	return core{
		id:              id,
		name:            name,
		personality:     personality,
		specializations: specializations,
		engagement:      make(map[string]Metrics),
		synth:           synth,
		rng:             rand.New(rand.NewSource(seed)),
		now:             time.Now,
	}
}

func (c *core) ID() string          { return c.id }
func (c *core) Name() string        { return c.name }
func (c *core) Personality() string { return c.personality }

func (c *core) Specializations() []string {
	out := make([]string, len(c.specializations))
	copy(out, c.specializations)
	return out
}

// ReceiveFeedback applies the agent-local EMA to each reported metric. The
// first sample for a metric is taken as-is.
func (c *core) ReceiveFeedback(contentID string, metrics Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.engagement[contentID]
	if !ok {
		current = make(Metrics, len(metrics))
		c.engagement[contentID] = current
	}
	for key, value := range metrics {
		if prev, seen := current[key]; seen {
			current[key] = (1-agentLearningRate)*prev + agentLearningRate*value
		} else {
			current[key] = value
		}
	}
}

// TopicOf resolves a content id to the topic it was drafted about
func (c *core) TopicOf(contentID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, draft := range c.history {
		if draft.ID == contentID {
			return draft.Topic, true
		}
	}
	return "", false
}

// Performance summarizes all feedback the agent has received
func (c *core) Performance() PerformanceSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.engagement) == 0 {
		return PerformanceSummary{}
	}
	var viewTime, likes float64
	for _, m := range c.engagement {
		viewTime += m[MetricViewTime]
		likes += m[MetricLikes]
	}
	count := len(c.engagement)
	return PerformanceSummary{
		AvgViewTime:  viewTime / float64(count),
		AvgLikes:     likes / float64(count),
		TotalContent: count,
	}
}

// remember appends a draft to the bounded history (caller holds the lock)
func (c *core) remember(draft *ContentDraft) {
	c.history = append(c.history, draft)
	if len(c.history) > maxHistory {
		c.history = c.history[len(c.history)-maxHistory:]
	}
}

// weightedTopic draws a topic from the learned weight distribution,
// restricted to the currently available candidates. Unweighted candidates
// get a small floor so new topics still surface. Falls back to a uniform
// draw when no weights exist or nothing overlaps. Caller holds the lock.
func (c *core) weightedTopic(weights map[string]float64, available []string) string {
	if len(available) == 0 {
		return ""
	}
	if len(weights) == 0 {
		return available[c.rng.Intn(len(available))]
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return available[c.rng.Intn(len(available))]
	}

	candidates := make([]float64, len(available))
	sum := 0.0
	for i, topic := range available {
		w := weights[topic] / total
		if w <= 0 {
			w = 0.1
		}
		candidates[i] = w
		sum += w
	}

	draw := c.rng.Float64() * sum
	for i, w := range candidates {
		draw -= w
		if draw < 0 {
			return available[i]
		}
	}
	return available[len(available)-1]
}

// pick returns a uniform random element (caller holds the lock)
func (c *core) pick(options []string) string {
	return options[c.rng.Intn(len(options))]
}

// sampleSpecializations returns up to n random specializations for tagging
// (caller holds the lock)
func (c *core) sampleSpecializations(n int) []string {
	if n > len(c.specializations) {
		n = len(c.specializations)
	}
	perm := c.rng.Perm(len(c.specializations))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, c.specializations[idx])
	}
	return out
}

// feedbackByTopic groups accumulated engagement scores by the topic of the
// originating draft, using the given view-time/likes blend. Caller holds the
// lock. Drafts with no feedback yet are skipped.
func (c *core) feedbackByTopic(viewTimeWeight, likesWeight float64) map[string][]float64 {
	byTopic := make(map[string][]float64)
	for contentID, metrics := range c.engagement {
		draft := c.draftByID(contentID)
		if draft == nil {
			continue
		}
		score := metrics[MetricViewTime]*viewTimeWeight + metrics[MetricLikes]*likesWeight
		byTopic[draft.Topic] = append(byTopic[draft.Topic], score)
	}
	return byTopic
}

func (c *core) draftByID(contentID string) *ContentDraft {
	for _, draft := range c.history {
		if draft.ID == contentID {
			return draft
		}
	}
	return nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// synthesize asks the synthesis port for body text, falling back to the
// deterministic template when the port is absent or failing
func (c *core) synthesize(ctx context.Context, prompt, contextHint, fallback string) string {
	if c.synth == nil {
		return fallback
	}
	text, err := c.synth.SynthesizeText(ctx, prompt, contextHint)
	if err != nil || text == "" {
		return fallback
	}
	return text
}
