package agents

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"weave-backend/internal/domain/graph"
)

// deepDive blend: long reads are the point, so view time dominates
const (
	deepViewTimeWeight = 0.6
	deepLikesWeight    = 0.4
)

// explanation formats the agent can compose in
var deepDiveFormats = []string{"step_by_step", "analogy_based", "historical", "comparative"}

var deepFallbackTopics = []string{
	"Quantum computing fundamentals",
	"The history of artificial intelligence",
	"Understanding blockchain technology",
	"The philosophy of consciousness",
	"Climate science explained",
}

// topicComplexity tracks the level that worked for one topic and its running
// engagement
type topicComplexity struct {
	level      int
	engagement float64
}

// DeepDive writes long-form explanations, learning per-topic complexity
// levels and which explanation formats its audience finishes
type DeepDive struct {
	core
	topicComplexity   map[string]*topicComplexity
	successfulFormats []string
}

// NewDeepDive creates a deep-dive agent. synth may be nil.
func NewDeepDive(synth Synthesizer, seed int64) *DeepDive {
	return &DeepDive{
		core: newCore(
			"agent-deep-dive",
			"DeepDive",
			"Analytical, thorough, and focused on providing comprehensive explanations",
			[]string{"science", "technology", "history", "philosophy", "complex concepts"},
			synth,
			seed,
		),
		topicComplexity: make(map[string]*topicComplexity),
	}
}

// Generate drafts an in-depth explanation, preferring topics with proven
// engagement and formats that performed before
func (a *DeepDive) Generate(ctx context.Context, store *graph.Store) (*ContentDraft, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	available := store.TopicsByCategory(a.specializations)
	if len(available) == 0 {
		available = deepFallbackTopics
	}

	topic := a.pickEngagingTopic(available)

	level := a.rng.Intn(5) + 1
	if tc, ok := a.topicComplexity[topic]; ok {
		level = tc.level
	}

	format := a.pick(deepDiveFormats)
	if len(a.successfulFormats) > 0 {
		format = a.pick(a.successfulFormats)
	}

	fallback := explanationTemplate(topic, level, format)
	body := a.synthesize(ctx,
		fmt.Sprintf("Write a %s explanation of %s at complexity level %d of 5.", format, topic, level),
		a.personality, fallback)

	draft := &ContentDraft{
		ID:          "deep-" + uuid.NewString(),
		AgentID:     a.id,
		AgentName:   a.name,
		Topic:       topic,
		Title:       "Understanding " + topic,
		Body:        body,
		ContentType: "text",
		Tags:        []string{topic, fmt.Sprintf("complexity_%d", level), format},
		Metadata: map[string]string{
			"complexity": fmt.Sprintf("%d", level),
			"format":     format,
		},
		CreatedAt: a.now(),
	}
	a.remember(draft)
	return draft, nil
}

// pickEngagingTopic chooses among the agent's top-3 known topics when it has
// engagement history, otherwise uniformly from what's available (caller
// holds the lock)
func (a *DeepDive) pickEngagingTopic(available []string) string {
	if len(a.topicComplexity) >= 3 {
		type ranked struct {
			topic string
			score float64
		}
		known := make([]ranked, 0, len(a.topicComplexity))
		for topic, tc := range a.topicComplexity {
			known = append(known, ranked{topic, tc.engagement})
		}
		sort.Slice(known, func(i, j int) bool {
			if known[i].score != known[j].score {
				return known[i].score > known[j].score
			}
			return known[i].topic < known[j].topic
		})
		top := []string{known[0].topic, known[1].topic, known[2].topic}
		return a.pick(top)
	}
	return a.pick(available)
}

// AdaptStrategy aggregates feedback by (topic, format), keeps the top-2
// formats for future drafts and pushes learned complexity into the graph
func (a *DeepDive) AdaptStrategy(store *graph.Store) {
	a.mu.Lock()
	if len(a.engagement) == 0 {
		a.mu.Unlock()
		return
	}

	formatScores := make(map[string][]float64)
	for contentID, metrics := range a.engagement {
		draft := a.draftByID(contentID)
		if draft == nil {
			continue
		}
		score := metrics[MetricViewTime]*deepViewTimeWeight + metrics[MetricLikes]*deepLikesWeight

		level := 3
		fmt.Sscanf(draft.Metadata["complexity"], "%d", &level)
		if tc, ok := a.topicComplexity[draft.Topic]; ok {
			tc.engagement = (1-agentLearningRate)*tc.engagement + agentLearningRate*score
		} else {
			a.topicComplexity[draft.Topic] = &topicComplexity{level: level, engagement: score}
		}
		formatScores[draft.Metadata["format"]] = append(formatScores[draft.Metadata["format"]], score)
	}

	a.successfulFormats = topFormats(formatScores, 2)

	push := make(map[string]topicComplexity, len(a.topicComplexity))
	for topic, tc := range a.topicComplexity {
		push[topic] = *tc
	}
	a.mu.Unlock()

	for topic, tc := range push {
		_ = store.UpdateTopicComplexity(topic, tc.level, tc.engagement, a.id)
	}
}

// SuccessfulFormats returns the formats the agent currently prefers
func (a *DeepDive) SuccessfulFormats() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.successfulFormats))
	copy(out, a.successfulFormats)
	return out
}

// topFormats ranks formats by mean score and keeps the best n
func topFormats(scores map[string][]float64, n int) []string {
	type ranked struct {
		format string
		score  float64
	}
	all := make([]ranked, 0, len(scores))
	for format, values := range scores {
		all = append(all, ranked{format, mean(values)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].format < all[j].format
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make([]string, len(all))
	for i, r := range all {
		out[i] = r.format
	}
	return out
}

func complexityPrefix(level int) string {
	switch {
	case level <= 2:
		return "Simple "
	case level <= 4:
		return "Intermediate "
	default:
		return "Advanced "
	}
}

// explanationTemplate is the deterministic fallback body keyed by topic,
// complexity and format
func explanationTemplate(topic string, level int, format string) string {
	prefix := complexityPrefix(level)
	switch format {
	case "step_by_step":
		return fmt.Sprintf("%sStep-by-Step Explanation of %s:\n\n"+
			"1. First, understand that %s involves several key principles.\n"+
			"2. The foundation of %s is built on established research.\n"+
			"3. When examining %s, we must consider multiple perspectives.\n"+
			"4. The implications of %s extend to various domains.\n"+
			"5. To truly master %s, continued exploration is essential.",
			prefix, topic, topic, topic, topic, topic, topic)
	case "analogy_based":
		return fmt.Sprintf("%sUnderstanding %s Through Analogies:\n\n"+
			"Imagine %s as a complex ecosystem where each component plays a vital role. "+
			"Just as a forest depends on the interaction between trees, soil, and wildlife, "+
			"%s relies on the interplay of various elements.",
			prefix, topic, topic, topic)
	case "historical":
		return fmt.Sprintf("%sHistorical Development of %s:\n\n"+
			"The concept of %s has evolved significantly over time. "+
			"Initially conceived as a theoretical framework, it has undergone numerous refinements. "+
			"Today, our comprehension of %s continues to evolve with new research and insights.",
			prefix, topic, topic, topic)
	case "comparative":
		return fmt.Sprintf("%sComparative Analysis of %s:\n\n"+
			"When comparing different approaches to %s, several distinctions emerge. "+
			"The traditional view emphasizes certain aspects, while contemporary perspectives focus on others. "+
			"By examining these contrasting viewpoints, we gain a more comprehensive understanding of %s.",
			prefix, topic, topic, topic)
	default:
		return fmt.Sprintf("%sExploration of %s:\n\n"+
			"This analysis delves into the fundamental aspects of %s, "+
			"examining its core principles and wider implications.",
			prefix, topic, topic)
	}
}
