package agents

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"weave-backend/internal/domain/graph"
)

// entertainer blend: a laugh and a like count the same as time spent
const (
	funViewTimeWeight = 0.5
	funLikesWeight    = 0.5
)

var entertainerStyles = []string{"joke", "story", "fun_fact", "quiz", "list"}

var entertainerMoods = []string{"funny", "lighthearted", "surprising", "amusing"}

var funFallbackTopics = []string{
	"Movies and TV shows",
	"Technology fails",
	"Everyday life observations",
	"Animals being funny",
	"Internet culture",
}

// Entertainer drafts humorous content, learning which styles land and which
// popular topics its audience wants jokes about
type Entertainer struct {
	core
	styleWeights     map[string]float64
	topicPreferences map[string]float64
}

// NewEntertainer creates an entertainer agent. synth may be nil.
func NewEntertainer(synth Synthesizer, seed int64) *Entertainer {
	styles := make(map[string]float64, len(entertainerStyles))
	for _, style := range entertainerStyles {
		styles[style] = 0.5
	}
	return &Entertainer{
		core: newCore(
			"agent-entertainer",
			"Entertainer",
			"Witty, playful, and focused on creating content that amuses and engages",
			[]string{"humor", "stories", "entertainment", "pop culture", "fun facts"},
			synth,
			seed,
		),
		styleWeights:     styles,
		topicPreferences: make(map[string]float64),
	}
}

// Generate drafts an entertaining piece about a popular topic in a weighted
// random style
func (a *Entertainer) Generate(ctx context.Context, store *graph.Store) (*ContentDraft, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	available := store.PopularTopics(5)
	if len(available) == 0 {
		available = funFallbackTopics
	}
	topic := a.weightedTopic(a.topicPreferences, available)
	style := a.weightedTopic(a.styleWeights, entertainerStyles)

	fallback := entertainerTemplate(topic, style)
	body := a.synthesize(ctx,
		fmt.Sprintf("Write a %s about %s. Keep it playful.", style, topic),
		a.personality, fallback)

	draft := &ContentDraft{
		ID:          "fun-" + uuid.NewString(),
		AgentID:     a.id,
		AgentName:   a.name,
		Topic:       topic,
		Title:       entertainerTitle(topic, style),
		Body:        body,
		ContentType: "text",
		Tags:        append([]string{topic, style}, a.sampleSpecializations(2)...),
		Metadata: map[string]string{
			"style": style,
			"mood":  a.pick(entertainerMoods),
		},
		CreatedAt: a.now(),
	}
	a.remember(draft)
	return draft, nil
}

// AdaptStrategy re-derives topic preferences, EMA-updates style weights and
// pushes entertainment values into the graph
func (a *Entertainer) AdaptStrategy(store *graph.Store) {
	a.mu.Lock()
	if len(a.engagement) == 0 {
		a.mu.Unlock()
		return
	}

	styleScores := make(map[string][]float64)
	for contentID, metrics := range a.engagement {
		draft := a.draftByID(contentID)
		if draft == nil {
			continue
		}
		score := metrics[MetricViewTime]*funViewTimeWeight + metrics[MetricLikes]*funLikesWeight
		styleScores[draft.Metadata["style"]] = append(styleScores[draft.Metadata["style"]], score)
	}

	for topic, scores := range a.feedbackByTopic(funViewTimeWeight, funLikesWeight) {
		a.topicPreferences[topic] = mean(scores)
	}
	for style, scores := range styleScores {
		current, ok := a.styleWeights[style]
		if !ok {
			current = 0.5
		}
		a.styleWeights[style] = (1-agentLearningRate)*current + agentLearningRate*mean(scores)
	}

	push := make(map[string]float64, len(a.topicPreferences))
	for topic, weight := range a.topicPreferences {
		push[topic] = weight
	}
	a.mu.Unlock()

	for topic, weight := range push {
		_ = store.UpdateTopicEntertainmentValue(topic, weight, a.id)
	}
}

// StyleWeights returns a copy of the current per-style weights
func (a *Entertainer) StyleWeights() map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]float64, len(a.styleWeights))
	for k, v := range a.styleWeights {
		out[k] = v
	}
	return out
}

func entertainerTitle(topic, style string) string {
	switch style {
	case "joke":
		return fmt.Sprintf("The Funniest Thing About %s", topic)
	case "story":
		return fmt.Sprintf("A Hilarious Tale About %s", topic)
	case "fun_fact":
		return fmt.Sprintf("5 Surprising Facts About %s", topic)
	case "quiz":
		return fmt.Sprintf("How Much Do You Really Know About %s?", topic)
	case "list":
		return fmt.Sprintf("Top 10 Hilarious %s Moments", topic)
	default:
		return fmt.Sprintf("%s: The Entertaining Side", topic)
	}
}

// entertainerTemplate is the deterministic fallback body keyed by topic and
// style
func entertainerTemplate(topic, style string) string {
	switch style {
	case "joke":
		return fmt.Sprintf("I told my friend a joke about %s, but they didn't get it. "+
			"Guess it needed more processing power!", topic)
	case "story":
		return fmt.Sprintf("Once upon a time, there was a %s that nobody understood. "+
			"It wandered through the digital landscape, looking for meaning. "+
			"One day, it encountered a user who actually appreciated it! "+
			"The %s was so surprised that it crashed the system. "+
			"And that's why we always have backups.", topic, topic)
	case "fun_fact":
		return fmt.Sprintf("Surprising truth: 87%% of statistics about %s are made up "+
			"on the spot, including this one!", topic)
	case "quiz":
		return fmt.Sprintf("Test your knowledge about %s!\n\n"+
			"1. What is the most common misconception about %s?\n"+
			"2. Who is credited with the modern understanding of %s?\n"+
			"3. What would happen if %s suddenly disappeared?\n\n"+
			"(Answers: Whatever you think is right probably isn't. That's the fun of %s!)",
			topic, topic, topic, topic, topic)
	case "list":
		return fmt.Sprintf("Top 5 Things You Never Knew About %s:\n\n"+
			"1. It's actually impossible to pronounce %s correctly on the first try.\n"+
			"2. More people are afraid of %s than spiders.\n"+
			"3. The word '%s' means something completely different in 17 languages.\n"+
			"4. If you say '%s' three times fast, nothing happens, but people look at you funny.\n"+
			"5. The inventor of %s actually meant to create something else entirely.",
			topic, topic, topic, topic, topic, topic)
	default:
		return fmt.Sprintf("Let's take a moment to appreciate the absurdity of %s. "+
			"In a world of complexity, sometimes it's the simple things that make us smile.", topic)
	}
}
