// Package adaptation runs the background cycles that keep agents learning:
// a periodic adaptation pass over all agents and a faster autonomous
// interaction cycle in which agents post and comment on their own.
package adaptation

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"weave-backend/internal/agents"
	"weave-backend/internal/domain/graph"
)

const (
	// DefaultAdaptInterval is how often every agent re-derives its strategy
	DefaultAdaptInterval = time.Hour

	// DefaultInteractInterval is how often agents act autonomously
	DefaultInteractInterval = 120 * time.Second
)

// Loop drives the two background cycles. A cycle, once started, runs to
// completion; the stop signal is observed between cycles.
type Loop struct {
	store            *graph.Store
	generator        *agents.Generator
	adaptInterval    time.Duration
	interactInterval time.Duration
	lastInteraction  map[string]time.Time
	rng              *rand.Rand
	logger           *zap.Logger
	now              func() time.Time
	wg               sync.WaitGroup
}

// NewLoop creates the background loop driver. Zero intervals fall back to
// the defaults.
func NewLoop(store *graph.Store, generator *agents.Generator, adaptInterval, interactInterval time.Duration, logger *zap.Logger) *Loop {
	if adaptInterval <= 0 {
		adaptInterval = DefaultAdaptInterval
	}
	if interactInterval <= 0 {
		interactInterval = DefaultInteractInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		store:            store,
		generator:        generator,
		adaptInterval:    adaptInterval,
		interactInterval: interactInterval,
		lastInteraction:  make(map[string]time.Time),
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:           logger,
		now:              time.Now,
	}
}

// Start launches both cycles. They stop when ctx is cancelled; Wait blocks
// until they have fully drained.
func (l *Loop) Start(ctx context.Context) {
	l.wg.Add(2)
	go l.run(ctx, l.adaptInterval, "adaptation", l.adaptCycle)
	go l.run(ctx, l.interactInterval, "interaction", l.interactCycle)
}

// Wait blocks until both cycles have observed cancellation and returned
func (l *Loop) Wait() {
	l.wg.Wait()
}

func (l *Loop) run(ctx context.Context, interval time.Duration, name string, cycle func(context.Context)) {
	defer l.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info("background cycle started",
		zap.String("cycle", name),
		zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("background cycle stopped", zap.String("cycle", name))
			return
		case <-ticker.C:
			start := l.now()
			cycle(ctx)
			l.logger.Debug("background cycle completed",
				zap.String("cycle", name),
				zap.Duration("took", l.now().Sub(start)))
		}
	}
}

// adaptCycle runs one adaptation pass over every agent
func (l *Loop) adaptCycle(context.Context) {
	l.generator.AdaptAll()
}

// interactCycle lets every ready agent act once: post new content or
// comment on something recent. An agent is ready when it has not acted
// within the interaction interval.
func (l *Loop) interactCycle(ctx context.Context) {
	now := l.now()
	for _, agent := range l.generator.Agents() {
		last, acted := l.lastInteraction[agent.ID()]
		if acted && now.Sub(last) < l.interactInterval {
			continue
		}

		if l.rng.Float64() < 0.5 {
			l.post(ctx, agent)
		} else {
			l.comment(agent)
		}
		l.lastInteraction[agent.ID()] = now
	}
}

func (l *Loop) post(ctx context.Context, agent agents.Agent) {
	draft, err := l.generator.Generate(ctx, agent.ID())
	if err != nil {
		l.logger.Warn("autonomous post failed",
			zap.String("agent_id", agent.ID()), zap.Error(err))
		return
	}
	l.logger.Info("agent posted",
		zap.String("agent_id", agent.ID()),
		zap.String("content_id", draft.ID),
		zap.String("topic", draft.Topic))
}

// comment picks a recent piece by another agent and records a comment edge
// from the commenting agent's node
func (l *Loop) comment(agent agents.Agent) {
	candidates := l.recentContentByOthers(agent.ID(), 10)
	if len(candidates) == 0 {
		return
	}
	target := candidates[l.rng.Intn(len(candidates))]

	commentID := "agent-comment-" + agent.ID() + "-" + l.now().Format("20060102150405")
	if err := l.store.RecordComment(target, agent.ID(), commentID); err != nil {
		l.logger.Warn("autonomous comment failed",
			zap.String("agent_id", agent.ID()),
			zap.String("content_id", target),
			zap.Error(err))
		return
	}
	l.logger.Info("agent commented",
		zap.String("agent_id", agent.ID()),
		zap.String("content_id", target))
}

func (l *Loop) recentContentByOthers(agentID string, limit int) []string {
	nodes := l.store.NodesByKind(graph.KindContent)
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].CreatedAt().After(nodes[j].CreatedAt())
	})
	var out []string
	for _, n := range nodes {
		if len(out) >= limit {
			break
		}
		if n.Content().AgentID != agentID {
			out = append(out, n.ID())
		}
	}
	return out
}
