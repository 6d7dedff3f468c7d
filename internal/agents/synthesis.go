package agents

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	pkgerrors "weave-backend/pkg/errors"
)

// Synthesizer is the abstract content-synthesis port. Implementations wrap
// an external text/image generator; the core never depends on a specific
// vendor and every caller must tolerate the port being absent or failing.
type Synthesizer interface {
	SynthesizeText(ctx context.Context, prompt, contextHint string) (string, error)
	SynthesizeImage(ctx context.Context, prompt string) (string, error)
}

// BreakerSynthesizer wraps a Synthesizer with a circuit breaker so a flapping
// vendor degrades agents to template output instead of stalling generation
type BreakerSynthesizer struct {
	inner   Synthesizer
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerSynthesizer wraps inner with a breaker that opens after repeated
// consecutive failures and probes again after a cooldown
func NewBreakerSynthesizer(inner Synthesizer) *BreakerSynthesizer {
	settings := gobreaker.Settings{
		Name:    "content-synthesis",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &BreakerSynthesizer{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// SynthesizeText passes the call through the breaker
func (b *BreakerSynthesizer) SynthesizeText(ctx context.Context, prompt, contextHint string) (string, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.SynthesizeText(ctx, prompt, contextHint)
	})
	if err != nil {
		return "", pkgerrors.NewSynthesisUnavailable("text synthesis failed", err)
	}
	return result.(string), nil
}

// SynthesizeImage passes the call through the breaker
func (b *BreakerSynthesizer) SynthesizeImage(ctx context.Context, prompt string) (string, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.SynthesizeImage(ctx, prompt)
	})
	if err != nil {
		return "", pkgerrors.NewSynthesisUnavailable("image synthesis failed", err)
	}
	return result.(string), nil
}
