package analyzer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Chain tries each analyzer in order and returns the first successful
// result. A provider failing only means the next one gets a turn; the chain
// as a whole fails when every provider does.
type Chain struct {
	analyzers []Analyzer
	logger    zerolog.Logger
}

// NewChain composes analyzers into a fallback chain.
func NewChain(logger zerolog.Logger, analyzers ...Analyzer) *Chain {
	return &Chain{
		analyzers: analyzers,
		logger:    logger.With().Str("component", "analyzer_chain").Logger(),
	}
}

// Analyze walks the chain until a provider succeeds.
func (c *Chain) Analyze(ctx context.Context, request Request) (Result, error) {
	if len(c.analyzers) == 0 {
		return Result{}, fmt.Errorf("no analyzers configured")
	}

	var lastErr error
	for _, candidate := range c.analyzers {
		result, err := candidate.Analyze(ctx, request)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.logger.Warn().Err(err).Msg("analyzer provider failed, trying next")
	}

	return Result{}, fmt.Errorf("all analyzers failed: %w", lastErr)
}
