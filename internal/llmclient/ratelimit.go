package llmclient

import (
	"context"
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/riskledger/api/schemas"
)

// RateLimitedClient throttles an LLMClient to a steady request rate. Callers
// block in Generate until a token is available or their context ends.
type RateLimitedClient struct {
	next    schemas.LLMClient
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRateLimitedClient wraps next. A non-positive rps disables throttling.
func NewRateLimitedClient(next schemas.LLMClient, rps float64, logger *zap.Logger) *RateLimitedClient {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(math.Ceil(rps)))
	}
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Named("llm_ratelimit"),
	}
}

// Generate waits for the limiter, then delegates.
func (c *RateLimitedClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait aborted: %w", err)
	}
	return c.next.Generate(ctx, req)
}

// Close closes the wrapped client when it holds resources.
func (c *RateLimitedClient) Close() error {
	if closer, ok := c.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
