package llmclient

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// RateLimitedClient throttles calls to the wrapped client.
type RateLimitedClient struct {
	next    schemas.LLMClient
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps next so that at most rps requests per second
// are issued, with the given burst (minimum 1).
func NewRateLimitedClient(next schemas.LLMClient, rps float64, burst int) *RateLimitedClient {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Generate waits for a token and delegates to the wrapped client.
func (c *RateLimitedClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limiter: %w", err)
	}
	return c.next.Generate(ctx, req)
}

// Close closes the wrapped client.
func (c *RateLimitedClient) Close() error {
	return c.next.Close()
}
