package llm

import (
	"context"
	"fmt"
	"strings"

	"campaign-scribe/internal/config"
	"campaign-scribe/internal/logging"
)

// Gateway is the single-call wrapper around the completion oracle. It applies
// the configured temperature and output-token budget, consults the response
// cache, and surfaces failures untouched. Retry, skip and fallback decisions
// belong to the calling step.
type Gateway struct {
	client      Client
	cache       ResponseCache
	temperature float64
	maxTokens   int
	logger      logging.Logger
}

// NewGateway creates a gateway over the given client. cache may be nil.
func NewGateway(client Client, cache ResponseCache, cfg config.LLMConfig, logger logging.Logger) *Gateway {
	return &Gateway{
		client:      client,
		cache:       cache,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxOutputTokens,
		logger:      logger.WithComponent("llm.gateway"),
	}
}

// Generate issues exactly one completion call for the prompt. label names the
// calling step for diagnostics only. The returned text is trimmed; any
// transport or non-2xx failure is fatal for this call and propagated.
func (g *Gateway) Generate(ctx context.Context, label, prompt string) (string, error) {
	key := CacheKey(g.client.Model(), prompt)
	if g.cache != nil {
		if text, ok := g.cache.Get(ctx, key); ok {
			g.logger.DebugContext(ctx, "completion cache hit", "label", label)
			return text, nil
		}
	}

	resp, err := g.client.Complete(ctx, &Request{
		Prompt:          prompt,
		Temperature:     g.temperature,
		MaxOutputTokens: g.maxTokens,
	})
	if err != nil {
		g.logger.WarnContext(ctx, "completion call failed", "label", label, "error", err.Error())
		return "", fmt.Errorf("%s: %w", label, err)
	}

	text := strings.TrimSpace(resp.Text)
	g.logger.DebugContext(ctx, "completion call succeeded",
		"label", label, "latency_ms", resp.Latency.Milliseconds(), "chars", len(text))

	if g.cache != nil && text != "" {
		g.cache.Set(ctx, key, text)
	}
	return text, nil
}

// Healthy reports whether the underlying completion backend is reachable.
func (g *Gateway) Healthy(ctx context.Context) error {
	return g.client.Healthy(ctx)
}
