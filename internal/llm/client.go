// Package llm provides the text-completion oracle integration: a client
// interface, the Ollama HTTP client, a deterministic mock, a response cache
// and the single-call Gateway used by the pipelines.
package llm

import (
	"context"
	"errors"
	"time"
)

// ErrServiceUnavailable indicates the completion service could not be reached
// or answered with a non-2xx status. Retry, skip and fallback policy belongs
// to the caller.
var ErrServiceUnavailable = errors.New("llm service unavailable")

// Request represents a single text-completion request.
type Request struct {
	Prompt          string  `json:"prompt"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// Response represents a completion result.
type Response struct {
	Text    string        `json:"text"`
	Model   string        `json:"model"`
	Latency time.Duration `json:"latency"`
}

// Client is the interface implemented by completion backends.
type Client interface {
	// Complete issues exactly one completion call. Transport failures and
	// non-2xx statuses are returned as errors wrapping ErrServiceUnavailable.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Model returns the backing model identifier.
	Model() string

	// Healthy reports whether the backend is reachable.
	Healthy(ctx context.Context) error
}
