package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MockClient implements Client for tests and for running without an LLM host.
// Responses can be scripted per prompt substring; unscripted prompts get a
// deterministic echo-style summary.
type MockClient struct {
	mu            sync.Mutex
	ModelName     string
	ResponseDelay time.Duration

	// FailAll makes every call fail with ErrServiceUnavailable.
	FailAll bool
	// FailFirst makes the first N calls fail before succeeding.
	FailFirst int

	scripted []scriptedResponse
	calls    int
	prompts  []string
}

type scriptedResponse struct {
	substring string
	text      string
}

// NewMockClient creates a mock completion client.
func NewMockClient() *MockClient {
	return &MockClient{ModelName: "mock-model"}
}

// Script registers a canned response returned for any prompt containing the
// given substring. Scripts are checked in registration order.
func (m *MockClient) Script(substring, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted = append(m.scripted, scriptedResponse{substring: substring, text: text})
}

// Calls returns how many completion calls were made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns a copy of every prompt received, in call order.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if m.ResponseDelay > 0 {
		select {
		case <-time.After(m.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	m.calls++
	call := m.calls
	m.prompts = append(m.prompts, req.Prompt)
	scripted := make([]scriptedResponse, len(m.scripted))
	copy(scripted, m.scripted)
	failAll := m.FailAll
	failFirst := m.FailFirst
	m.mu.Unlock()

	if failAll || call <= failFirst {
		return nil, fmt.Errorf("%w: scripted failure", ErrServiceUnavailable)
	}

	for _, s := range scripted {
		if strings.Contains(req.Prompt, s.substring) {
			return &Response{Text: strings.TrimSpace(s.text), Model: m.ModelName}, nil
		}
	}

	return &Response{Text: deterministicSummary(req.Prompt), Model: m.ModelName}, nil
}

// Model implements Client.
func (m *MockClient) Model() string {
	return m.ModelName
}

// Healthy implements Client.
func (m *MockClient) Healthy(ctx context.Context) error {
	if m.FailAll {
		return ErrServiceUnavailable
	}
	return nil
}

// deterministicSummary produces a stable digest of the prompt tail so tests
// can trace output back to input without a real model.
func deterministicSummary(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) == 0 {
		return "- (empty)"
	}
	tail := words
	if len(tail) > 12 {
		tail = tail[len(tail)-12:]
	}
	return "- " + strings.Join(tail, " ")
}
