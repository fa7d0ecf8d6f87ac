package summarize

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGateway is a func-backed Generator that records every call.
type stubGateway struct {
	mu      sync.Mutex
	labels  []string
	prompts []string
	respond func(label, prompt string) (string, error)
}

func (s *stubGateway) Generate(ctx context.Context, label, prompt string) (string, error) {
	s.mu.Lock()
	s.labels = append(s.labels, label)
	s.prompts = append(s.prompts, prompt)
	respond := s.respond
	s.mu.Unlock()
	if respond != nil {
		return respond(label, prompt)
	}
	return "- merged", nil
}

func (s *stubGateway) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.labels)
}

func (s *stubGateway) callsWithLabel(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.labels {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func numberedSummaries(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("- event %d happened", i)
	}
	return out
}

func TestMerger_SingleSummaryNeedsNoCall(t *testing.T) {
	gw := &stubGateway{}
	m := NewMerger(gw, 6, 3)

	out, err := m.Merge(context.Background(), []string{"- only one"})
	require.NoError(t, err)
	assert.Equal(t, "- only one", out)
	assert.Equal(t, 0, gw.calls())
}

func TestMerger_EmptyInputIsError(t *testing.T) {
	m := NewMerger(&stubGateway{}, 6, 3)
	_, err := m.Merge(context.Background(), nil)
	assert.Error(t, err)
}

func TestMerger_NoMergeCallExceedsBatch(t *testing.T) {
	const batch = 6
	gw := &stubGateway{}
	gw.respond = func(label, prompt string) (string, error) {
		// Count "Part N:" headers fed into each merge prompt.
		parts := strings.Count(prompt, "Part ")
		assert.LessOrEqual(t, parts, batch, "merge call received more than %d inputs", batch)
		return "- merged", nil
	}
	m := NewMerger(gw, batch, 3)

	for _, n := range []int{2, 6, 7, 13, 36, 37, 100} {
		gw.mu.Lock()
		gw.labels, gw.prompts = nil, nil
		gw.mu.Unlock()

		out, err := m.Merge(context.Background(), numberedSummaries(n))
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	}
}

func TestLayerCount(t *testing.T) {
	cases := []struct {
		n, batch, want int
	}{
		{1, 6, 0},
		{2, 6, 1},
		{6, 6, 1},
		{7, 6, 2},
		{36, 6, 2},
		{37, 6, 3},
		{5, 2, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LayerCount(tc.n, tc.batch), "n=%d batch=%d", tc.n, tc.batch)
	}
}

func TestMerger_TerminatesInLayerCountLayers(t *testing.T) {
	const batch = 6
	for _, n := range []int{2, 7, 36, 37} {
		gw := &stubGateway{}
		layerCalls := 0
		gw.respond = func(label, prompt string) (string, error) {
			layerCalls++
			return "- merged", nil
		}
		m := NewMerger(gw, batch, 1)

		_, err := m.Merge(context.Background(), numberedSummaries(n))
		require.NoError(t, err)

		// Sequential workers make call counts deterministic: each layer of k
		// summaries issues ceil(k/batch) calls minus pass-through singletons.
		expected := 0
		k := n
		for k > 1 {
			groups := (k + batch - 1) / batch
			for g := 0; g < groups; g++ {
				start := g * batch
				end := start + batch
				if end > k {
					end = k
				}
				if end-start > 1 {
					expected++
				}
			}
			k = groups
		}
		assert.Equal(t, expected, layerCalls, "n=%d", n)
		assert.Equal(t, LayerCount(n, batch), layersFor(n, batch))
	}
}

// layersFor recomputes the layer count by simulation, as a cross-check.
func layersFor(n, batch int) int {
	layers := 0
	for n > 1 {
		n = (n + batch - 1) / batch
		layers++
	}
	return layers
}

func TestMerger_GroupFailureAbortsMerge(t *testing.T) {
	gw := &stubGateway{}
	gw.respond = func(label, prompt string) (string, error) {
		return "", fmt.Errorf("model down")
	}
	m := NewMerger(gw, 6, 2)

	_, err := m.Merge(context.Background(), numberedSummaries(8))
	assert.Error(t, err)
}
