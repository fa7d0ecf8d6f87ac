package summarize

import (
	"context"
	"fmt"
	"sync"
)

// Merger condenses N partial summaries into one by repeated batched
// reduction. Each layer partitions the current list into groups of at most
// batch and merges every group with one gateway call, so no merge prompt ever
// carries more than batch summaries regardless of transcript length.
type Merger struct {
	gateway Generator
	batch   int
	workers int
}

// Generator is the single-call completion surface the pipeline consumes.
type Generator interface {
	Generate(ctx context.Context, label, prompt string) (string, error)
}

// NewMerger creates a hierarchical merger. batch must be >= 2.
func NewMerger(gateway Generator, batch, workers int) *Merger {
	if batch < 2 {
		batch = 2
	}
	if workers < 1 {
		workers = 1
	}
	return &Merger{gateway: gateway, batch: batch, workers: workers}
}

// Merge reduces summaries to a single one. Any failed merge call aborts the
// whole merge; the caller decides the fallback.
func (m *Merger) Merge(ctx context.Context, summaries []string) (string, error) {
	if len(summaries) == 0 {
		return "", fmt.Errorf("no summaries to merge")
	}

	layer := summaries
	for len(layer) > 1 {
		groups := partition(layer, m.batch)
		next := make([]string, len(groups))
		errs := make([]error, len(groups))

		var wg sync.WaitGroup
		sem := make(chan struct{}, m.workers)
		for i, group := range groups {
			wg.Add(1)
			go func(i int, group []string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				next[i], errs[i] = m.mergeGroup(ctx, group)
			}(i, group)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return "", err
			}
		}
		layer = next
	}
	return layer[0], nil
}

// mergeGroup merges one group. Singleton groups pass through without a call.
func (m *Merger) mergeGroup(ctx context.Context, group []string) (string, error) {
	if len(group) == 1 {
		return group[0], nil
	}
	text, err := m.gateway.Generate(ctx, "recap.merge", mergePrompt(group))
	if err != nil {
		return "", fmt.Errorf("merging %d summaries: %w", len(group), err)
	}
	return cleanSummary(text), nil
}

// partition splits items into consecutive groups of at most size.
func partition(items []string, size int) [][]string {
	var groups [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		groups = append(groups, items[start:end])
	}
	return groups
}

// LayerCount returns how many merge layers reducing n summaries takes with
// the given batch size: ceil(log_batch(n)).
func LayerCount(n, batch int) int {
	if n <= 1 {
		return 0
	}
	layers := 0
	for n > 1 {
		n = (n + batch - 1) / batch
		layers++
	}
	return layers
}
