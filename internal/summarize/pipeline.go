package summarize

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"campaign-scribe/internal/chunking"
	"campaign-scribe/internal/config"
	"campaign-scribe/internal/logging"
)

// TruncationMarker flags a recap assembled by naive concatenation that had to
// be cut to the character budget.
const TruncationMarker = "… [recap truncated]"

// Result is the outcome of summarizing one session transcript.
type Result struct {
	// Recap is the final bounded-length recap text.
	Recap string `json:"recap"`
	// Partial is true when a degraded fallback produced the recap from less
	// than the full transcript or without a final merge.
	Partial bool `json:"partial"`
	// ChunkCount is how many chunks the transcript split into (0 on the
	// short path).
	ChunkCount int `json:"chunk_count"`
	// FailedChunks is how many chunk summarization calls failed and were
	// dropped from the merge input.
	FailedChunks int `json:"failed_chunks"`
}

// Pipeline orchestrates chunking, bounded-parallel chunk summarization and
// hierarchical merging into one recap.
type Pipeline struct {
	gateway Generator
	merger  *Merger
	cfg     config.SummarizeConfig
	logger  logging.Logger
}

// NewPipeline creates a summarization pipeline.
func NewPipeline(gateway Generator, cfg config.SummarizeConfig, logger logging.Logger) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Pipeline{
		gateway: gateway,
		merger:  NewMerger(gateway, cfg.MergeBatch, cfg.Workers),
		cfg:     cfg,
		logger:  logger.WithComponent("summarize"),
	}
}

// SummarizeSession produces a recap for the transcript. Transcripts under the
// short-path word threshold take a single verbatim-recap call; longer ones go
// through the chunk/summarize/merge path with per-step fallbacks.
func (p *Pipeline) SummarizeSession(ctx context.Context, text string) (*Result, error) {
	wordCount := chunking.WordCount(text)
	if wordCount == 0 {
		return nil, fmt.Errorf("transcript is empty")
	}

	if wordCount < p.cfg.ShortPathWords {
		p.logger.InfoContext(ctx, "short transcript, single-pass recap", "words", wordCount)
		recap, err := p.gateway.Generate(ctx, "recap.short", recapPrompt(text))
		if err != nil {
			return nil, err
		}
		return &Result{Recap: cleanSummary(recap)}, nil
	}

	chunks, err := chunking.Split(text, p.cfg.ChunkWords, p.cfg.OverlapWords)
	if err != nil {
		return nil, fmt.Errorf("chunking transcript: %w", err)
	}
	p.logger.InfoContext(ctx, "long transcript, map-reduce recap",
		"words", wordCount, "chunks", len(chunks), "workers", p.cfg.Workers)

	summaries, failed := p.summarizeChunks(ctx, chunks)

	if len(summaries) == 0 {
		// Every chunk call failed: clip the transcript to the first chunk's
		// worth of words and try one single-pass call over real input.
		p.logger.WarnContext(ctx, "all chunk calls failed, falling back to clipped single pass")
		clipped := clipWords(text, p.cfg.ChunkWords)
		recap, err := p.gateway.Generate(ctx, "recap.clipped", recapPrompt(clipped))
		if err != nil {
			return nil, fmt.Errorf("clipped fallback: %w", err)
		}
		return &Result{
			Recap:        cleanSummary(recap),
			Partial:      true,
			ChunkCount:   len(chunks),
			FailedChunks: failed,
		}, nil
	}

	merged, err := p.merger.Merge(ctx, summaries)
	if err != nil {
		// Merge failed: concatenate what we have rather than lose it. The
		// result is drawn only from real chunk summaries, never fabricated.
		p.logger.WarnContext(ctx, "merge failed, falling back to concatenation", "error", err.Error())
		return &Result{
			Recap:        concatenateSummaries(summaries, p.cfg.FallbackCharBudget),
			Partial:      true,
			ChunkCount:   len(chunks),
			FailedChunks: failed,
		}, nil
	}

	return &Result{
		Recap:        merged,
		Partial:      failed > 0,
		ChunkCount:   len(chunks),
		FailedChunks: failed,
	}, nil
}

// summarizeChunks runs one gateway call per chunk under a fixed-size worker
// pool. Chunks share no mutable state; a failed call is dropped from the
// output without cancelling its siblings.
func (p *Pipeline) summarizeChunks(ctx context.Context, chunks []chunking.Chunk) (summaries []string, failed int) {
	results := make([]string, len(chunks))
	errs := make([]error, len(chunks))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				text, err := p.gateway.Generate(ctx, fmt.Sprintf("recap.chunk[%d]", i), chunkPrompt(chunks[i].Text))
				if err != nil {
					errs[i] = err
					continue
				}
				results[i] = cleanSummary(text)
			}
		}()
	}
	for i := range chunks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i := range chunks {
		if errs[i] != nil || results[i] == "" {
			failed++
			continue
		}
		summaries = append(summaries, results[i])
	}
	return summaries, failed
}

// clipWords returns the first n words of text.
func clipWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// concatenateSummaries joins chunk summaries in order, truncated to the
// character budget with an explicit marker. The cut never splits a rune.
func concatenateSummaries(summaries []string, budget int) string {
	joined := strings.TrimSpace(strings.Join(summaries, "\n"))
	if budget > 0 && len(joined) > budget {
		cut := budget
		for cut > 0 && !utf8.RuneStart(joined[cut]) {
			cut--
		}
		joined = joined[:cut] + "\n" + TruncationMarker
	}
	return joined
}
