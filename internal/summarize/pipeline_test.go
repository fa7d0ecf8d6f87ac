package summarize

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-scribe/internal/config"
	"campaign-scribe/internal/logging"
)

func testSummarizeConfig() config.SummarizeConfig {
	return config.SummarizeConfig{
		ShortPathWords:     1000,
		ChunkWords:         700,
		OverlapWords:       70,
		Workers:            3,
		MergeBatch:         6,
		FallbackCharBudget: 2000,
	}
}

func transcriptWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%04d", i)
	}
	return strings.Join(words, " ")
}

func newTestPipeline(gw Generator) *Pipeline {
	return NewPipeline(gw, testSummarizeConfig(), logging.NewNoOpLogger())
}

func TestPipeline_EmptyTranscript(t *testing.T) {
	p := newTestPipeline(&stubGateway{})
	_, err := p.SummarizeSession(context.Background(), "   ")
	assert.Error(t, err)
}

func TestPipeline_ShortTranscriptSinglePass(t *testing.T) {
	gw := &stubGateway{}
	gw.respond = func(label, prompt string) (string, error) {
		return "- the party met at the tavern\n- they accepted the job", nil
	}
	p := newTestPipeline(gw)

	res, err := p.SummarizeSession(context.Background(), transcriptWords(600))
	require.NoError(t, err)

	assert.Equal(t, 1, gw.calls(), "600 words must take exactly one call, no chunking")
	assert.Equal(t, 1, gw.callsWithLabel("recap.short"))
	assert.False(t, res.Partial)
	assert.Equal(t, 0, res.ChunkCount)
	assert.Contains(t, res.Recap, "tavern")
}

func TestPipeline_LongTranscriptMapReduce(t *testing.T) {
	gw := &stubGateway{}
	gw.respond = func(label, prompt string) (string, error) {
		if strings.HasPrefix(label, "recap.chunk") {
			return "- something happened in " + label, nil
		}
		return "- the merged recap", nil
	}
	p := newTestPipeline(gw)

	// 3,000 words with 700-word chunks and 70 overlap: starts at
	// 0/630/1260/1890/2520, five chunks, one merge layer.
	res, err := p.SummarizeSession(context.Background(), transcriptWords(3000))
	require.NoError(t, err)

	assert.Equal(t, 5, res.ChunkCount)
	assert.Equal(t, 0, res.FailedChunks)
	assert.False(t, res.Partial)
	assert.Equal(t, 5, gw.callsWithLabel("recap.chunk"))
	assert.Equal(t, 1, gw.callsWithLabel("recap.merge"), "five summaries fit one merge call")
	assert.Equal(t, "- the merged recap", res.Recap)
}

func TestPipeline_ChunkPromptsRestrictedToChunkText(t *testing.T) {
	gw := &stubGateway{}
	p := newTestPipeline(gw)

	_, err := p.SummarizeSession(context.Background(), transcriptWords(3000))
	require.NoError(t, err)

	gw.mu.Lock()
	defer gw.mu.Unlock()
	for i, prompt := range gw.prompts {
		if !strings.HasPrefix(gw.labels[i], "recap.chunk") {
			continue
		}
		// Each chunk prompt carries at most chunk-size words of transcript.
		transcriptPart := prompt[strings.Index(prompt, "Segment:"):]
		count := 0
		for _, w := range strings.Fields(transcriptPart) {
			if strings.HasPrefix(w, "word") {
				count++
			}
		}
		assert.LessOrEqual(t, count, 700)
	}
}

func TestPipeline_PartialChunkFailuresDropped(t *testing.T) {
	gw := &stubGateway{}
	gw.respond = func(label, prompt string) (string, error) {
		if label == "recap.chunk[2]" {
			return "", fmt.Errorf("transient failure")
		}
		if strings.HasPrefix(label, "recap.chunk") {
			return "- chunk fact", nil
		}
		return "- merged from survivors", nil
	}
	p := newTestPipeline(gw)

	res, err := p.SummarizeSession(context.Background(), transcriptWords(3000))
	require.NoError(t, err)

	assert.Equal(t, 1, res.FailedChunks)
	assert.True(t, res.Partial, "a dropped chunk makes the recap partial")
	assert.Equal(t, "- merged from survivors", res.Recap)
}

func TestPipeline_AllChunksFailClippedFallback(t *testing.T) {
	gw := &stubGateway{}
	gw.respond = func(label, prompt string) (string, error) {
		if strings.HasPrefix(label, "recap.chunk") {
			return "", fmt.Errorf("model down")
		}
		if label == "recap.clipped" {
			return "- recap from the clipped opening", nil
		}
		return "", fmt.Errorf("unexpected label %s", label)
	}
	p := newTestPipeline(gw)

	res, err := p.SummarizeSession(context.Background(), transcriptWords(3000))
	require.NoError(t, err)

	assert.True(t, res.Partial)
	assert.Equal(t, 5, res.FailedChunks)
	assert.NotEmpty(t, res.Recap)
	assert.Equal(t, 1, gw.callsWithLabel("recap.clipped"))

	// The clipped call must carry only the first chunk-size words.
	gw.mu.Lock()
	defer gw.mu.Unlock()
	for i, label := range gw.labels {
		if label != "recap.clipped" {
			continue
		}
		assert.Contains(t, gw.prompts[i], "word0000")
		assert.NotContains(t, gw.prompts[i], "word0700")
	}
}

func TestPipeline_MergeFailureConcatenationFallback(t *testing.T) {
	gw := &stubGateway{}
	gw.respond = func(label, prompt string) (string, error) {
		if strings.HasPrefix(label, "recap.chunk") {
			return "- a fact from " + label, nil
		}
		return "", fmt.Errorf("merge model down")
	}
	p := newTestPipeline(gw)

	res, err := p.SummarizeSession(context.Background(), transcriptWords(3000))
	require.NoError(t, err)

	assert.True(t, res.Partial)
	for i := 0; i < 5; i++ {
		assert.Contains(t, res.Recap, fmt.Sprintf("recap.chunk[%d]", i))
	}
}

func TestPipeline_ConcatenationTruncatedToBudget(t *testing.T) {
	long := strings.Repeat("- a very repetitive fact\n", 200)
	out := concatenateSummaries([]string{long}, 100)
	assert.LessOrEqual(t, len(out), 100+len(TruncationMarker)+1)
	assert.True(t, strings.HasSuffix(out, TruncationMarker))
}

func TestPipeline_ZeroWorkersStillCompletes(t *testing.T) {
	gw := &stubGateway{}
	gw.respond = func(label, prompt string) (string, error) {
		if strings.HasPrefix(label, "recap.chunk") {
			return "- a chunk fact", nil
		}
		return "- merged", nil
	}
	cfg := testSummarizeConfig()
	cfg.Workers = 0
	p := NewPipeline(gw, cfg, logging.NewNoOpLogger())

	res, err := p.SummarizeSession(context.Background(), transcriptWords(3000))
	require.NoError(t, err)
	assert.Equal(t, 5, res.ChunkCount)
	assert.Equal(t, "- merged", res.Recap)
}

func TestPipeline_ConcatenationCutsAtRuneBoundary(t *testing.T) {
	// A budget landing inside a multi-byte rune must back up, not split it.
	out := concatenateSummaries([]string{strings.Repeat("é", 60)}, 101)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, TruncationMarker))
	cut := strings.TrimSuffix(out, "\n"+TruncationMarker)
	assert.Equal(t, 100, len(cut))
}

func TestCleanSummary_StripsLabelPrefixes(t *testing.T) {
	in := "Summary: the party arrived\nRecap: they fought\n- they won"
	out := cleanSummary(in)
	assert.Equal(t, "the party arrived\nthey fought\n- they won", out)
}
