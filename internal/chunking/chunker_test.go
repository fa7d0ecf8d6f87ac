package chunking

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordsN(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%03d", i)
	}
	return strings.Join(words, " ")
}

func TestSplit_Validation(t *testing.T) {
	_, err := Split("a b c", 0, 0)
	assert.Error(t, err)

	_, err = Split("a b c", 5, 5)
	assert.Error(t, err)

	_, err = Split("a b c", 5, -1)
	assert.Error(t, err)
}

func TestSplit_EmptyText(t *testing.T) {
	chunks, err := Split("   ", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_SingleChunkWhenShort(t *testing.T) {
	chunks, err := Split(wordsN(5), 10, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 5, chunks[0].WordCount)
	assert.Equal(t, 0, chunks[0].Start)
}

func TestSplit_OverlapSharedBetweenNeighbors(t *testing.T) {
	chunks, err := Split(wordsN(20), 8, 3)
	require.NoError(t, err)
	require.True(t, len(chunks) > 1)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		cur := strings.Fields(chunks[i].Text)
		shared := 3
		if len(cur) < shared {
			shared = len(cur)
		}
		assert.Equal(t, prev[len(prev)-shared:], cur[:shared],
			"chunk %d should begin with the overlap tail of chunk %d", i, i-1)
	}
}

func TestSplit_ReconstructsOriginalSequence(t *testing.T) {
	cases := []struct {
		total, size, overlap int
	}{
		{1, 10, 2},
		{10, 10, 2},
		{11, 10, 2},
		{50, 8, 3},
		{100, 7, 0},
		{237, 70, 7},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("n%d_s%d_o%d", tc.total, tc.size, tc.overlap), func(t *testing.T) {
			text := wordsN(tc.total)
			chunks, err := Split(text, tc.size, tc.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			// Concatenating each chunk's novel word range must rebuild the
			// original word sequence exactly.
			var rebuilt []string
			for i, c := range chunks {
				words := strings.Fields(c.Text)
				assert.NotEmpty(t, words, "chunk %d must not be empty", i)
				novel := words
				if i > 0 {
					novel = words[tc.overlap:]
				}
				rebuilt = append(rebuilt, novel...)
			}
			assert.Equal(t, strings.Fields(text), rebuilt)
		})
	}
}

func TestSplit_FinalPartialEmittedOnce(t *testing.T) {
	// 12 words, size 10, overlap 2: windows [0..10) and [8..12).
	chunks, err := Split(wordsN(12), 10, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 10, chunks[0].WordCount)
	assert.Equal(t, 8, chunks[1].Start)
	assert.Equal(t, 4, chunks[1].WordCount)
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 3, WordCount("  the  dragon\nroared "))
}
