// Package chunking splits long transcripts into overlapping word-windows so
// that entities mentioned near a boundary stay visible to both neighboring
// chunks.
package chunking

import (
	"fmt"
	"strings"
)

// Chunk is one bounded window of a transcript.
type Chunk struct {
	// Index is the zero-based position of the chunk in source order.
	Index int
	// Start is the word offset of the chunk in the source text.
	Start int
	// Text is the chunk content, words joined by single spaces.
	Text string
	// WordCount is the number of words in the chunk.
	WordCount int
}

// Split cuts text into windows of size words advancing by size-overlap, so
// consecutive chunks share overlap boundary words. The final partial window
// is emitted once; no chunk is ever empty. size must be >= 1 and overlap must
// satisfy 0 <= overlap < size.
func Split(text string, size, overlap int) ([]Chunk, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size must be >= 1, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must be in [0, size), got %d for size %d", overlap, size)
	}

	words := strings.Fields(text)
	n := len(words)
	if n == 0 {
		return nil, nil
	}

	step := size - overlap
	var chunks []Chunk
	for start := 0; start < n; start += step {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			Start:     start,
			Text:      strings.Join(words[start:end], " "),
			WordCount: end - start,
		})
		if end == n {
			break
		}
	}
	return chunks, nil
}

// WordCount counts whitespace-separated words, the same measure Split uses.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
