// Package summarize turns an arbitrarily long session transcript into a
// bounded-length recap via chunked map-reduce against the LLM gateway, with
// degraded fallbacks when the model is unavailable.
package summarize

import (
	"fmt"
	"regexp"
	"strings"
)

// Recap prompts forbid invented facts: every bullet must be traceable to the
// transcript text the call was given.

const recapPromptTemplate = `You are a tabletop-RPG session recorder.
Write a recap of the game session transcript below.

Requirements:
1. Output 5-8 bullet points, each starting with "- ".
2. Use ONLY facts stated verbatim in the transcript. Do NOT invent names,
   places, items or outcomes that the transcript does not contain.
3. Each bullet: who did what and what came of it, past tense, under 30 words.
4. Keep the transcript's chronological order.
5. Output the bullets directly, with no heading and no prefix like "Summary:".

Transcript:
%s`

const chunkPromptTemplate = `You are a tabletop-RPG session recorder.
Summarize ONLY the transcript segment below. Later segments are handled by
other calls; do not speculate about what happens outside this segment.

Requirements:
1. Output 2-4 bullet points, each starting with "- ".
2. Use ONLY facts stated in the segment. No invented facts.
3. Each bullet: who did what and what came of it, past tense.
4. Output the bullets directly, with no prefix like "Summary:".

Segment:
%s`

const mergePromptTemplate = `You are a tabletop-RPG session recorder.
Below are partial recaps of consecutive parts of one game session. Merge them
into a single recap.

Requirements:
1. Use ONLY facts present in the partial recaps. No new facts.
2. Remove duplicated bullets that describe the same moment.
3. Keep chronological order: earlier parts come first.
4. Output 5-8 bullet points, each starting with "- ", no heading.

Partial recaps:
%s`

// summaryPrefixPattern strips label prefixes some models prepend despite
// instructions.
var summaryPrefixPattern = regexp.MustCompile(`(?i)^(summary|note|recap)\s*:\s*`)

func recapPrompt(text string) string {
	return fmt.Sprintf(recapPromptTemplate, text)
}

func chunkPrompt(text string) string {
	return fmt.Sprintf(chunkPromptTemplate, text)
}

func mergePrompt(summaries []string) string {
	var b strings.Builder
	for i, s := range summaries {
		fmt.Fprintf(&b, "Part %d:\n%s\n\n", i+1, s)
	}
	return fmt.Sprintf(mergePromptTemplate, strings.TrimSpace(b.String()))
}

// cleanSummary trims the model output and drops label prefixes line by line.
func cleanSummary(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = summaryPrefixPattern.ReplaceAllString(strings.TrimSpace(line), "")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
