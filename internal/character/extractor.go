// Package character derives structured character cards from transcripts via
// the LLM gateway, merges newly extracted facts into previously stored facts,
// and round-trips cards through the stored free-text format.
package character

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"campaign-scribe/internal/logging"
	"campaign-scribe/pkg/types"
)

// ErrNoParsableOutput indicates the model answered but produced nothing that
// parses as character JSON. Callers treat this as an empty extraction rather
// than a user-facing failure.
var ErrNoParsableOutput = errors.New("no parsable character output")

// Generator is the single-call completion surface this package consumes.
type Generator interface {
	Generate(ctx context.Context, label, prompt string) (string, error)
}

const extractPromptTemplate = `You are a tabletop-RPG character sheet keeper.
From the session transcript below, extract every character that appears.

Return ONLY a JSON array, no prose, no code fences. Each element:
{
  "name": "string, required",
  "role": "string or empty",
  "affiliation": "string or empty",
  "traits": ["strings"],
  "goals": ["strings"],
  "last_location": "string or empty",
  "status": "string or empty",
  "notes": "string or empty"
}

Rules:
1. Use ONLY facts stated in the transcript. Unknown fields stay empty.
2. One element per character, no duplicates.
3. Return ONLY the JSON array.

Transcript:
%s`

// Extractor derives character cards from transcript text.
type Extractor struct {
	gateway Generator
	maxCard int
	logger  logging.Logger
}

// NewExtractor creates an extractor. maxCards caps the result length.
func NewExtractor(gateway Generator, maxCards int, logger logging.Logger) *Extractor {
	if maxCards < 1 {
		maxCards = 25
	}
	return &Extractor{
		gateway: gateway,
		maxCard: maxCards,
		logger:  logger.WithComponent("character.extractor"),
	}
}

// rawCard tolerates both snake_case and camelCase keys in model output.
type rawCard struct {
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Affiliation  string   `json:"affiliation"`
	Traits       []string `json:"traits"`
	Goals        []string `json:"goals"`
	LastLocation string   `json:"last_location"`
	LastLocAlt   string   `json:"lastLocation"`
	Status       string   `json:"status"`
	Notes        string   `json:"notes"`
}

// Extract issues one JSON-producing gateway call and parses the output
// permissively. A gateway failure is returned as-is so the caller picks the
// fallback; output that parses to nothing returns ErrNoParsableOutput.
func (e *Extractor) Extract(ctx context.Context, text string) ([]types.CharacterCard, error) {
	out, err := e.gateway.Generate(ctx, "characters.extract", fmt.Sprintf(extractPromptTemplate, text))
	if err != nil {
		return nil, err
	}

	payload, ok := firstBalancedJSON(out)
	if !ok {
		e.logger.WarnContext(ctx, "extraction output had no balanced JSON", "chars", len(out))
		return nil, ErrNoParsableOutput
	}

	raws, ok := decodeCardList(payload)
	if !ok || len(raws) == 0 {
		return nil, ErrNoParsableOutput
	}

	return e.dedupe(raws), nil
}

// decodeCardList accepts either a JSON array of cards or a single card
// object.
func decodeCardList(payload string) ([]rawCard, bool) {
	var list []rawCard
	if err := json.Unmarshal([]byte(payload), &list); err == nil {
		return list, true
	}
	var single rawCard
	if err := json.Unmarshal([]byte(payload), &single); err == nil && single.Name != "" {
		return []rawCard{single}, true
	}
	return nil, false
}

// dedupe keeps the first occurrence per case-insensitive name, drops nameless
// entries and caps the result.
func (e *Extractor) dedupe(raws []rawCard) []types.CharacterCard {
	seen := make(map[string]bool)
	var cards []types.CharacterCard
	for _, r := range raws {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		lastLocation := strings.TrimSpace(r.LastLocation)
		if lastLocation == "" {
			lastLocation = strings.TrimSpace(r.LastLocAlt)
		}

		cards = append(cards, types.CharacterCard{
			Name:         name,
			Role:         strings.TrimSpace(r.Role),
			Affiliation:  strings.TrimSpace(r.Affiliation),
			Traits:       normalizeList(r.Traits),
			Goals:        normalizeList(r.Goals),
			LastLocation: lastLocation,
			Status:       strings.TrimSpace(r.Status),
			Notes:        strings.TrimSpace(r.Notes),
		})
		if len(cards) >= e.maxCard {
			break
		}
	}
	return cards
}

// firstBalancedJSON scans free-form model output for the first balanced JSON
// array or object, preferring a fenced ```json block when present.
func firstBalancedJSON(s string) (string, bool) {
	if fenced, ok := fencedJSON(s); ok {
		return fenced, true
	}
	for start := 0; start < len(s); start++ {
		open := s[start]
		if open != '[' && open != '{' {
			continue
		}
		if candidate, ok := balancedFrom(s, start); ok {
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
	}
	return "", false
}

// fencedJSON extracts the body of the first ```json fenced block.
func fencedJSON(s string) (string, bool) {
	lower := strings.ToLower(s)
	open := strings.Index(lower, "```json")
	if open < 0 {
		open = strings.Index(lower, "```")
		if open < 0 {
			return "", false
		}
	}
	rest := s[open:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", false
	}
	body := rest[nl+1:]
	closeIdx := strings.Index(body, "```")
	if closeIdx < 0 {
		return "", false
	}
	candidate := strings.TrimSpace(body[:closeIdx])
	if json.Valid([]byte(candidate)) {
		return candidate, true
	}
	return "", false
}

// balancedFrom returns the shortest balanced bracket span starting at start,
// respecting JSON string quoting.
func balancedFrom(s string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
