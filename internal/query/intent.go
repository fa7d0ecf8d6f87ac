// Package query turns terse natural-language utterances into structured
// lookups: a pattern-based intent parser, entity resolvers with deterministic
// tie-breaks, an orchestrator dispatching over the intent, and a composer
// rendering typed results as display text.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"campaign-scribe/pkg/types"
)

// IntentKind is the closed set of query categories.
type IntentKind string

const (
	IntentInventory      IntentKind = "INVENTORY"
	IntentStats          IntentKind = "STATS"
	IntentLocationEvents IntentKind = "LOCATION_EVENTS"
	IntentSessionSummary IntentKind = "SESSION_SUMMARY"
	IntentFreeform       IntentKind = "FREEFORM"
)

// Intent is the parsed form of one utterance: the kind plus the raw fields
// the patterns captured. Names are raw, unresolved text.
type Intent struct {
	Kind          IntentKind
	Name          string
	RawStat       string
	SessionNumber *int
	LastSession   bool
}

// statAlt is the alternation of every recognized stat spelling, long and
// short, used inside the stat patterns.
const statAlt = `(?:strength|dexterity|constitution|intelligence|wisdom|charisma|str|dex|con|int|wis|cha)`

var (
	reSessionSummary = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:what happened (?:in|during)|summarize|recap(?: of)?|summary(?: of)?)\s+session\s+(\d+)\s*\??$`),
		regexp.MustCompile(`(?i)^session\s+(\d+)\s*(?:summary|recap)?\s*\??$`),
		regexp.MustCompile(`(?i)^(?:what happened (?:in|during)\s+(?:the\s+)?)?last session\s*(?:summary|recap)?\s*\??$`),
	}

	reLocationEvents = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^what happened (?:at|in)\s+(?:the\s+)?(.+?)(?:\s+(?:in|during)\s+session\s+(\d+))?\s*\??$`),
		regexp.MustCompile(`(?i)^events (?:at|in)\s+(?:the\s+)?(.+?)(?:\s+(?:in|during)\s+session\s+(\d+))?\s*\??$`),
	}

	reInventory = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^what (?:items? |gear )?(?:does|do)\s+(.+?)\s+(?:have|carry|hold)\s*\??$`),
		regexp.MustCompile(`(?i)^(?:show\s+)?(?:the\s+)?inventory (?:of|for)\s+(.+?)\s*\??$`),
		regexp.MustCompile(`(?i)^(.+?)'s (?:items|inventory|gear)\s*\??$`),
	}

	reStatsSpecific = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^what(?:'s| is)\s+(.+?)'s\s+(` + statAlt + `)\s*\??$`),
		regexp.MustCompile(`(?i)^(.+?)'s\s+(` + statAlt + `)\s*\??$`),
		regexp.MustCompile(`(?i)^(` + statAlt + `)\s+(?:of|for)\s+(.+?)\s*\??$`),
	}

	reStatsAll = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:show\s+)?stats (?:of|for)\s+(.+?)\s*\??$`),
		regexp.MustCompile(`(?i)^(.+?)'s stats\s*\??$`),
	}

	reShortcutItems   = regexp.MustCompile(`(?i)^(?:items?|inv|inventory)\s+(.+)$`)
	reShortcutSession = regexp.MustCompile(`(?i)^s(\d+)(?:\s+(?:summary|recap))?$`)
)

// ParseIntent classifies an utterance. Unmatched input falls to FREEFORM, it
// never guesses.
func ParseIntent(utterance string) Intent {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return Intent{Kind: IntentFreeform}
	}

	for _, re := range reSessionSummary {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			n, _ := strconv.Atoi(m[1])
			return Intent{Kind: IntentSessionSummary, SessionNumber: &n}
		}
		return Intent{Kind: IntentSessionSummary, LastSession: true}
	}

	for _, re := range reLocationEvents {
		if m := re.FindStringSubmatch(text); m != nil {
			intent := Intent{Kind: IntentLocationEvents, Name: strings.TrimSpace(m[1])}
			if m[2] != "" {
				n, _ := strconv.Atoi(m[2])
				intent.SessionNumber = &n
			}
			return intent
		}
	}

	for _, re := range reInventory {
		if m := re.FindStringSubmatch(text); m != nil {
			return Intent{Kind: IntentInventory, Name: strings.TrimSpace(m[1])}
		}
	}

	for _, re := range reStatsSpecific {
		if m := re.FindStringSubmatch(text); m != nil {
			name, stat := m[1], m[2]
			if _, ok := types.ParseStatType(stat); !ok {
				// Alternation guarantees a known spelling; swapped-group
				// patterns put the stat first.
				name, stat = m[2], m[1]
			}
			return Intent{Kind: IntentStats, Name: strings.TrimSpace(name), RawStat: stat}
		}
	}

	for _, re := range reStatsAll {
		if m := re.FindStringSubmatch(text); m != nil {
			return Intent{Kind: IntentStats, Name: strings.TrimSpace(m[1])}
		}
	}

	return Intent{Kind: IntentFreeform, Name: text}
}

// ParseShortcut recognizes the terse power-user forms. It runs only after
// ParseIntent yielded FREEFORM.
func ParseShortcut(utterance string) (Intent, bool) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return Intent{}, false
	}

	if m := reShortcutItems.FindStringSubmatch(text); m != nil {
		return Intent{Kind: IntentInventory, Name: strings.TrimSpace(m[1])}, true
	}

	if m := reShortcutSession.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Intent{Kind: IntentSessionSummary, SessionNumber: &n}, true
	}

	// "<Name> INT": two or more words with a stat spelling last.
	fields := strings.Fields(text)
	if len(fields) >= 2 {
		last := fields[len(fields)-1]
		if _, ok := types.ParseStatType(last); ok {
			return Intent{
				Kind:    IntentStats,
				Name:    strings.Join(fields[:len(fields)-1], " "),
				RawStat: last,
			}, true
		}
	}

	return Intent{}, false
}
