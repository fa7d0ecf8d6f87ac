package types

// ResultKind discriminates the typed query result union.
type ResultKind string

const (
	ResultInventory      ResultKind = "inventory"
	ResultStats          ResultKind = "stats"
	ResultLocationEvents ResultKind = "location_events"
	ResultSessionSummary ResultKind = "session_summary"
	ResultClarification  ResultKind = "needs_clarification"
	ResultHelp           ResultKind = "help"
)

// CandidateKind tags a clarification candidate with its entity type.
type CandidateKind string

const (
	CandidateCharacter CandidateKind = "character"
	CandidateLocation  CandidateKind = "location"
	CandidateSession   CandidateKind = "session"
)

// Candidate is one option offered back to the user when a reference is
// ambiguous.
type Candidate struct {
	Kind CandidateKind `json:"kind"`
	ID   string        `json:"id"`
	Name string        `json:"name"`
}

// InventoryResult lists a character's currently held possessions, ordered by
// acquisition time ascending.
type InventoryResult struct {
	Character Character    `json:"character"`
	Items     []Possession `json:"items"`
}

// StatsResult carries the latest snapshot per stat type. Every one of the six
// slots is present; a nil entry means no snapshot is known for that stat.
type StatsResult struct {
	Character Character                  `json:"character"`
	Requested StatType                   `json:"requested,omitempty"`
	Stats     map[StatType]*StatSnapshot `json:"stats"`
}

// LocationEventsResult is a chronological event timeline for one location,
// optionally filtered to a session.
type LocationEventsResult struct {
	Location Location `json:"location"`
	Session  *Session `json:"session,omitempty"`
	Events   []Event  `json:"events"`
}

// SessionSummaryResult returns the stored summary when present; otherwise the
// raw chronological event list for the session stands in for it.
type SessionSummaryResult struct {
	Session Session `json:"session"`
	Summary string  `json:"summary,omitempty"`
	Events  []Event `json:"events,omitempty"`
}

// ClarificationResult is the first-class "could not pin down a referent"
// outcome: a reason plus up to a handful of candidates, never a silent guess.
type ClarificationResult struct {
	Reason     string      `json:"reason"`
	Query      string      `json:"query,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// HelpResult carries the static help text shown for unmatched utterances.
type HelpResult struct {
	Message string `json:"message"`
}

// QueryResult is the typed result union produced by the query orchestrator.
// Exactly one of the pointer fields matching Kind is set.
type QueryResult struct {
	Kind           ResultKind            `json:"kind"`
	Inventory      *InventoryResult      `json:"inventory,omitempty"`
	Stats          *StatsResult          `json:"stats,omitempty"`
	LocationEvents *LocationEventsResult `json:"location_events,omitempty"`
	SessionSummary *SessionSummaryResult `json:"session_summary,omitempty"`
	Clarification  *ClarificationResult  `json:"clarification,omitempty"`
	Help           *HelpResult           `json:"help,omitempty"`
}
