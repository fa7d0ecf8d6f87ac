// Package types provides the core data structures shared across the campaign
// scribe: campaign entities, stat snapshots, possessions, character cards and
// query results.
package types

import (
	"strings"
	"time"
)

// Campaign is the root scope for every entity and query.
type Campaign struct {
	ID    string `json:"id" db:"id"`
	Title string `json:"title" db:"title"`
}

// Character represents a player or non-player character in a campaign.
type Character struct {
	ID         string   `json:"id" db:"id"`
	CampaignID string   `json:"campaign_id" db:"campaign_id"`
	Name       string   `json:"name" db:"name"`
	Level      int      `json:"level" db:"level"`
	Aliases    []string `json:"aliases,omitempty"`
}

// DefaultCharacterLevel is assigned when a character record is created from an
// extracted card and no level is known yet.
const DefaultCharacterLevel = 1

// Location represents a named place in a campaign.
type Location struct {
	ID         string `json:"id" db:"id"`
	CampaignID string `json:"campaign_id" db:"campaign_id"`
	Name       string `json:"name" db:"name"`
}

// Session represents one played game session. Number is unique per campaign.
type Session struct {
	ID         string    `json:"id" db:"id"`
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	Number     int       `json:"number" db:"number"`
	Date       time.Time `json:"date" db:"date"`
	Summary    string    `json:"summary,omitempty" db:"summary"`
}

// Snippet is a transcript span attached to an event as supporting evidence.
type Snippet struct {
	Text  string `json:"text" db:"text"`
	Start int    `json:"start" db:"start_offset"`
	End   int    `json:"end" db:"end_offset"`
}

// Event represents something that happened during play.
type Event struct {
	ID         string    `json:"id" db:"id"`
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	Type       string    `json:"type" db:"type"`
	Summary    string    `json:"summary" db:"summary"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
	SessionID  *string   `json:"session_id,omitempty" db:"session_id"`
	LocationID *string   `json:"location_id,omitempty" db:"location_id"`
	Snippets   []Snippet `json:"snippets,omitempty"`
}

// StatType identifies one of the six ability scores.
type StatType string

const (
	StatSTR StatType = "STR"
	StatDEX StatType = "DEX"
	StatCON StatType = "CON"
	StatINT StatType = "INT"
	StatWIS StatType = "WIS"
	StatCHA StatType = "CHA"
)

// AllStatTypes lists the six stat types in canonical display order.
var AllStatTypes = []StatType{StatSTR, StatDEX, StatCON, StatINT, StatWIS, StatCHA}

// statSynonyms maps long and short spellings to a stat code. Keys are lowercase.
var statSynonyms = map[string]StatType{
	"str": StatSTR, "strength": StatSTR,
	"dex": StatDEX, "dexterity": StatDEX,
	"con": StatCON, "constitution": StatCON,
	"int": StatINT, "intelligence": StatINT,
	"wis": StatWIS, "wisdom": StatWIS,
	"cha": StatCHA, "charisma": StatCHA,
}

// ParseStatType normalizes a raw stat name (long or short form, any case) into
// a StatType. Unrecognized input returns false rather than an arbitrary code.
func ParseStatType(raw string) (StatType, bool) {
	st, ok := statSynonyms[strings.ToLower(strings.TrimSpace(raw))]
	return st, ok
}

// IsValid reports whether the stat type is one of the six known codes.
func (s StatType) IsValid() bool {
	for _, known := range AllStatTypes {
		if s == known {
			return true
		}
	}
	return false
}

// StatSnapshot records one stat value effective from a point in time. The
// current value for a (character, stat) pair is the snapshot with the greatest
// EffectiveAt, never the most recently inserted row.
type StatSnapshot struct {
	ID          string    `json:"id" db:"id"`
	CharacterID string    `json:"character_id" db:"character_id"`
	Stat        StatType  `json:"stat" db:"stat"`
	Value       int       `json:"value" db:"value"`
	EffectiveAt time.Time `json:"effective_at" db:"effective_at"`
}

// Possession records an item held by a character. EndAt nil means the item is
// held now.
type Possession struct {
	ID          string     `json:"id" db:"id"`
	CharacterID string     `json:"character_id" db:"character_id"`
	ItemID      string     `json:"item_id" db:"item_id"`
	ItemName    string     `json:"item_name" db:"item_name"`
	StartAt     time.Time  `json:"start_at" db:"start_at"`
	EndAt       *time.Time `json:"end_at,omitempty" db:"end_at"`

	// Acquisition annotations for display, filled by the repository when known.
	SessionNumber *int   `json:"session_number,omitempty"`
	LocationName  string `json:"location_name,omitempty"`
}

// CharacterCard is the derived fact sheet for one character. It is produced by
// the extractor, merged with prior facts and serialized to free text for
// storage; it is never persisted as a structured record.
type CharacterCard struct {
	Name         string   `json:"name"`
	Role         string   `json:"role,omitempty"`
	Affiliation  string   `json:"affiliation,omitempty"`
	Traits       []string `json:"traits,omitempty"`
	Goals        []string `json:"goals,omitempty"`
	LastLocation string   `json:"last_location,omitempty"`
	Status       string   `json:"status,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}
