// Package storage provides the campaign knowledge repository: the interface
// the resolvers and orchestrator read through, a SQL implementation (SQLite
// or PostgreSQL) and an in-memory implementation for tests and seeding.
package storage

import (
	"context"
	"errors"

	"campaign-scribe/pkg/types"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository is the read/write surface over the campaign knowledge graph.
// Every call is scoped by campaignID. Name matching is the caller's concern:
// the repository exposes exact and substring lookups and never guesses.
type Repository interface {
	// FindCharactersExact returns characters whose name or alias equals the
	// normalized name. Results are de-duplicated by character id.
	FindCharactersExact(ctx context.Context, campaignID, name string) ([]types.Character, error)

	// FindCharactersSubstring returns characters whose normalized name or
	// alias contains the query, or is contained by it.
	FindCharactersSubstring(ctx context.Context, campaignID, name string) ([]types.Character, error)

	// FindLocationsExact returns locations whose normalized name equals name.
	FindLocationsExact(ctx context.Context, campaignID, name string) ([]types.Location, error)

	// FindLocationsSubstring returns locations whose normalized name
	// contains the query, or is contained by it.
	FindLocationsSubstring(ctx context.Context, campaignID, name string) ([]types.Location, error)

	// SessionByNumber returns the session with the given number.
	SessionByNumber(ctx context.Context, campaignID string, number int) (*types.Session, error)

	// LatestSession returns the most recent session by date.
	LatestSession(ctx context.Context, campaignID string) (*types.Session, error)

	// CurrentPossessions returns possessions with no end time, ordered by
	// acquisition time ascending, annotated with session/location when known.
	CurrentPossessions(ctx context.Context, characterID string) ([]types.Possession, error)

	// LatestStatSnapshots returns, per stat type, the snapshot with the
	// greatest effective time. Stats with no snapshot are absent.
	LatestStatSnapshots(ctx context.Context, characterID string) (map[types.StatType]*types.StatSnapshot, error)

	// EventsByLocation returns events at a location in chronological order,
	// optionally filtered to one session, capped at limit, each carrying at
	// most one snippet.
	EventsByLocation(ctx context.Context, campaignID, locationID string, sessionID *string, limit int) ([]types.Event, error)

	// EventsBySession returns a session's events in chronological order,
	// each carrying at most one snippet.
	EventsBySession(ctx context.Context, campaignID, sessionID string) ([]types.Event, error)

	// StoredCardText returns the stored card text for a character name
	// within the campaign. ok is false when no card is stored.
	StoredCardText(ctx context.Context, campaignID, name string) (text string, ok bool, err error)

	// SaveCardText creates or replaces the stored card text for a character.
	SaveCardText(ctx context.Context, campaignID, characterID, text string) error

	// EnsureCharacter returns the character with the given name, creating a
	// default-level record when none exists.
	EnsureCharacter(ctx context.Context, campaignID, name string) (*types.Character, error)
}
