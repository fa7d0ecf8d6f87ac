package storage

import (
	"context"
	"fmt"

	"campaign-scribe/pkg/types"
)

// Insert methods used by the seed tool and by integration setups. Reads go
// through the Repository interface; writes of raw campaign records are a
// tooling concern and live on the concrete store.

// InsertCampaign creates a campaign record.
func (s *SQLStore) InsertCampaign(ctx context.Context, c types.Campaign) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, title) VALUES ($1, $2)`, c.ID, c.Title)
	if err != nil {
		return fmt.Errorf("failed to insert campaign %s: %w", c.ID, err)
	}
	return nil
}

// InsertCharacter creates a character and its alias records.
func (s *SQLStore) InsertCharacter(ctx context.Context, c types.Character) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO characters (id, campaign_id, name, name_norm, level)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.CampaignID, c.Name, NormalizeName(c.Name), c.Level)
	if err != nil {
		return fmt.Errorf("failed to insert character %s: %w", c.Name, err)
	}
	for _, alias := range c.Aliases {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO character_aliases (character_id, alias, alias_norm)
			 VALUES ($1, $2, $3)`, c.ID, alias, NormalizeName(alias))
		if err != nil {
			return fmt.Errorf("failed to insert alias %q for %s: %w", alias, c.Name, err)
		}
	}
	return nil
}

// InsertLocation creates a location record.
func (s *SQLStore) InsertLocation(ctx context.Context, l types.Location) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO locations (id, campaign_id, name, name_norm)
		 VALUES ($1, $2, $3, $4)`, l.ID, l.CampaignID, l.Name, NormalizeName(l.Name))
	if err != nil {
		return fmt.Errorf("failed to insert location %s: %w", l.Name, err)
	}
	return nil
}

// InsertSession creates a session record.
func (s *SQLStore) InsertSession(ctx context.Context, sess types.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, campaign_id, number, date, summary)
		 VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, sess.CampaignID, sess.Number, sess.Date, sess.Summary)
	if err != nil {
		return fmt.Errorf("failed to insert session %d: %w", sess.Number, err)
	}
	return nil
}

// InsertEvent creates an event and its snippet records.
func (s *SQLStore) InsertEvent(ctx context.Context, e types.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, campaign_id, type, summary, occurred_at, session_id, location_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.CampaignID, e.Type, e.Summary, e.OccurredAt, e.SessionID, e.LocationID)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", e.ID, err)
	}
	for _, snip := range e.Snippets {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO event_snippets (event_id, text, start_offset, end_offset)
			 VALUES ($1, $2, $3, $4)`, e.ID, snip.Text, snip.Start, snip.End)
		if err != nil {
			return fmt.Errorf("failed to insert snippet for event %s: %w", e.ID, err)
		}
	}
	return nil
}

// InsertPossession creates a possession record.
func (s *SQLStore) InsertPossession(ctx context.Context, p types.Possession) error {
	var sessionID, locationID interface{}
	if p.SessionNumber != nil {
		// Seed files reference sessions by number; resolve to the id.
		row := s.db.QueryRowContext(ctx, `
			SELECT s.id FROM sessions s
			JOIN characters c ON c.campaign_id = s.campaign_id
			WHERE c.id = $1 AND s.number = $2`, p.CharacterID, *p.SessionNumber)
		var id string
		if err := row.Scan(&id); err == nil {
			sessionID = id
		}
	}
	if p.LocationName != "" {
		row := s.db.QueryRowContext(ctx, `
			SELECT l.id FROM locations l
			JOIN characters c ON c.campaign_id = l.campaign_id
			WHERE c.id = $1 AND l.name_norm = $2`, p.CharacterID, NormalizeName(p.LocationName))
		var id string
		if err := row.Scan(&id); err == nil {
			locationID = id
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO possessions (id, character_id, item_id, item_name, start_at, end_at,
		                          acquired_session_id, acquired_location_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.CharacterID, p.ItemID, p.ItemName, p.StartAt, p.EndAt, sessionID, locationID)
	if err != nil {
		return fmt.Errorf("failed to insert possession %s: %w", p.ItemName, err)
	}
	return nil
}

// InsertStatSnapshot creates a stat snapshot record.
func (s *SQLStore) InsertStatSnapshot(ctx context.Context, snap types.StatSnapshot) error {
	if !snap.Stat.IsValid() {
		return fmt.Errorf("unknown stat type %q", snap.Stat)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stat_snapshots (id, character_id, stat, value, effective_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		snap.ID, snap.CharacterID, snap.Stat, snap.Value, snap.EffectiveAt)
	if err != nil {
		return fmt.Errorf("failed to insert stat snapshot: %w", err)
	}
	return nil
}
