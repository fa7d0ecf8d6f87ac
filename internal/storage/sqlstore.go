package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"campaign-scribe/internal/config"
	"campaign-scribe/internal/logging"
	"campaign-scribe/pkg/types"
)

// SQLStore implements Repository over database/sql. Both SQLite and PostgreSQL
// are supported with the same statements: $N placeholders, TEXT ids and the ||
// concatenation operator work in both dialects.
type SQLStore struct {
	db       *sql.DB
	provider string
	logger   logging.Logger
}

// NewSQLStore opens the configured database and ensures the schema exists.
func NewSQLStore(cfg config.StorageConfig, logger logging.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	var driver string
	switch cfg.Provider {
	case "sqlite":
		driver = "sqlite3"
	case "postgres":
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported storage provider: %q", cfg.Provider)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Provider, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Provider, err)
	}

	store := &SQLStore{db: db, provider: cfg.Provider, logger: logger}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("storage ready", "provider", cfg.Provider)
	return store, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the handle for migrations and seeding tools.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
		id    TEXT PRIMARY KEY,
		title TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS characters (
		id          TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		name        TEXT NOT NULL,
		name_norm   TEXT NOT NULL,
		level       INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_characters_campaign_name
		ON characters (campaign_id, name_norm)`,
	`CREATE TABLE IF NOT EXISTS character_aliases (
		character_id TEXT NOT NULL,
		alias        TEXT NOT NULL,
		alias_norm   TEXT NOT NULL,
		PRIMARY KEY (character_id, alias_norm)
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id          TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		name        TEXT NOT NULL,
		name_norm   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		number      INTEGER NOT NULL,
		date        TIMESTAMP NOT NULL,
		summary     TEXT NOT NULL DEFAULT '',
		UNIQUE (campaign_id, number)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		type        TEXT NOT NULL,
		summary     TEXT NOT NULL,
		occurred_at TIMESTAMP NOT NULL,
		session_id  TEXT,
		location_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_location
		ON events (campaign_id, location_id, occurred_at)`,
	`CREATE TABLE IF NOT EXISTS event_snippets (
		event_id     TEXT NOT NULL,
		text         TEXT NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset   INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS possessions (
		id                   TEXT PRIMARY KEY,
		character_id         TEXT NOT NULL,
		item_id              TEXT NOT NULL,
		item_name            TEXT NOT NULL,
		start_at             TIMESTAMP NOT NULL,
		end_at               TIMESTAMP,
		acquired_session_id  TEXT,
		acquired_location_id TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS stat_snapshots (
		id           TEXT PRIMARY KEY,
		character_id TEXT NOT NULL,
		stat         TEXT NOT NULL,
		value        INTEGER NOT NULL,
		effective_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stat_snapshots_character
		ON stat_snapshots (character_id, stat, effective_at)`,
	`CREATE TABLE IF NOT EXISTS character_cards (
		campaign_id  TEXT NOT NULL,
		character_id TEXT NOT NULL,
		name_norm    TEXT NOT NULL,
		card_text    TEXT NOT NULL,
		PRIMARY KEY (campaign_id, name_norm)
	)`,
}

func (s *SQLStore) ensureSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// FindCharactersExact implements Repository.
func (s *SQLStore) FindCharactersExact(ctx context.Context, campaignID, name string) ([]types.Character, error) {
	const query = `
		SELECT DISTINCT c.id, c.campaign_id, c.name, c.level
		FROM characters c
		LEFT JOIN character_aliases a ON a.character_id = c.id
		WHERE c.campaign_id = $1 AND (c.name_norm = $2 OR a.alias_norm = $2)
		ORDER BY c.name, c.id`
	return s.queryCharacters(ctx, query, campaignID, NormalizeName(name))
}

// FindCharactersSubstring implements Repository. $2 is the query escaped for
// use as a LIKE pattern, $3 the raw normalized query; stored names are escaped
// in SQL when they become the pattern side.
func (s *SQLStore) FindCharactersSubstring(ctx context.Context, campaignID, name string) ([]types.Character, error) {
	const query = `
		SELECT DISTINCT c.id, c.campaign_id, c.name, c.level
		FROM characters c
		LEFT JOIN character_aliases a ON a.character_id = c.id
		WHERE c.campaign_id = $1 AND (
			c.name_norm LIKE '%' || $2 || '%' ESCAPE '!' OR
			$3 LIKE '%' || replace(replace(replace(c.name_norm, '!', '!!'), '%', '!%'), '_', '!_') || '%' ESCAPE '!' OR
			a.alias_norm LIKE '%' || $2 || '%' ESCAPE '!' OR
			$3 LIKE '%' || replace(replace(replace(a.alias_norm, '!', '!!'), '%', '!%'), '_', '!_') || '%' ESCAPE '!'
		)
		ORDER BY c.name, c.id`
	norm := NormalizeName(name)
	return s.queryCharacters(ctx, query, campaignID, escapeLike(norm), norm)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike escapes LIKE metacharacters so the query text matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *SQLStore) queryCharacters(ctx context.Context, query string, args ...interface{}) ([]types.Character, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query characters: %w", err)
	}
	defer rows.Close()

	var out []types.Character
	for rows.Next() {
		var c types.Character
		if err := rows.Scan(&c.ID, &c.CampaignID, &c.Name, &c.Level); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		aliases, err := s.characterAliases(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Aliases = aliases
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) characterAliases(ctx context.Context, characterID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT alias FROM character_aliases WHERE character_id = $1 ORDER BY alias`, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

// FindLocationsExact implements Repository.
func (s *SQLStore) FindLocationsExact(ctx context.Context, campaignID, name string) ([]types.Location, error) {
	const query = `
		SELECT id, campaign_id, name FROM locations
		WHERE campaign_id = $1 AND name_norm = $2
		ORDER BY name, id`
	return s.queryLocations(ctx, query, campaignID, NormalizeName(name))
}

// FindLocationsSubstring implements Repository.
func (s *SQLStore) FindLocationsSubstring(ctx context.Context, campaignID, name string) ([]types.Location, error) {
	const query = `
		SELECT id, campaign_id, name FROM locations
		WHERE campaign_id = $1 AND (
			name_norm LIKE '%' || $2 || '%' ESCAPE '!' OR
			$3 LIKE '%' || replace(replace(replace(name_norm, '!', '!!'), '%', '!%'), '_', '!_') || '%' ESCAPE '!'
		)
		ORDER BY name, id`
	norm := NormalizeName(name)
	return s.queryLocations(ctx, query, campaignID, escapeLike(norm), norm)
}

func (s *SQLStore) queryLocations(ctx context.Context, query string, args ...interface{}) ([]types.Location, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var out []types.Location
	for rows.Next() {
		var l types.Location
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.Name); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SessionByNumber implements Repository.
func (s *SQLStore) SessionByNumber(ctx context.Context, campaignID string, number int) (*types.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, campaign_id, number, date, summary FROM sessions
		 WHERE campaign_id = $1 AND number = $2`, campaignID, number)
	return scanSession(row)
}

// LatestSession implements Repository.
func (s *SQLStore) LatestSession(ctx context.Context, campaignID string) (*types.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, campaign_id, number, date, summary FROM sessions
		 WHERE campaign_id = $1 ORDER BY date DESC, number DESC LIMIT 1`, campaignID)
	return scanSession(row)
}

func scanSession(row *sql.Row) (*types.Session, error) {
	var sess types.Session
	err := row.Scan(&sess.ID, &sess.CampaignID, &sess.Number, &sess.Date, &sess.Summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return &sess, nil
}

// UpdateSessionSummary stores a generated recap on the session record.
func (s *SQLStore) UpdateSessionSummary(ctx context.Context, sessionID, summary string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET summary = $1 WHERE id = $2`, summary, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session summary: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CurrentPossessions implements Repository.
func (s *SQLStore) CurrentPossessions(ctx context.Context, characterID string) ([]types.Possession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.character_id, p.item_id, p.item_name, p.start_at,
		       sess.number, loc.name
		FROM possessions p
		LEFT JOIN sessions sess ON sess.id = p.acquired_session_id
		LEFT JOIN locations loc ON loc.id = p.acquired_location_id
		WHERE p.character_id = $1 AND p.end_at IS NULL
		ORDER BY p.start_at, p.id`, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query possessions: %w", err)
	}
	defer rows.Close()

	var out []types.Possession
	for rows.Next() {
		var (
			p       types.Possession
			sessNum sql.NullInt64
			locName sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.CharacterID, &p.ItemID, &p.ItemName, &p.StartAt, &sessNum, &locName); err != nil {
			return nil, fmt.Errorf("failed to scan possession: %w", err)
		}
		if sessNum.Valid {
			n := int(sessNum.Int64)
			p.SessionNumber = &n
		}
		if locName.Valid {
			p.LocationName = locName.String
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestStatSnapshots implements Repository.
func (s *SQLStore) LatestStatSnapshots(ctx context.Context, characterID string) (map[types.StatType]*types.StatSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, character_id, stat, value, effective_at
		FROM stat_snapshots
		WHERE character_id = $1
		ORDER BY effective_at, id`, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stat snapshots: %w", err)
	}
	defer rows.Close()

	out := make(map[types.StatType]*types.StatSnapshot)
	for rows.Next() {
		var snap types.StatSnapshot
		if err := rows.Scan(&snap.ID, &snap.CharacterID, &snap.Stat, &snap.Value, &snap.EffectiveAt); err != nil {
			return nil, fmt.Errorf("failed to scan stat snapshot: %w", err)
		}
		if !snap.Stat.IsValid() {
			continue
		}
		current, ok := out[snap.Stat]
		if !ok || snap.EffectiveAt.After(current.EffectiveAt) {
			copySnap := snap
			out[snap.Stat] = &copySnap
		}
	}
	return out, rows.Err()
}

// EventsByLocation implements Repository.
func (s *SQLStore) EventsByLocation(ctx context.Context, campaignID, locationID string, sessionID *string, limit int) ([]types.Event, error) {
	query := `
		SELECT id, campaign_id, type, summary, occurred_at, session_id, location_id
		FROM events
		WHERE campaign_id = $1 AND location_id = $2`
	args := []interface{}{campaignID, locationID}
	if sessionID != nil {
		query += ` AND session_id = $3`
		args = append(args, *sessionID)
	}
	query += ` ORDER BY occurred_at, id`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.queryEvents(ctx, query, args...)
}

// EventsBySession implements Repository.
func (s *SQLStore) EventsBySession(ctx context.Context, campaignID, sessionID string) ([]types.Event, error) {
	const query = `
		SELECT id, campaign_id, type, summary, occurred_at, session_id, location_id
		FROM events
		WHERE campaign_id = $1 AND session_id = $2
		ORDER BY occurred_at, id`
	return s.queryEvents(ctx, query, campaignID, sessionID)
}

func (s *SQLStore) queryEvents(ctx context.Context, query string, args ...interface{}) ([]types.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []types.Event
	for rows.Next() {
		var (
			e            types.Event
			sessID, locID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.Type, &e.Summary, &e.OccurredAt, &sessID, &locID); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if sessID.Valid {
			v := sessID.String
			e.SessionID = &v
		}
		if locID.Valid {
			v := locID.String
			e.LocationID = &v
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		snippet, ok, err := s.firstSnippet(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i].Snippets = []types.Snippet{snippet}
		}
	}
	return out, nil
}

func (s *SQLStore) firstSnippet(ctx context.Context, eventID string) (types.Snippet, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT text, start_offset, end_offset FROM event_snippets
		WHERE event_id = $1 ORDER BY start_offset LIMIT 1`, eventID)
	var snip types.Snippet
	err := row.Scan(&snip.Text, &snip.Start, &snip.End)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Snippet{}, false, nil
	}
	if err != nil {
		return types.Snippet{}, false, fmt.Errorf("failed to scan snippet: %w", err)
	}
	return snip, true, nil
}

// StoredCardText implements Repository.
func (s *SQLStore) StoredCardText(ctx context.Context, campaignID, name string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT card_text FROM character_cards
		WHERE campaign_id = $1 AND name_norm = $2`, campaignID, NormalizeName(name))
	var text string
	err := row.Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to scan card text: %w", err)
	}
	return text, true, nil
}

// SaveCardText implements Repository.
func (s *SQLStore) SaveCardText(ctx context.Context, campaignID, characterID, text string) error {
	row := s.db.QueryRowContext(ctx,
		`SELECT name FROM characters WHERE id = $1 AND campaign_id = $2`, characterID, campaignID)
	var name string
	if err := row.Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load character for card save: %w", err)
	}

	nameNorm := NormalizeName(name)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin card save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM character_cards WHERE campaign_id = $1 AND name_norm = $2`,
		campaignID, nameNorm); err != nil {
		return fmt.Errorf("failed to replace card text: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO character_cards (campaign_id, character_id, name_norm, card_text)
		 VALUES ($1, $2, $3, $4)`,
		campaignID, characterID, nameNorm, text); err != nil {
		return fmt.Errorf("failed to insert card text: %w", err)
	}
	return tx.Commit()
}

// EnsureCharacter implements Repository.
func (s *SQLStore) EnsureCharacter(ctx context.Context, campaignID, name string) (*types.Character, error) {
	nameNorm := NormalizeName(name)
	row := s.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, name, level FROM characters
		WHERE campaign_id = $1 AND name_norm = $2
		ORDER BY id LIMIT 1`, campaignID, nameNorm)

	var c types.Character
	err := row.Scan(&c.ID, &c.CampaignID, &c.Name, &c.Level)
	if err == nil {
		aliases, aerr := s.characterAliases(ctx, c.ID)
		if aerr != nil {
			return nil, aerr
		}
		c.Aliases = aliases
		return &c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up character: %w", err)
	}

	created := types.Character{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		Name:       name,
		Level:      types.DefaultCharacterLevel,
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO characters (id, campaign_id, name, name_norm, level)
		 VALUES ($1, $2, $3, $4, $5)`,
		created.ID, created.CampaignID, created.Name, nameNorm, created.Level); err != nil {
		return nil, fmt.Errorf("failed to create character: %w", err)
	}
	return &created, nil
}
