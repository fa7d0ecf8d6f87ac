package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"campaign-scribe/pkg/types"
)

// MemoryStore is an in-memory Repository used by tests, the REPL and seed
// data. It applies the same ordering and recency rules as the SQL store.
type MemoryStore struct {
	mu          sync.RWMutex
	characters  []types.Character
	locations   []types.Location
	sessions    []types.Session
	events      []types.Event
	possessions []types.Possession
	snapshots   []types.StatSnapshot
	cardTexts   map[string]string // campaignID + "\x00" + normalized name
	cardOwner   map[string]string // same key -> characterID
}

// NewMemoryStore creates an empty in-memory repository.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cardTexts: make(map[string]string),
		cardOwner: make(map[string]string),
	}
}

// AddCharacter inserts a character record.
func (m *MemoryStore) AddCharacter(c types.Character) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.characters = append(m.characters, c)
}

// AddLocation inserts a location record.
func (m *MemoryStore) AddLocation(l types.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = append(m.locations, l)
}

// AddSession inserts a session record.
func (m *MemoryStore) AddSession(s types.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, s)
}

// AddEvent inserts an event record.
func (m *MemoryStore) AddEvent(e types.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// AddPossession inserts a possession record.
func (m *MemoryStore) AddPossession(p types.Possession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.possessions = append(m.possessions, p)
}

// AddStatSnapshot inserts a stat snapshot record.
func (m *MemoryStore) AddStatSnapshot(s types.StatSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, s)
}

// FindCharactersExact implements Repository.
func (m *MemoryStore) FindCharactersExact(ctx context.Context, campaignID, name string) ([]types.Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query := NormalizeName(name)
	var out []types.Character
	seen := make(map[string]bool)
	for _, c := range m.characters {
		if c.CampaignID != campaignID || seen[c.ID] {
			continue
		}
		if NormalizeName(c.Name) == query || aliasMatches(c.Aliases, query, true) {
			out = append(out, c)
			seen[c.ID] = true
		}
	}
	return out, nil
}

// FindCharactersSubstring implements Repository.
func (m *MemoryStore) FindCharactersSubstring(ctx context.Context, campaignID, name string) ([]types.Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query := NormalizeName(name)
	var out []types.Character
	seen := make(map[string]bool)
	for _, c := range m.characters {
		if c.CampaignID != campaignID || seen[c.ID] {
			continue
		}
		if NameContains(NormalizeName(c.Name), query) || aliasMatches(c.Aliases, query, false) {
			out = append(out, c)
			seen[c.ID] = true
		}
	}
	return out, nil
}

func aliasMatches(aliases []string, queryNorm string, exact bool) bool {
	for _, a := range aliases {
		norm := NormalizeName(a)
		if exact && norm == queryNorm {
			return true
		}
		if !exact && NameContains(norm, queryNorm) {
			return true
		}
	}
	return false
}

// FindLocationsExact implements Repository.
func (m *MemoryStore) FindLocationsExact(ctx context.Context, campaignID, name string) ([]types.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query := NormalizeName(name)
	var out []types.Location
	for _, l := range m.locations {
		if l.CampaignID == campaignID && NormalizeName(l.Name) == query {
			out = append(out, l)
		}
	}
	return out, nil
}

// FindLocationsSubstring implements Repository.
func (m *MemoryStore) FindLocationsSubstring(ctx context.Context, campaignID, name string) ([]types.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query := NormalizeName(name)
	var out []types.Location
	for _, l := range m.locations {
		if l.CampaignID == campaignID && NameContains(NormalizeName(l.Name), query) {
			out = append(out, l)
		}
	}
	return out, nil
}

// SessionByNumber implements Repository.
func (m *MemoryStore) SessionByNumber(ctx context.Context, campaignID string, number int) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.sessions {
		s := m.sessions[i]
		if s.CampaignID == campaignID && s.Number == number {
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

// LatestSession implements Repository.
func (m *MemoryStore) LatestSession(ctx context.Context, campaignID string) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *types.Session
	for i := range m.sessions {
		s := m.sessions[i]
		if s.CampaignID != campaignID {
			continue
		}
		if latest == nil || s.Date.After(latest.Date) {
			copyS := s
			latest = &copyS
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

// CurrentPossessions implements Repository.
func (m *MemoryStore) CurrentPossessions(ctx context.Context, characterID string) ([]types.Possession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.Possession
	for _, p := range m.possessions {
		if p.CharacterID == characterID && p.EndAt == nil {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out, nil
}

// LatestStatSnapshots implements Repository. Recency by effective time, never
// insertion order.
func (m *MemoryStore) LatestStatSnapshots(ctx context.Context, characterID string) (map[types.StatType]*types.StatSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[types.StatType]*types.StatSnapshot)
	for i := range m.snapshots {
		s := m.snapshots[i]
		if s.CharacterID != characterID || !s.Stat.IsValid() {
			continue
		}
		current, ok := out[s.Stat]
		if !ok || s.EffectiveAt.After(current.EffectiveAt) {
			copyS := s
			out[s.Stat] = &copyS
		}
	}
	return out, nil
}

// EventsByLocation implements Repository.
func (m *MemoryStore) EventsByLocation(ctx context.Context, campaignID, locationID string, sessionID *string, limit int) ([]types.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.Event
	for _, e := range m.events {
		if e.CampaignID != campaignID || e.LocationID == nil || *e.LocationID != locationID {
			continue
		}
		if sessionID != nil && (e.SessionID == nil || *e.SessionID != *sessionID) {
			continue
		}
		out = append(out, capSnippets(e))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// EventsBySession implements Repository.
func (m *MemoryStore) EventsBySession(ctx context.Context, campaignID, sessionID string) ([]types.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.Event
	for _, e := range m.events {
		if e.CampaignID != campaignID || e.SessionID == nil || *e.SessionID != sessionID {
			continue
		}
		out = append(out, capSnippets(e))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

// capSnippets keeps at most one illustrative snippet per event.
func capSnippets(e types.Event) types.Event {
	if len(e.Snippets) > 1 {
		e.Snippets = e.Snippets[:1]
	}
	return e
}

// StoredCardText implements Repository.
func (m *MemoryStore) StoredCardText(ctx context.Context, campaignID, name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	text, ok := m.cardTexts[cardKey(campaignID, name)]
	return text, ok, nil
}

// SaveCardText implements Repository.
func (m *MemoryStore) SaveCardText(ctx context.Context, campaignID, characterID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.characters {
		if c.ID == characterID {
			key := cardKey(campaignID, c.Name)
			m.cardTexts[key] = text
			m.cardOwner[key] = characterID
			return nil
		}
	}
	return ErrNotFound
}

// EnsureCharacter implements Repository.
func (m *MemoryStore) EnsureCharacter(ctx context.Context, campaignID, name string) (*types.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query := NormalizeName(name)
	for i := range m.characters {
		c := m.characters[i]
		if c.CampaignID == campaignID && NormalizeName(c.Name) == query {
			return &c, nil
		}
	}
	created := types.Character{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		Name:       name,
		Level:      types.DefaultCharacterLevel,
	}
	m.characters = append(m.characters, created)
	return &created, nil
}

func cardKey(campaignID, name string) string {
	return campaignID + "\x00" + NormalizeName(name)
}
