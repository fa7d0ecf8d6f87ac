package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-scribe/internal/config"
	"campaign-scribe/internal/logging"
	"campaign-scribe/internal/storage"
	"campaign-scribe/pkg/types"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 19, 0, 0, 0, time.UTC)
}

func newTestOrchestrator(store *storage.MemoryStore) *Orchestrator {
	cfg := config.QueryConfig{EventLimit: 7, MaxCandidates: 5}
	return NewOrchestrator(store, cfg, logging.NewNoOpLogger())
}

func orchestratorStore() *storage.MemoryStore {
	store := storage.NewMemoryStore()
	store.AddCharacter(types.Character{ID: "ch-1", CampaignID: "camp-1", Name: "Elaria", Level: 4})
	store.AddCharacter(types.Character{ID: "ch-2", CampaignID: "camp-1", Name: "Elarian", Level: 2})
	store.AddLocation(types.Location{ID: "loc-1", CampaignID: "camp-1", Name: "Ruins"})
	store.AddSession(types.Session{ID: "se-1", CampaignID: "camp-1", Number: 1, Date: day(2025, 1, 10)})
	store.AddSession(types.Session{ID: "se-2", CampaignID: "camp-1", Number: 2, Date: day(2025, 1, 24), Summary: "The party reached the Ruins."})
	return store
}

func TestRunInventoryScenario(t *testing.T) {
	store := orchestratorStore()
	store.AddPossession(types.Possession{ID: "p-1", CharacterID: "ch-1", ItemID: "it-1", ItemName: "Moonblade", StartAt: day(2025, 1, 10)})
	store.AddPossession(types.Possession{ID: "p-2", CharacterID: "ch-1", ItemID: "it-2", ItemName: "Rope", StartAt: day(2025, 1, 24)})

	result, err := newTestOrchestrator(store).Run(context.Background(), "camp-1", "Items Elaria")
	require.NoError(t, err)
	require.Equal(t, types.ResultInventory, result.Kind)
	assert.Equal(t, "Elaria", result.Inventory.Character.Name)
	require.Len(t, result.Inventory.Items, 2)
	assert.Equal(t, "Moonblade", result.Inventory.Items[0].ItemName)
}

func TestRunStatExactBeatsSubstringScenario(t *testing.T) {
	store := orchestratorStore()
	store.AddStatSnapshot(types.StatSnapshot{ID: "s-1", CharacterID: "ch-1", Stat: types.StatINT, Value: 16, EffectiveAt: day(2025, 1, 10)})

	// Both "Elaria" and "Elarian" exist; the exact name resolves without
	// clarification.
	result, err := newTestOrchestrator(store).Run(context.Background(), "camp-1", "Elaria INT")
	require.NoError(t, err)
	require.Equal(t, types.ResultStats, result.Kind)
	assert.Equal(t, "ch-1", result.Stats.Character.ID)
	assert.Equal(t, types.StatINT, result.Stats.Requested)
	require.NotNil(t, result.Stats.Stats[types.StatINT])
	assert.Equal(t, 16, result.Stats.Stats[types.StatINT].Value)
}

func TestRunStatUnknownCharacterScenario(t *testing.T) {
	result, err := newTestOrchestrator(orchestratorStore()).Run(context.Background(), "camp-1", "What's Zog's CON")
	require.NoError(t, err)
	require.Equal(t, types.ResultClarification, result.Kind)
	assert.Contains(t, result.Clarification.Reason, "Zog")
	assert.Empty(t, result.Clarification.Candidates)
}

func TestRunStatAmbiguousCharacter(t *testing.T) {
	result, err := newTestOrchestrator(orchestratorStore()).Run(context.Background(), "camp-1", "Elar INT")
	require.NoError(t, err)
	require.Equal(t, types.ResultClarification, result.Kind)
	require.Len(t, result.Clarification.Candidates, 2)
	assert.Equal(t, "Elarian", result.Clarification.Candidates[0].Name)
}

func TestRunLocationEvents(t *testing.T) {
	store := orchestratorStore()
	sess := "se-1"
	loc := "loc-1"
	store.AddEvent(types.Event{ID: "ev-1", CampaignID: "camp-1", Type: "combat", Summary: "Ambushed by cultists", OccurredAt: day(2025, 1, 10), SessionID: &sess, LocationID: &loc})
	store.AddEvent(types.Event{ID: "ev-2", CampaignID: "camp-1", Type: "discovery", Summary: "Found the sealed door", OccurredAt: day(2025, 1, 11), SessionID: &sess, LocationID: &loc})

	result, err := newTestOrchestrator(store).Run(context.Background(), "camp-1", "What happened at the Ruins?")
	require.NoError(t, err)
	require.Equal(t, types.ResultLocationEvents, result.Kind)
	assert.Equal(t, "Ruins", result.LocationEvents.Location.Name)
	require.Len(t, result.LocationEvents.Events, 2)
	assert.Equal(t, "Ambushed by cultists", result.LocationEvents.Events[0].Summary)
}

func TestRunLocationEventsUnknownSessionNumber(t *testing.T) {
	store := orchestratorStore()
	sess := "se-1"
	loc := "loc-1"
	store.AddEvent(types.Event{ID: "ev-1", CampaignID: "camp-1", Type: "combat", Summary: "Ambushed by cultists", OccurredAt: day(2025, 1, 10), SessionID: &sess, LocationID: &loc})

	// Naming a session that does not exist must not fall back to the
	// unfiltered event list.
	result, err := newTestOrchestrator(store).Run(context.Background(), "camp-1", "what happened at the Ruins in session 99")
	require.NoError(t, err)
	require.Equal(t, types.ResultClarification, result.Kind)
	assert.Contains(t, result.Clarification.Reason, "session 99")
}

func TestRunLocationEventsUnknownLocation(t *testing.T) {
	result, err := newTestOrchestrator(orchestratorStore()).Run(context.Background(), "camp-1", "What happened at the Moon Spire?")
	require.NoError(t, err)
	require.Equal(t, types.ResultClarification, result.Kind)
	assert.Contains(t, result.Clarification.Reason, "Moon Spire")
}

func TestRunSessionSummaryStored(t *testing.T) {
	result, err := newTestOrchestrator(orchestratorStore()).Run(context.Background(), "camp-1", "session 2 summary")
	require.NoError(t, err)
	require.Equal(t, types.ResultSessionSummary, result.Kind)
	assert.Equal(t, "The party reached the Ruins.", result.SessionSummary.Summary)
	assert.Empty(t, result.SessionSummary.Events)
}

func TestRunSessionSummaryFallsBackToEvents(t *testing.T) {
	store := orchestratorStore()
	sess := "se-1"
	store.AddEvent(types.Event{ID: "ev-1", CampaignID: "camp-1", Type: "travel", Summary: "Set out from Ironhold", OccurredAt: day(2025, 1, 10), SessionID: &sess})

	result, err := newTestOrchestrator(store).Run(context.Background(), "camp-1", "session 1 summary")
	require.NoError(t, err)
	require.Equal(t, types.ResultSessionSummary, result.Kind)
	assert.Empty(t, result.SessionSummary.Summary)
	require.Len(t, result.SessionSummary.Events, 1)
	assert.Equal(t, "Set out from Ironhold", result.SessionSummary.Events[0].Summary)
}

func TestRunLastSessionPicksMostRecentByDate(t *testing.T) {
	result, err := newTestOrchestrator(orchestratorStore()).Run(context.Background(), "camp-1", "last session")
	require.NoError(t, err)
	require.Equal(t, types.ResultSessionSummary, result.Kind)
	assert.Equal(t, 2, result.SessionSummary.Session.Number)
}

func TestRunMissingSessionNumber(t *testing.T) {
	result, err := newTestOrchestrator(orchestratorStore()).Run(context.Background(), "camp-1", "session 9 summary")
	require.NoError(t, err)
	require.Equal(t, types.ResultClarification, result.Kind)
	assert.Contains(t, result.Clarification.Reason, "session 9")
}

func TestRunFreeformYieldsHelp(t *testing.T) {
	result, err := newTestOrchestrator(orchestratorStore()).Run(context.Background(), "camp-1", "tell me a story")
	require.NoError(t, err)
	require.Equal(t, types.ResultHelp, result.Kind)
	assert.Contains(t, result.Help.Message, "Items Elaria")
}
