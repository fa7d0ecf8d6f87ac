package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-scribe/internal/config"
	"campaign-scribe/internal/logging"
	"campaign-scribe/pkg/types"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLStore(config.StorageConfig{Provider: "sqlite", DSN: ":memory:"}, logging.NewNoOpLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain", escapeLike("plain"))
	assert.Equal(t, "100!% orc", escapeLike("100% orc"))
	assert.Equal(t, "a!_b", escapeLike("a_b"))
	assert.Equal(t, "wow!!", escapeLike("wow!"))
}

func TestSQLStoreSubstringTreatsWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLStore(t)
	require.NoError(t, store.InsertCampaign(ctx, types.Campaign{ID: "camp-1", Title: "Test"}))
	require.NoError(t, store.InsertCharacter(ctx, types.Character{ID: "ch-1", CampaignID: "camp-1", Name: "100% Orc", Level: 3}))
	require.NoError(t, store.InsertCharacter(ctx, types.Character{ID: "ch-2", CampaignID: "camp-1", Name: "1000 Orcs", Level: 3}))

	// "%" in the query must match the literal character, not act as a
	// wildcard that also pulls in "1000 Orcs".
	found, err := store.FindCharactersSubstring(ctx, "camp-1", "100%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ch-1", found[0].ID)

	// Stored-name-inside-query direction, with the wildcard in the stored
	// name this time.
	found, err = store.FindCharactersSubstring(ctx, "camp-1", "the 100% orc chieftain")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ch-1", found[0].ID)
}

func TestSQLStoreLocationSubstringEscaping(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLStore(t)
	require.NoError(t, store.InsertCampaign(ctx, types.Campaign{ID: "camp-1", Title: "Test"}))
	require.NoError(t, store.InsertLocation(ctx, types.Location{ID: "loc-1", CampaignID: "camp-1", Name: "Vault_7"}))
	require.NoError(t, store.InsertLocation(ctx, types.Location{ID: "loc-2", CampaignID: "camp-1", Name: "Vaults"}))

	found, err := store.FindLocationsSubstring(ctx, "camp-1", "vault_")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "loc-1", found[0].ID)
}
