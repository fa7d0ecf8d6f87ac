package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntentInventory(t *testing.T) {
	for _, utterance := range []string{
		"What items does Elaria have?",
		"what does Zog the Mighty carry",
		"inventory of Elaria",
		"show the inventory for Zog",
		"Elaria's items",
		"Zog's gear?",
	} {
		intent := ParseIntent(utterance)
		assert.Equal(t, IntentInventory, intent.Kind, utterance)
		assert.NotEmpty(t, intent.Name, utterance)
	}
}

func TestParseIntentStatsSpecific(t *testing.T) {
	cases := []struct {
		utterance string
		name      string
		stat      string
	}{
		{"What's Zog's CON", "Zog", "CON"},
		{"what is Elaria's intelligence?", "Elaria", "intelligence"},
		{"Elaria's INT", "Elaria", "INT"},
		{"strength of Zog the Mighty", "Zog the Mighty", "strength"},
	}
	for _, tc := range cases {
		intent := ParseIntent(tc.utterance)
		require.Equal(t, IntentStats, intent.Kind, tc.utterance)
		assert.Equal(t, tc.name, intent.Name, tc.utterance)
		assert.Equal(t, tc.stat, intent.RawStat, tc.utterance)
	}
}

func TestParseIntentStatsAll(t *testing.T) {
	for _, utterance := range []string{"stats for Elaria", "Zog's stats"} {
		intent := ParseIntent(utterance)
		require.Equal(t, IntentStats, intent.Kind, utterance)
		assert.Empty(t, intent.RawStat, utterance)
	}
}

func TestParseIntentLocationEvents(t *testing.T) {
	intent := ParseIntent("What happened at the Ruins?")
	require.Equal(t, IntentLocationEvents, intent.Kind)
	assert.Equal(t, "Ruins", intent.Name)
	assert.Nil(t, intent.SessionNumber)

	intent = ParseIntent("what happened at Ironhold in session 2")
	require.Equal(t, IntentLocationEvents, intent.Kind)
	assert.Equal(t, "Ironhold", intent.Name)
	require.NotNil(t, intent.SessionNumber)
	assert.Equal(t, 2, *intent.SessionNumber)

	intent = ParseIntent("events at the Sunken Temple")
	require.Equal(t, IntentLocationEvents, intent.Kind)
	assert.Equal(t, "Sunken Temple", intent.Name)
}

func TestParseIntentSessionSummary(t *testing.T) {
	intent := ParseIntent("what happened in session 3")
	require.Equal(t, IntentSessionSummary, intent.Kind)
	require.NotNil(t, intent.SessionNumber)
	assert.Equal(t, 3, *intent.SessionNumber)

	intent = ParseIntent("session 2 summary")
	require.Equal(t, IntentSessionSummary, intent.Kind)
	require.NotNil(t, intent.SessionNumber)
	assert.Equal(t, 2, *intent.SessionNumber)

	intent = ParseIntent("last session")
	require.Equal(t, IntentSessionSummary, intent.Kind)
	assert.True(t, intent.LastSession)
	assert.Nil(t, intent.SessionNumber)

	intent = ParseIntent("what happened in last session?")
	require.Equal(t, IntentSessionSummary, intent.Kind)
	assert.True(t, intent.LastSession)
}

func TestParseIntentUnmatchedFallsToFreeform(t *testing.T) {
	for _, utterance := range []string{
		"tell me a story",
		"who is the tavern keeper's cousin twice removed",
		"",
	} {
		assert.Equal(t, IntentFreeform, ParseIntent(utterance).Kind, utterance)
	}
}

func TestParseShortcutItems(t *testing.T) {
	intent, ok := ParseShortcut("Items Elaria")
	require.True(t, ok)
	assert.Equal(t, IntentInventory, intent.Kind)
	assert.Equal(t, "Elaria", intent.Name)

	intent, ok = ParseShortcut("inv Zog the Mighty")
	require.True(t, ok)
	assert.Equal(t, "Zog the Mighty", intent.Name)
}

func TestParseShortcutStat(t *testing.T) {
	intent, ok := ParseShortcut("Elaria INT")
	require.True(t, ok)
	assert.Equal(t, IntentStats, intent.Kind)
	assert.Equal(t, "Elaria", intent.Name)
	assert.Equal(t, "INT", intent.RawStat)

	intent, ok = ParseShortcut("Zog the Mighty wis")
	require.True(t, ok)
	assert.Equal(t, "Zog the Mighty", intent.Name)
	assert.Equal(t, "wis", intent.RawStat)
}

func TestParseShortcutSession(t *testing.T) {
	intent, ok := ParseShortcut("S2 summary")
	require.True(t, ok)
	assert.Equal(t, IntentSessionSummary, intent.Kind)
	require.NotNil(t, intent.SessionNumber)
	assert.Equal(t, 2, *intent.SessionNumber)

	intent, ok = ParseShortcut("s14")
	require.True(t, ok)
	require.NotNil(t, intent.SessionNumber)
	assert.Equal(t, 14, *intent.SessionNumber)
}

func TestParseShortcutRejectsPlainText(t *testing.T) {
	_, ok := ParseShortcut("tell me a story")
	assert.False(t, ok)

	_, ok = ParseShortcut("INT")
	assert.False(t, ok)
}
