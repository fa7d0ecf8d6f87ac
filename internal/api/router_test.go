package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-scribe/internal/character"
	"campaign-scribe/internal/config"
	"campaign-scribe/internal/llm"
	"campaign-scribe/internal/logging"
	"campaign-scribe/internal/query"
	"campaign-scribe/internal/storage"
	"campaign-scribe/internal/summarize"
	"campaign-scribe/pkg/types"
)

type testEnv struct {
	server *httptest.Server
	mock   *llm.MockClient
	store  *storage.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	logger := logging.NewNoOpLogger()

	mock := llm.NewMockClient()
	gateway := llm.NewGateway(mock, llm.NewMemoryCache(cfg.Cache), cfg.LLM, logger)
	store := storage.NewMemoryStore()

	deps := Deps{
		Pipeline:     summarize.NewPipeline(gateway, cfg.Summarize, logger),
		Cards:        character.NewService(character.NewExtractor(gateway, cfg.Extract.MaxCharacters, logger), store, logger),
		Orchestrator: query.NewOrchestrator(store, cfg.Query, logger),
		Repo:         store,
		Gateway:      gateway,
		Logger:       logger,
	}

	server := httptest.NewServer(NewRouter(cfg, deps).Handler())
	t.Cleanup(server.Close)
	return &testEnv{server: server, mock: mock, store: store}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, into))
}

func TestSummarizeSessionEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.mock.Script("Transcript:", "- The party set out from Ironhold.")

	resp := postJSON(t, env.server.URL+"/api/v1/sessions/summarize", map[string]string{
		"transcript": "The party set out from Ironhold at dawn and argued about supplies.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body summarizeResponse
	decodeData(t, resp, &body)
	assert.NotEmpty(t, body.Recap)
	assert.False(t, body.Partial)
	assert.Zero(t, body.ChunkCount)
}

func TestSummarizeSessionRejectsEmptyTranscript(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.server.URL+"/api/v1/sessions/summarize", map[string]string{"transcript": "  "})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExtractCharactersEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.mock.Script("character sheet keeper", `[{"name": "Elaria", "role": "Ranger"}]`)

	resp := postJSON(t, env.server.URL+"/api/v1/characters/extract", map[string]string{
		"campaign_id": "camp-1",
		"transcript":  "Elaria scouted ahead.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body extractResponse
	decodeData(t, resp, &body)
	require.Len(t, body.Characters, 1)
	assert.Equal(t, "Elaria", body.Characters[0].Name)

	// The card was persisted and the character record created.
	_, ok, err := env.store.StoredCardText(context.Background(), "camp-1", "Elaria")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExtractCharactersUnparsableOutputIsEmptyResult(t *testing.T) {
	env := newTestEnv(t)
	env.mock.Script("character sheet keeper", "I found no one worth mentioning.")

	resp := postJSON(t, env.server.URL+"/api/v1/characters/extract", map[string]string{
		"campaign_id": "camp-1",
		"transcript":  "Nothing happened.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body extractResponse
	decodeData(t, resp, &body)
	assert.Empty(t, body.Characters)
}

func TestQueryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.store.AddCharacter(types.Character{ID: "ch-1", CampaignID: "camp-1", Name: "Elaria", Level: 4})
	env.store.AddPossession(types.Possession{ID: "p-1", CharacterID: "ch-1", ItemID: "it-1", ItemName: "Moonblade", StartAt: time.Date(2025, 1, 10, 19, 0, 0, 0, time.UTC)})

	resp := postJSON(t, env.server.URL+"/api/v1/query", map[string]string{
		"campaign_id": "camp-1",
		"utterance":   "Items Elaria",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body queryResponse
	decodeData(t, resp, &body)
	assert.Equal(t, types.ResultInventory, body.Result.Kind)
	assert.Contains(t, body.Answer, "Moonblade")
}

func TestSessionSummaryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.store.AddSession(types.Session{
		ID: "se-2", CampaignID: "camp-1", Number: 2,
		Date:    time.Date(2025, 1, 24, 19, 0, 0, 0, time.UTC),
		Summary: "- The party reached the **Ruins**.",
	})

	resp, err := http.Get(env.server.URL + "/api/v1/campaigns/camp-1/sessions/2/summary")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session types.Session
	decodeData(t, resp, &session)
	assert.Equal(t, 2, session.Number)

	htmlResp, err := http.Get(env.server.URL + "/api/v1/campaigns/camp-1/sessions/2/summary?format=html")
	require.NoError(t, err)
	defer htmlResp.Body.Close()
	require.Equal(t, http.StatusOK, htmlResp.StatusCode)
	assert.Contains(t, htmlResp.Header.Get("Content-Type"), "text/html")

	var buf bytes.Buffer
	_, err = buf.ReadFrom(htmlResp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<strong>Ruins</strong>")
}

func TestSessionSummaryNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/v1/campaigns/camp-1/sessions/9/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
