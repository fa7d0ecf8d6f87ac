package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"campaign-scribe/internal/api/response"
	"campaign-scribe/internal/character"
	"campaign-scribe/internal/llm"
	"campaign-scribe/internal/logging"
	"campaign-scribe/internal/query"
	"campaign-scribe/internal/storage"
	"campaign-scribe/pkg/types"
)

type handlers struct {
	deps   Deps
	logger logging.Logger
}

// markdown renders recap bullet text as HTML for the ?format=html view.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

type summarizeRequest struct {
	Transcript string `json:"transcript"`
}

type summarizeResponse struct {
	Recap        string `json:"recap"`
	Partial      bool   `json:"partial"`
	ChunkCount   int    `json:"chunk_count"`
	FailedChunks int    `json:"failed_chunks"`
}

func (h *handlers) summarizeSession(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "Invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		response.WriteBadRequest(w, "transcript is required")
		return
	}

	result, err := h.deps.Pipeline.SummarizeSession(r.Context(), req.Transcript)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "summarization failed", "error", err.Error())
		if errors.Is(err, llm.ErrServiceUnavailable) {
			response.WriteServiceUnavailable(w, "The language model is unavailable")
			return
		}
		response.WriteInternalError(w, "Summarization failed")
		return
	}

	response.WriteSuccess(w, summarizeResponse{
		Recap:        result.Recap,
		Partial:      result.Partial,
		ChunkCount:   result.ChunkCount,
		FailedChunks: result.FailedChunks,
	})
}

type extractRequest struct {
	CampaignID string `json:"campaign_id"`
	Transcript string `json:"transcript"`
}

type extractResponse struct {
	Characters []types.CharacterCard `json:"characters"`
}

func (h *handlers) extractCharacters(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "Invalid request body", err.Error())
		return
	}
	if req.CampaignID == "" || strings.TrimSpace(req.Transcript) == "" {
		response.WriteBadRequest(w, "campaign_id and transcript are required")
		return
	}

	cards, err := h.deps.Cards.ExtractAndStore(r.Context(), req.CampaignID, req.Transcript)
	if err != nil {
		// Unparsable model output is an empty extraction, not a failure.
		if errors.Is(err, character.ErrNoParsableOutput) {
			response.WriteSuccess(w, extractResponse{Characters: []types.CharacterCard{}})
			return
		}
		h.logger.ErrorContext(r.Context(), "extraction failed", "error", err.Error())
		if errors.Is(err, llm.ErrServiceUnavailable) {
			response.WriteServiceUnavailable(w, "The language model is unavailable")
			return
		}
		response.WriteInternalError(w, "Character extraction failed")
		return
	}

	response.WriteSuccess(w, extractResponse{Characters: cards})
}

type queryRequest struct {
	CampaignID string `json:"campaign_id"`
	Utterance  string `json:"utterance"`
}

type queryResponse struct {
	Result types.QueryResult `json:"result"`
	Answer string            `json:"answer"`
}

func (h *handlers) runQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "Invalid request body", err.Error())
		return
	}
	if req.CampaignID == "" || strings.TrimSpace(req.Utterance) == "" {
		response.WriteBadRequest(w, "campaign_id and utterance are required")
		return
	}

	result, err := h.deps.Orchestrator.Run(r.Context(), req.CampaignID, req.Utterance)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "query failed", "error", err.Error())
		response.WriteInternalError(w, "Query failed")
		return
	}

	response.WriteSuccess(w, queryResponse{Result: result, Answer: query.Compose(result)})
}

func (h *handlers) sessionSummary(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		response.WriteBadRequest(w, "Session number must be an integer")
		return
	}

	session, err := h.deps.Repo.SessionByNumber(r.Context(), campaignID, number)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteNotFound(w, "Session not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "session lookup failed", "error", err.Error())
		response.WriteInternalError(w, "Session lookup failed")
		return
	}

	if r.URL.Query().Get("format") == "html" {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(session.Summary), &buf); err != nil {
			response.WriteInternalError(w, "Failed to render summary")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
		return
	}

	response.WriteSuccess(w, session)
}

type healthResponse struct {
	Status    string           `json:"status"`
	Server    string           `json:"server"`
	Checks    map[string]check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

type check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]check{}
	status := "healthy"

	if h.deps.Gateway != nil {
		if err := h.deps.Gateway.Healthy(r.Context()); err != nil {
			checks["llm"] = check{Status: "unhealthy", Message: err.Error()}
			status = "degraded"
		} else {
			checks["llm"] = check{Status: "healthy"}
		}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(healthResponse{
		Status:    status,
		Server:    "campaign-scribe",
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
