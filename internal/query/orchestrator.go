package query

import (
	"context"
	"fmt"
	"strings"

	"campaign-scribe/internal/config"
	"campaign-scribe/internal/logging"
	"campaign-scribe/internal/storage"
	"campaign-scribe/pkg/types"
)

const helpMessage = `I can answer questions about the campaign. Try:
  Items Elaria            (current inventory)
  Elaria INT              (one stat)
  What's Zog's CON        (one stat)
  Stats for Elaria        (all six stats)
  What happened at the Ruins
  Session 2 summary       (or: S2 summary)
  Last session`

// Orchestrator dispatches a parsed utterance to the right repository reads
// and wraps the outcome in a typed result. A referent that cannot be pinned
// down yields a clarification result, never an arbitrary pick.
type Orchestrator struct {
	repo       storage.Repository
	resolver   *Resolver
	eventLimit int
	logger     logging.Logger
}

// NewOrchestrator creates an orchestrator with the given query tuning.
func NewOrchestrator(repo storage.Repository, cfg config.QueryConfig, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Orchestrator{
		repo:       repo,
		resolver:   NewResolver(repo, cfg.MaxCandidates),
		eventLimit: cfg.EventLimit,
		logger:     logger.WithComponent("query.orchestrator"),
	}
}

// Run answers one utterance within a campaign. Errors are repository or
// context failures only; every recognizable-but-unanswerable utterance comes
// back as a typed clarification or help result.
func (o *Orchestrator) Run(ctx context.Context, campaignID, utterance string) (types.QueryResult, error) {
	intent := ParseIntent(utterance)
	if intent.Kind == IntentFreeform {
		if shortcut, ok := ParseShortcut(utterance); ok {
			intent = shortcut
		}
	}
	o.logger.DebugContext(ctx, "utterance parsed", "intent", string(intent.Kind), "name", intent.Name)

	switch intent.Kind {
	case IntentInventory:
		return o.runInventory(ctx, campaignID, intent)
	case IntentStats:
		return o.runStats(ctx, campaignID, intent)
	case IntentLocationEvents:
		return o.runLocationEvents(ctx, campaignID, intent)
	case IntentSessionSummary:
		return o.runSessionSummary(ctx, campaignID, intent)
	default:
		return types.QueryResult{
			Kind: types.ResultHelp,
			Help: &types.HelpResult{Message: helpMessage},
		}, nil
	}
}

func (o *Orchestrator) runInventory(ctx context.Context, campaignID string, intent Intent) (types.QueryResult, error) {
	character, result, err := o.requireCharacter(ctx, campaignID, intent.Name)
	if err != nil || character == nil {
		return result, err
	}

	items, err := o.repo.CurrentPossessions(ctx, character.ID)
	if err != nil {
		return types.QueryResult{}, err
	}
	return types.QueryResult{
		Kind:      types.ResultInventory,
		Inventory: &types.InventoryResult{Character: *character, Items: items},
	}, nil
}

func (o *Orchestrator) runStats(ctx context.Context, campaignID string, intent Intent) (types.QueryResult, error) {
	var requested types.StatType
	if intent.RawStat != "" {
		st, ok := types.ParseStatType(intent.RawStat)
		if !ok {
			return clarification(
				fmt.Sprintf("I don't know the stat %q. Known stats: %s.", intent.RawStat, statCodeList()),
				intent.RawStat, nil), nil
		}
		requested = st
	}

	character, result, err := o.requireCharacter(ctx, campaignID, intent.Name)
	if err != nil || character == nil {
		return result, err
	}

	stats, err := o.repo.LatestStatSnapshots(ctx, character.ID)
	if err != nil {
		return types.QueryResult{}, err
	}
	return types.QueryResult{
		Kind:  types.ResultStats,
		Stats: &types.StatsResult{Character: *character, Requested: requested, Stats: stats},
	}, nil
}

func (o *Orchestrator) runLocationEvents(ctx context.Context, campaignID string, intent Intent) (types.QueryResult, error) {
	location, candidates, err := o.resolver.ResolveLocation(ctx, campaignID, intent.Name)
	if err != nil {
		return types.QueryResult{}, err
	}
	if location == nil {
		if len(candidates) > 0 {
			return clarification(
				fmt.Sprintf("Several locations match %q. Which one?", intent.Name),
				intent.Name, candidates), nil
		}
		return clarification(
			fmt.Sprintf("I don't know a location called %q.", intent.Name),
			intent.Name, nil), nil
	}

	session, err := o.resolver.ResolveSession(ctx, campaignID, intent.SessionNumber, intent.LastSession)
	if err != nil {
		return types.QueryResult{}, err
	}
	if session == nil && intent.SessionNumber != nil {
		return clarification(
			fmt.Sprintf("There is no session %d in this campaign.", *intent.SessionNumber),
			fmt.Sprintf("session %d", *intent.SessionNumber), nil), nil
	}
	var sessionID *string
	if session != nil {
		sessionID = &session.ID
	}

	events, err := o.repo.EventsByLocation(ctx, campaignID, location.ID, sessionID, o.eventLimit)
	if err != nil {
		return types.QueryResult{}, err
	}
	return types.QueryResult{
		Kind: types.ResultLocationEvents,
		LocationEvents: &types.LocationEventsResult{
			Location: *location,
			Session:  session,
			Events:   events,
		},
	}, nil
}

func (o *Orchestrator) runSessionSummary(ctx context.Context, campaignID string, intent Intent) (types.QueryResult, error) {
	number := intent.SessionNumber
	last := intent.LastSession
	if number == nil && !last {
		last = true
	}

	session, err := o.resolver.ResolveSession(ctx, campaignID, number, last)
	if err != nil {
		return types.QueryResult{}, err
	}
	if session == nil {
		if number != nil {
			return clarification(
				fmt.Sprintf("There is no session %d in this campaign.", *number),
				fmt.Sprintf("session %d", *number), nil), nil
		}
		return clarification("This campaign has no sessions yet.", "last session", nil), nil
	}

	result := &types.SessionSummaryResult{Session: *session, Summary: session.Summary}
	if result.Summary == "" {
		events, err := o.repo.EventsBySession(ctx, campaignID, session.ID)
		if err != nil {
			return types.QueryResult{}, err
		}
		result.Events = events
	}
	return types.QueryResult{Kind: types.ResultSessionSummary, SessionSummary: result}, nil
}

// requireCharacter resolves a character or builds the clarification result.
// character == nil with a nil error means the returned result is final.
func (o *Orchestrator) requireCharacter(ctx context.Context, campaignID, raw string) (*types.Character, types.QueryResult, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, clarification("Which character do you mean?", raw, nil), nil
	}
	character, candidates, err := o.resolver.ResolveCharacter(ctx, campaignID, raw)
	if err != nil {
		return nil, types.QueryResult{}, err
	}
	if character != nil {
		return character, types.QueryResult{}, nil
	}
	if len(candidates) > 0 {
		return nil, clarification(
			fmt.Sprintf("Several characters match %q. Which one?", raw),
			raw, candidates), nil
	}
	return nil, clarification(
		fmt.Sprintf("I don't know a character called %q.", raw),
		raw, nil), nil
}

func clarification(reason, query string, candidates []types.Candidate) types.QueryResult {
	return types.QueryResult{
		Kind: types.ResultClarification,
		Clarification: &types.ClarificationResult{
			Reason:     reason,
			Query:      query,
			Candidates: candidates,
		},
	}
}

func statCodeList() string {
	codes := make([]string, 0, len(types.AllStatTypes))
	for _, st := range types.AllStatTypes {
		codes = append(codes, string(st))
	}
	return strings.Join(codes, ", ")
}
