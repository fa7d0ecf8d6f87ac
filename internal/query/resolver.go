package query

import (
	"context"
	"errors"
	"sort"

	"campaign-scribe/internal/storage"
	"campaign-scribe/pkg/types"
)

// Resolver maps raw names to campaign entities. Matching is exact first and
// substring second; exactly one exact match wins even when substring matching
// would widen the field. Ambiguous outcomes carry a deterministic, capped
// candidate list instead of an arbitrary pick.
type Resolver struct {
	repo          storage.Repository
	maxCandidates int
}

// NewResolver creates a resolver. maxCandidates caps ambiguous option lists.
func NewResolver(repo storage.Repository, maxCandidates int) *Resolver {
	if maxCandidates < 1 {
		maxCandidates = 5
	}
	return &Resolver{repo: repo, maxCandidates: maxCandidates}
}

// ResolveCharacter returns exactly one character, or a candidate list when
// the name is ambiguous. one == nil with no candidates means no match.
func (r *Resolver) ResolveCharacter(ctx context.Context, campaignID, raw string) (one *types.Character, candidates []types.Candidate, err error) {
	exact, err := r.repo.FindCharactersExact(ctx, campaignID, raw)
	if err != nil {
		return nil, nil, err
	}
	if outcome, done := pickCharacter(exact); done {
		return outcome, nil, nil
	}
	if len(exact) > 1 {
		return nil, r.characterCandidates(exact), nil
	}

	loose, err := r.repo.FindCharactersSubstring(ctx, campaignID, raw)
	if err != nil {
		return nil, nil, err
	}
	if outcome, done := pickCharacter(loose); done {
		return outcome, nil, nil
	}
	return nil, r.characterCandidates(loose), nil
}

// pickCharacter handles the zero-vs-one cases; done is false for many.
func pickCharacter(matches []types.Character) (*types.Character, bool) {
	switch len(matches) {
	case 0:
		return nil, false
	case 1:
		c := matches[0]
		return &c, true
	default:
		return nil, false
	}
}

func (r *Resolver) characterCandidates(matches []types.Character) []types.Candidate {
	if len(matches) == 0 {
		return nil
	}
	out := make([]types.Candidate, 0, len(matches))
	for _, c := range matches {
		out = append(out, types.Candidate{Kind: types.CandidateCharacter, ID: c.ID, Name: c.Name})
	}
	return r.orderAndCap(out)
}

// ResolveLocation mirrors ResolveCharacter for locations.
func (r *Resolver) ResolveLocation(ctx context.Context, campaignID, raw string) (one *types.Location, candidates []types.Candidate, err error) {
	exact, err := r.repo.FindLocationsExact(ctx, campaignID, raw)
	if err != nil {
		return nil, nil, err
	}
	if len(exact) == 1 {
		l := exact[0]
		return &l, nil, nil
	}
	if len(exact) > 1 {
		return nil, r.locationCandidates(exact), nil
	}

	loose, err := r.repo.FindLocationsSubstring(ctx, campaignID, raw)
	if err != nil {
		return nil, nil, err
	}
	if len(loose) == 1 {
		l := loose[0]
		return &l, nil, nil
	}
	return nil, r.locationCandidates(loose), nil
}

func (r *Resolver) locationCandidates(matches []types.Location) []types.Candidate {
	if len(matches) == 0 {
		return nil
	}
	out := make([]types.Candidate, 0, len(matches))
	for _, l := range matches {
		out = append(out, types.Candidate{Kind: types.CandidateLocation, ID: l.ID, Name: l.Name})
	}
	return r.orderAndCap(out)
}

// ResolveSession finds a session by explicit number, or the most recent by
// date when last is set. Neither given returns nil without error: an
// unspecified session is not an ambiguity.
func (r *Resolver) ResolveSession(ctx context.Context, campaignID string, number *int, last bool) (*types.Session, error) {
	switch {
	case number != nil:
		sess, err := r.repo.SessionByNumber(ctx, campaignID, *number)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return sess, err
	case last:
		sess, err := r.repo.LatestSession(ctx, campaignID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return sess, err
	default:
		return nil, nil
	}
}

// orderAndCap sorts candidates longer-name-first, then lexicographic, then by
// id, and truncates to the configured cap.
func (r *Resolver) orderAndCap(candidates []types.Candidate) []types.Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		na, nb := storage.NormalizeName(a.Name), storage.NormalizeName(b.Name)
		if len(na) != len(nb) {
			return len(na) > len(nb)
		}
		if na != nb {
			return na < nb
		}
		return a.ID < b.ID
	})
	if len(candidates) > r.maxCandidates {
		candidates = candidates[:r.maxCandidates]
	}
	return candidates
}
