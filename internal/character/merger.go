package character

import (
	"strings"

	"campaign-scribe/pkg/types"
)

// MergeCards folds a newly extracted card into the previously stored card for
// the same character. List fields become a normalized, de-duplicated union;
// scalar fields take the incoming value when non-empty and keep the existing
// one otherwise; the name keeps the existing spelling when set. The merge is
// idempotent: applying the same incoming card twice changes nothing.
func MergeCards(existing, incoming types.CharacterCard) types.CharacterCard {
	merged := types.CharacterCard{
		Name:         preferExisting(existing.Name, incoming.Name),
		Role:         preferIncoming(existing.Role, incoming.Role),
		Affiliation:  preferIncoming(existing.Affiliation, incoming.Affiliation),
		Traits:       unionLists(existing.Traits, incoming.Traits),
		Goals:        unionLists(existing.Goals, incoming.Goals),
		LastLocation: preferIncoming(existing.LastLocation, incoming.LastLocation),
		Status:       preferIncoming(existing.Status, incoming.Status),
		Notes:        preferIncoming(existing.Notes, incoming.Notes),
	}
	return merged
}

// preferExisting keeps the stored value unless it is empty.
func preferExisting(existing, incoming string) string {
	if strings.TrimSpace(existing) != "" {
		return strings.TrimSpace(existing)
	}
	return strings.TrimSpace(incoming)
}

// preferIncoming takes the new value unless it is empty.
func preferIncoming(existing, incoming string) string {
	if strings.TrimSpace(incoming) != "" {
		return strings.TrimSpace(incoming)
	}
	return strings.TrimSpace(existing)
}

// unionLists merges two lists preserving first-seen order, de-duplicating by
// normalized form. History is never discarded: existing entries always stay.
func unionLists(existing, incoming []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{existing, incoming} {
		for _, item := range list {
			item = collapseSpaces(item)
			if item == "" {
				continue
			}
			key := strings.ToLower(item)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
		}
	}
	return out
}

// normalizeList cleans one list without merging.
func normalizeList(items []string) []string {
	return unionLists(nil, items)
}

// collapseSpaces trims and collapses internal whitespace runs to one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
