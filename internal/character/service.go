package character

import (
	"context"
	"fmt"

	"campaign-scribe/internal/logging"
	"campaign-scribe/internal/storage"
	"campaign-scribe/pkg/types"
)

// Service runs the full card flow: extract cards from raw text, merge each
// with whatever is already stored for that name, ensure a character record
// exists and persist the merged card as text.
type Service struct {
	extractor *Extractor
	repo      storage.Repository
	logger    logging.Logger
}

// NewService creates a card service.
func NewService(extractor *Extractor, repo storage.Repository, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Service{extractor: extractor, repo: repo, logger: logger}
}

// ExtractAndStore extracts character cards from text within a campaign and
// persists the merged result per character. Returns the merged cards in
// extraction order. A card whose stored text fails to parse is treated as
// absent rather than blocking the update.
func (s *Service) ExtractAndStore(ctx context.Context, campaignID, text string) ([]types.CharacterCard, error) {
	cards, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	merged := make([]types.CharacterCard, 0, len(cards))
	for _, card := range cards {
		out, err := s.storeCard(ctx, campaignID, card)
		if err != nil {
			return nil, err
		}
		merged = append(merged, out)
	}
	return merged, nil
}

func (s *Service) storeCard(ctx context.Context, campaignID string, card types.CharacterCard) (types.CharacterCard, error) {
	existingText, found, err := s.repo.StoredCardText(ctx, campaignID, card.Name)
	if err != nil {
		return types.CharacterCard{}, fmt.Errorf("failed to load stored card for %q: %w", card.Name, err)
	}

	out := card
	if found {
		if existing, ok := ParseCardText(existingText); ok {
			out = MergeCards(existing, card)
		} else {
			s.logger.Warn("stored card text did not parse, replacing", "character", card.Name)
		}
	}

	record, err := s.repo.EnsureCharacter(ctx, campaignID, out.Name)
	if err != nil {
		return types.CharacterCard{}, fmt.Errorf("failed to ensure character %q: %w", out.Name, err)
	}
	if err := s.repo.SaveCardText(ctx, campaignID, record.ID, FormatCardText(out)); err != nil {
		return types.CharacterCard{}, fmt.Errorf("failed to save card for %q: %w", out.Name, err)
	}

	s.logger.Debug("card stored", "character", out.Name, "merged", found)
	return out, nil
}
