package quantify

import (
	"context"

	"github.com/kudoshq/kudos/internal/scoring"
)

// RebuildComposites re-verifies every cached composite score in a period's
// window against a fresh computation and rewrites the ones that drifted.
// Returns the number of corrected praise items. Safe to run repeatedly.
func (s *Service) RebuildComposites(ctx context.Context, periodID int64) (int, error) {
	p, err := s.periods.Find(ctx, periodID)
	if err != nil {
		return 0, err
	}
	w, err := s.periods.Window(ctx, p)
	if err != nil {
		return 0, err
	}
	items, err := s.praise.ListByWindow(ctx, w)
	if err != nil {
		return 0, err
	}

	resolver := s.resolver()
	fixed := 0
	for _, item := range items {
		composite, err := scoring.CompositeScore(ctx, item.Quantifications, resolver)
		if err != nil {
			return fixed, err
		}
		if composite == item.ScoreRealized {
			continue
		}
		if err := s.store.UpdateComposite(ctx, item.ID, composite); err != nil {
			return fixed, err
		}
		fixed++
	}
	if fixed > 0 {
		s.invalidate(ctx, p.ID)
	}
	return fixed, nil
}
