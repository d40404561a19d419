package quantify

import (
	"context"
	"fmt"

	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/scoring"
	"github.com/kudoshq/kudos/internal/shared"
	"github.com/kudoshq/kudos/internal/users"
)

// ReplaceQuantifier reassigns every quantification held by currentID inside
// the period's window to newID. Judgments the current quantifier already
// entered are discarded; the new quantifier starts from fresh stubs.
func (s *Service) ReplaceQuantifier(ctx context.Context, periodID, currentID, newID int64) (ReplacementResult, error) {
	p, err := s.periods.Find(ctx, periodID)
	if err != nil {
		return ReplacementResult{}, err
	}
	if p.Status != periods.StatusQuantify {
		return ReplacementResult{}, fmt.Errorf("quantify: period %q is %s, not QUANTIFY: %w", p.Name, p.Status, shared.ErrInvalidState)
	}
	if currentID == newID {
		return ReplacementResult{}, fmt.Errorf("quantify: replacement must differ from the current quantifier: %w", shared.ErrValidation)
	}

	if _, err := s.users.Find(ctx, currentID); err != nil {
		return ReplacementResult{}, err
	}
	newUser, err := s.users.Find(ctx, newID)
	if err != nil {
		return ReplacementResult{}, err
	}
	if !newUser.HasRole(users.RoleQuantifier) {
		return ReplacementResult{}, fmt.Errorf("quantify: user %d does not hold the quantifier role: %w", newID, shared.ErrValidation)
	}

	w, err := s.periods.Window(ctx, p)
	if err != nil {
		return ReplacementResult{}, err
	}
	currentPraise, err := s.praise.QuantifierPraiseIDs(ctx, w, currentID)
	if err != nil {
		return ReplacementResult{}, err
	}
	newPraise, err := s.praise.QuantifierPraiseIDs(ctx, w, newID)
	if err != nil {
		return ReplacementResult{}, err
	}
	if conflict := intersect(currentPraise, newPraise); len(conflict) > 0 {
		return ReplacementResult{}, fmt.Errorf("quantify: user %d is already assigned to %d praise item(s) held by user %d: %w", newID, len(conflict), currentID, shared.ErrValidation)
	}

	affected, err := s.store.ReassignQuantifier(ctx, w, currentID, newID)
	if err != nil {
		return ReplacementResult{}, err
	}

	// Discarded judgments change composites; refresh the cache per item.
	resolver := s.resolver()
	items, err := s.praise.ListByIDs(ctx, affected)
	if err != nil {
		return ReplacementResult{}, err
	}
	for i := range items {
		composite, err := scoring.CompositeScore(ctx, items[i].Quantifications, resolver)
		if err != nil {
			return ReplacementResult{}, err
		}
		if composite != items[i].ScoreRealized {
			if err := s.store.UpdateComposite(ctx, items[i].ID, composite); err != nil {
				return ReplacementResult{}, err
			}
			items[i].ScoreRealized = composite
		}
	}

	s.invalidate(ctx, p.ID)
	s.record(ctx, "quantify.replace", p.ID, fmt.Sprintf("replaced quantifier %d with %d on %d praise item(s) in period %q", currentID, newID, len(affected), p.Name))

	details, err := s.Details(ctx, p.ID)
	if err != nil {
		return ReplacementResult{}, err
	}
	return ReplacementResult{Details: details, AffectedPraise: items}, nil
}

func intersect(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	var out []int64
	for _, id := range b {
		if _, ok := seen[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
