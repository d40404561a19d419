package quantify

import (
	"context"
	"errors"
	"fmt"

	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/praise"
	"github.com/kudoshq/kudos/internal/scoring"
	"github.com/kudoshq/kudos/internal/settings"
	"github.com/kudoshq/kudos/internal/shared"
)

// SubmitJudgment records one quantifier's judgment for one praise item and
// recomputes the praise composite score in the same transaction.
func (s *Service) SubmitJudgment(ctx context.Context, praiseID, quantifierID int64, in JudgmentInput) (praise.Praise, error) {
	item, err := s.praise.FindByID(ctx, praiseID)
	if err != nil {
		return praise.Praise{}, err
	}

	p, ok, err := s.periods.FindContaining(ctx, item.CreatedAt)
	if err != nil {
		return praise.Praise{}, err
	}
	if !ok {
		return praise.Praise{}, fmt.Errorf("quantify: no period covers praise %d: %w", praiseID, shared.ErrDomain)
	}
	if p.Status != periods.StatusQuantify {
		return praise.Praise{}, fmt.Errorf("quantify: period %q is %s, not QUANTIFY: %w", p.Name, p.Status, shared.ErrInvalidState)
	}

	q, err := s.praise.Quantification(ctx, praiseID, quantifierID)
	if err != nil {
		return praise.Praise{}, err
	}

	if in.Score != nil {
		if *in.Score < 0 {
			return praise.Praise{}, fmt.Errorf("quantify: score must not be negative: %w", shared.ErrValidation)
		}
		q.Score = *in.Score
	}
	if in.Dismissed != nil {
		q.Dismissed = *in.Dismissed
	}
	if in.DuplicateOf != nil {
		if err := s.checkDuplicateTarget(ctx, praiseID, quantifierID, *in.DuplicateOf); err != nil {
			return praise.Praise{}, err
		}
		duplicateOf := *in.DuplicateOf
		q.DuplicatePraiseID = &duplicateOf
	}

	// Recompute the composite against the judgment just entered, not the
	// stored snapshot.
	merged := make([]praise.Quantification, len(item.Quantifications))
	copy(merged, item.Quantifications)
	for i := range merged {
		if merged[i].QuantifierID == quantifierID {
			merged[i] = q
		}
	}
	composite, err := scoring.CompositeScore(ctx, merged, s.resolver())
	if err != nil {
		return praise.Praise{}, err
	}

	if err := s.store.SaveJudgment(ctx, q, composite); err != nil {
		return praise.Praise{}, err
	}
	s.invalidate(ctx, p.ID)

	item.Quantifications = merged
	item.ScoreRealized = composite
	return item, nil
}

// checkDuplicateTarget enforces the duplicate rules: no self-reference, the
// original must exist, and the same quantifier's judgment on the original
// must not itself be a duplicate (no chains longer than 1).
func (s *Service) checkDuplicateTarget(ctx context.Context, praiseID, quantifierID, duplicateOf int64) error {
	if duplicateOf == praiseID {
		return fmt.Errorf("quantify: praise cannot be a duplicate of itself: %w", shared.ErrValidation)
	}
	if _, err := s.praise.FindByID(ctx, duplicateOf); err != nil {
		return err
	}
	original, err := s.praise.Quantification(ctx, duplicateOf, quantifierID)
	if err == nil && original.DuplicatePraiseID != nil {
		return fmt.Errorf("quantify: praise %d is itself marked duplicate by user %d: %w", duplicateOf, quantifierID, shared.ErrValidation)
	}
	return nil
}

// resolver builds the scoring duplicate resolver over the service's ports.
func (s *Service) resolver() scoring.DuplicateResolver {
	return portResolver{s: s}
}

type portResolver struct {
	s *Service
}

// OriginalQuantification looks up the original praise's quantification made
// by the same quantifier. A missing record is reported as ok=false so the
// scoring layer can classify it as a domain integrity failure.
func (r portResolver) OriginalQuantification(ctx context.Context, originalPraiseID, quantifierID int64) (praise.Quantification, bool, error) {
	q, err := r.s.praise.Quantification(ctx, originalPraiseID, quantifierID)
	if err != nil {
		if isNotFound(err) {
			return praise.Quantification{}, false, nil
		}
		return praise.Quantification{}, false, err
	}
	return q, true, nil
}

// DuplicatePercentage resolves the duplicate percentage against the
// original praise's own period.
func (r portResolver) DuplicatePercentage(ctx context.Context, originalPraiseID int64) (float64, error) {
	original, err := r.s.praise.FindByID(ctx, originalPraiseID)
	if err != nil {
		return 0, err
	}
	p, ok, err := r.s.periods.FindContaining(ctx, original.CreatedAt)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("quantify: no period covers original praise %d: %w", originalPraiseID, shared.ErrDomain)
	}
	return r.s.settings.Float(ctx, settings.KeyDuplicatePercentage, &p.ID)
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
