// Package scoring turns raw quantifications into realized and composite
// scores. All functions are pure over their inputs except for duplicate
// resolution, which goes through the DuplicateResolver port so the package
// stays unit-testable.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/kudoshq/kudos/internal/praise"
	"github.com/kudoshq/kudos/internal/shared"
)

// DuplicateResolver resolves what a duplicate-marked quantification
// inherits from: the original praise's quantification by the same
// quantifier, and the duplicate percentage scoped to the original praise's
// own period.
type DuplicateResolver interface {
	OriginalQuantification(ctx context.Context, originalPraiseID, quantifierID int64) (praise.Quantification, bool, error)
	DuplicatePercentage(ctx context.Context, originalPraiseID int64) (float64, error)
}

// Round2 rounds half-up to 2 decimal places. Scores are never negative, so
// the floor form is exact.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// RealizedScore computes the effective value of one quantification.
// Dismissal dominates; a duplicate inherits the original's score scaled by
// the duplicate percentage; otherwise the manual score stands.
func RealizedScore(ctx context.Context, q praise.Quantification, resolver DuplicateResolver) (float64, error) {
	if q.Dismissed {
		return 0, nil
	}
	if q.DuplicatePraiseID == nil {
		return q.Score, nil
	}

	original, ok, err := resolver.OriginalQuantification(ctx, *q.DuplicatePraiseID, q.QuantifierID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("scoring: no quantification by user %d on original praise %d: %w", q.QuantifierID, *q.DuplicatePraiseID, shared.ErrDomain)
	}
	if original.Dismissed {
		return 0, nil
	}
	percentage, err := resolver.DuplicatePercentage(ctx, *q.DuplicatePraiseID)
	if err != nil {
		return 0, err
	}
	return Round2(original.Score * percentage), nil
}

// CompositeScore averages the realized scores of a praise item's completed
// quantifications, rounded to 2 decimals. Untouched stubs are excluded; a
// praise item with no completed quantification scores 0.
func CompositeScore(ctx context.Context, quantifications []praise.Quantification, resolver DuplicateResolver) (float64, error) {
	var sum float64
	var completed int
	for _, q := range quantifications {
		if !q.Completed() {
			continue
		}
		realized, err := RealizedScore(ctx, q, resolver)
		if err != nil {
			return 0, err
		}
		sum += realized
		completed++
	}
	if completed == 0 {
		return 0, nil
	}
	return Round2(sum / float64(completed)), nil
}

// GroupCompositeScore sums composite scores across the praise items
// attributed to one giver or receiver in a period. Reputation accumulates;
// it does not average across items. The addends are already rounded, so
// the sum is not re-rounded.
func GroupCompositeScore(ctx context.Context, items []praise.Praise, resolver DuplicateResolver) (float64, error) {
	var total float64
	for _, p := range items {
		composite, err := CompositeScore(ctx, p.Quantifications, resolver)
		if err != nil {
			return 0, err
		}
		total += composite
	}
	return total, nil
}

// UserTotalScore sums every quantification's realized score across all
// praise a user received, over all periods. Rounding is applied once at
// the end.
func UserTotalScore(ctx context.Context, items []praise.Praise, resolver DuplicateResolver) (float64, error) {
	var total float64
	for _, p := range items {
		for _, q := range p.Quantifications {
			realized, err := RealizedScore(ctx, q, resolver)
			if err != nil {
				return 0, err
			}
			total += realized
		}
	}
	return Round2(total), nil
}
