package quantify

import (
	"context"
	"sort"

	"github.com/kudoshq/kudos/internal/praise"
	"github.com/kudoshq/kudos/internal/scoring"
)

// UserSummary aggregates one user's praise inside a period window.
type UserSummary struct {
	UserID      int64   `json:"userId"`
	PraiseCount int     `json:"praiseCount"`
	Total       float64 `json:"total"`
}

// ReceiverSummaries sums composite scores per receiver over a period.
// Reputation accumulates across items, so this is a sum of composites,
// not an average.
func (s *Service) ReceiverSummaries(ctx context.Context, periodID int64) ([]UserSummary, error) {
	return s.summaries(ctx, periodID, true)
}

// GiverSummaries sums composite scores per giver over a period.
func (s *Service) GiverSummaries(ctx context.Context, periodID int64) ([]UserSummary, error) {
	return s.summaries(ctx, periodID, false)
}

// summaries recomputes each group's total through the scoring rules rather
// than trusting the cached composite column, so a stale cache cannot leak
// into exports.
func (s *Service) summaries(ctx context.Context, periodID int64, byReceiver bool) ([]UserSummary, error) {
	p, err := s.periods.Find(ctx, periodID)
	if err != nil {
		return nil, err
	}
	w, err := s.periods.Window(ctx, p)
	if err != nil {
		return nil, err
	}
	items, err := s.praise.ListByWindow(ctx, w)
	if err != nil {
		return nil, err
	}

	grouped := make(map[int64][]praise.Praise)
	for _, item := range items {
		key := item.GiverID
		if byReceiver {
			key = item.ReceiverID
		}
		grouped[key] = append(grouped[key], item)
	}

	resolver := s.resolver()
	out := make([]UserSummary, 0, len(grouped))
	for userID, group := range grouped {
		total, err := scoring.GroupCompositeScore(ctx, group, resolver)
		if err != nil {
			return nil, err
		}
		out = append(out, UserSummary{UserID: userID, PraiseCount: len(group), Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// UserTotalScore is a user's raw lifetime total: the sum of every
// quantification's realized score across all praise the user received, in
// any period.
func (s *Service) UserTotalScore(ctx context.Context, userID int64) (float64, error) {
	items, err := s.praise.ListByReceiver(ctx, userID)
	if err != nil {
		return 0, err
	}
	return scoring.UserTotalScore(ctx, items, s.resolver())
}
