package quantify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/shared"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
func int64Ptr(v int64) *int64     { return &v }

func TestSubmitJudgmentScore(t *testing.T) {
	f := assignFixture(t)

	item, err := f.service.SubmitJudgment(context.Background(), 1, 10, JudgmentInput{Score: floatPtr(13)})
	require.NoError(t, err)

	// The returned item already reflects the new judgment.
	assert.Equal(t, 13.0, item.ScoreRealized)
	assert.Equal(t, 13.0, f.praise.items[1].ScoreRealized)

	q, err := f.praise.Quantification(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 13.0, q.Score)
}

func TestSubmitJudgmentCompositeAveragesCompleted(t *testing.T) {
	f := assignFixture(t)

	_, err := f.service.SubmitJudgment(context.Background(), 1, 10, JudgmentInput{Score: floatPtr(8)})
	require.NoError(t, err)
	item, err := f.service.SubmitJudgment(context.Background(), 1, 11, JudgmentInput{Score: floatPtr(13)})
	require.NoError(t, err)

	// Quantifier 12 is untouched: composite averages only the two judgments.
	assert.Equal(t, 10.5, item.ScoreRealized)
}

func TestSubmitJudgmentDismissal(t *testing.T) {
	f := assignFixture(t)

	_, err := f.service.SubmitJudgment(context.Background(), 1, 10, JudgmentInput{Score: floatPtr(21)})
	require.NoError(t, err)
	item, err := f.service.SubmitJudgment(context.Background(), 1, 11, JudgmentInput{Dismissed: boolPtr(true)})
	require.NoError(t, err)

	// Dismissal counts as a completed zero: (21 + 0) / 2.
	assert.Equal(t, 10.5, item.ScoreRealized)
}

func TestSubmitJudgmentDuplicateInherits(t *testing.T) {
	f := assignFixture(t)

	_, err := f.service.SubmitJudgment(context.Background(), 2, 10, JudgmentInput{Score: floatPtr(50)})
	require.NoError(t, err)

	item, err := f.service.SubmitJudgment(context.Background(), 1, 10, JudgmentInput{DuplicateOf: int64Ptr(2)})
	require.NoError(t, err)

	// 10% of the original's 50, averaged alone.
	assert.Equal(t, 5.0, item.ScoreRealized)
}

func TestSubmitJudgmentRejectsSelfDuplicate(t *testing.T) {
	f := assignFixture(t)

	_, err := f.service.SubmitJudgment(context.Background(), 1, 10, JudgmentInput{DuplicateOf: int64Ptr(1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestSubmitJudgmentRejectsDuplicateChain(t *testing.T) {
	f := newFixture()
	f.addPeriod(1, periods.StatusOpen)
	f.addPraise(1, 100, 1)
	f.addPraise(2, 100, 1)
	f.addPraise(3, 100, 1)
	f.users.addQuantifiers(10, 11, 12)
	_, err := f.service.Assign(context.Background(), 1)
	require.NoError(t, err)

	// 2 is already a duplicate of 3; marking 1 as a duplicate of 2 would
	// build a chain.
	_, err = f.service.SubmitJudgment(context.Background(), 2, 10, JudgmentInput{DuplicateOf: int64Ptr(3)})
	require.NoError(t, err)

	_, err = f.service.SubmitJudgment(context.Background(), 1, 10, JudgmentInput{DuplicateOf: int64Ptr(2)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestSubmitJudgmentRejectsUnknownDuplicateTarget(t *testing.T) {
	f := assignFixture(t)

	_, err := f.service.SubmitJudgment(context.Background(), 1, 10, JudgmentInput{DuplicateOf: int64Ptr(999)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestSubmitJudgmentRejectsNegativeScore(t *testing.T) {
	f := assignFixture(t)

	_, err := f.service.SubmitJudgment(context.Background(), 1, 10, JudgmentInput{Score: floatPtr(-1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestSubmitJudgmentRequiresQuantifyPeriod(t *testing.T) {
	f := assignFixture(t)
	p := f.periods.items[1]
	p.Status = periods.StatusClosed
	f.periods.items[1] = p

	_, err := f.service.SubmitJudgment(context.Background(), 1, 10, JudgmentInput{Score: floatPtr(5)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestSubmitJudgmentRequiresAssignment(t *testing.T) {
	f := assignFixture(t)

	// User 99 holds no stub on praise 1.
	_, err := f.service.SubmitJudgment(context.Background(), 1, 99, JudgmentInput{Score: floatPtr(5)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
