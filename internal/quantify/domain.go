package quantify

import (
	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/praise"
)

// Stub is a (praise, quantifier) pair produced by assignment. Each stub
// becomes an empty Quantification record.
type Stub struct {
	PraiseID     int64
	QuantifierID int64
}

// PeriodDetails is the detail view returned by assignment, replacement,
// and the standalone detail read: praise volume plus per-receiver and
// per-quantifier workload.
type PeriodDetails struct {
	Period         periods.Period          `json:"period"`
	NumberOfPraise int                     `json:"numberOfPraise"`
	Receivers      []praise.ReceiverCount  `json:"receivers"`
	Quantifiers    []praise.QuantifierStats `json:"quantifiers"`
}

// ReplacementResult reports the outcome of a quantifier swap.
type ReplacementResult struct {
	Details        PeriodDetails   `json:"details"`
	AffectedPraise []praise.Praise `json:"affectedPraise"`
}

// JudgmentInput carries one quantifier's judgment for one praise item.
// Fields left nil are not touched.
type JudgmentInput struct {
	Score       *float64
	Dismissed   *bool
	DuplicateOf *int64
}
