package praise

import "time"

// Praise is a single recognition event from a giver to a receiver. Its
// period membership is derived from CreatedAt against period windows, never
// stored. ScoreRealized caches the composite score and is recomputed on
// every quantification write.
type Praise struct {
	ID              int64            `json:"id"`
	Reason          string           `json:"reason"`
	ReasonRealized  string           `json:"reasonRealized"`
	SourceID        string           `json:"sourceId"`
	SourceName      string           `json:"sourceName"`
	GiverID         int64            `json:"giverId"`
	ReceiverID      int64            `json:"receiverId"`
	ForwarderID     *int64           `json:"forwarderId,omitempty"`
	ScoreRealized   float64          `json:"scoreRealized"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	Quantifications []Quantification `json:"quantifications,omitempty"`
}

// Quantification is one quantifier's judgment for one praise item. Created
// as an empty stub at assignment time; a judgment sets exactly one of
// score, dismissed, or duplicate-of.
type Quantification struct {
	ID                int64     `json:"id"`
	PraiseID          int64     `json:"praiseId"`
	QuantifierID      int64     `json:"quantifierId"`
	Score             float64   `json:"score"`
	Dismissed         bool      `json:"dismissed"`
	DuplicatePraiseID *int64    `json:"duplicatePraiseId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Completed reports whether the quantifier has touched the stub: dismissed,
// marked duplicate, or scored above zero. Untouched stubs are excluded from
// composite averaging.
func (q Quantification) Completed() bool {
	return q.Dismissed || q.DuplicatePraiseID != nil || q.Score > 0
}

// ReceiverCount is the number of praise items a receiver collected inside
// one period window.
type ReceiverCount struct {
	ReceiverID int64 `json:"receiverId"`
	Count      int   `json:"count"`
}

// QuantifierStats summarizes one quantifier's workload inside one period
// window.
type QuantifierStats struct {
	QuantifierID  int64 `json:"quantifierId"`
	AssignedCount int   `json:"assignedCount"`
	FinishedCount int   `json:"finishedCount"`
}
