package quantify

import (
	"fmt"
	"sort"

	"github.com/kudoshq/kudos/internal/praise"
	"github.com/kudoshq/kudos/internal/shared"
)

// receiverGroup is one receiver's praise batch, in stable window order.
type receiverGroup struct {
	receiverID int64
	praiseIDs  []int64
}

// groupByReceiver splits window-ordered praise into per-receiver batches.
// The input is already sorted by receiver id then creation time, so groups
// come out in receiver-id order.
func groupByReceiver(items []praise.Praise) []receiverGroup {
	var groups []receiverGroup
	for _, p := range items {
		if n := len(groups); n > 0 && groups[n-1].receiverID == p.ReceiverID {
			groups[n-1].praiseIDs = append(groups[n-1].praiseIDs, p.ID)
			continue
		}
		groups = append(groups, receiverGroup{receiverID: p.ReceiverID, praiseIDs: []int64{p.ID}})
	}
	return groups
}

// buildAssignments selects quantifiers for every praise item in the window.
//
// With evenly=false each receiver batch is handed whole to n distinct
// quantifiers picked by a cursor that rotates across batches, so batch
// counts per quantifier stay within one of each other.
//
// With evenly=true batch boundaries are ignored: every praise item is
// assigned to the n least-loaded quantifiers (ties broken by id ascending),
// equalizing total assigned-praise counts across the period.
//
// pool must be sorted by id ascending and hold at least n quantifiers.
func buildAssignments(items []praise.Praise, pool []int64, n int, evenly bool) ([]Stub, error) {
	if n <= 0 {
		return nil, fmt.Errorf("quantify: quantifiers per receiver must be positive: %w", shared.ErrValidation)
	}
	if len(pool) < n {
		return nil, fmt.Errorf("quantify: need at least %d quantifiers, have %d: %w", n, len(pool), shared.ErrValidation)
	}
	if evenly {
		return assignEvenly(items, pool, n), nil
	}
	return assignByBatch(groupByReceiver(items), pool, n), nil
}

func assignByBatch(groups []receiverGroup, pool []int64, n int) []Stub {
	var stubs []Stub
	cursor := 0
	for _, g := range groups {
		for s := 0; s < n; s++ {
			quantifier := pool[(cursor+s)%len(pool)]
			for _, praiseID := range g.praiseIDs {
				stubs = append(stubs, Stub{PraiseID: praiseID, QuantifierID: quantifier})
			}
		}
		cursor = (cursor + n) % len(pool)
	}
	return stubs
}

func assignEvenly(items []praise.Praise, pool []int64, n int) []Stub {
	counts := make(map[int64]int, len(pool))
	for _, id := range pool {
		counts[id] = 0
	}

	candidates := make([]int64, len(pool))
	var stubs []Stub
	for _, p := range items {
		copy(candidates, pool)
		sort.SliceStable(candidates, func(i, j int) bool {
			if counts[candidates[i]] != counts[candidates[j]] {
				return counts[candidates[i]] < counts[candidates[j]]
			}
			return candidates[i] < candidates[j]
		})
		for _, quantifier := range candidates[:n] {
			stubs = append(stubs, Stub{PraiseID: p.ID, QuantifierID: quantifier})
			counts[quantifier]++
		}
	}
	return stubs
}
