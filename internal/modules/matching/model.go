// README: Match records and evaluation outcomes.
package matching

import (
	"errors"
	"time"

	"nearmatch/internal/types"
)

// ErrDuplicatePair is returned by a store when a record for the unordered
// pair already exists. It is not a failure: evaluation folds it into
// OutcomeAlreadyLinked.
var ErrDuplicatePair = errors.New("match already exists for pair")

// Record is the durable, store-owned link between two users. (A,B) and (B,A)
// identify the same record.
type Record struct {
	ID        types.ID          `json:"id"`
	UserA     types.ID          `json:"user_a"`
	UserB     types.ID          `json:"user_b"`
	Score     float64           `json:"compatibility_score"`
	Reasoning string            `json:"reasoning"`
	Location  *types.Coordinate `json:"location,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Other returns the counterpart of self in the pair.
func (r Record) Other(self types.ID) types.ID {
	if r.UserA == self {
		return r.UserB
	}
	return r.UserA
}

type NewMatch struct {
	UserA     types.ID
	UserB     types.ID
	Score     float64
	Reasoning string
	Location  *types.Coordinate
}

type OutcomeKind string

const (
	OutcomeAlreadyLinked OutcomeKind = "already_linked"
	OutcomeNoMatch       OutcomeKind = "no_match"
	OutcomeNewMatch      OutcomeKind = "new_match"
)

type Outcome struct {
	Kind   OutcomeKind
	Score  float64
	Record *Record
}

// orderedPair returns the pair in canonical (low, high) order.
func orderedPair(a, b types.ID) (types.ID, types.ID) {
	if a <= b {
		return a, b
	}
	return b, a
}
