// README: Match evaluation: dedup by pair, ask the oracle, persist positive decisions once.
package matching

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nearmatch/internal/ai"
	"nearmatch/internal/modules/profile"
	"nearmatch/internal/types"
)

// PairStore is the persistence the evaluator needs. Implementations must
// enforce uniqueness on the unordered pair and report a lost race as
// ErrDuplicatePair.
type PairStore interface {
	FindPair(ctx context.Context, a, b types.ID) (*Record, error)
	CreateMatch(ctx context.Context, m NewMatch) (*Record, error)
}

type Evaluator struct {
	store  PairStore
	oracle ai.Oracle
	log    *zap.Logger
}

func NewEvaluator(store PairStore, oracle ai.Oracle, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{store: store, oracle: oracle, log: log}
}

// Evaluate decides whether self and candidate become a match. An existing
// record short-circuits before the oracle is consulted, so a pair is never
// scored twice once linked.
func (e *Evaluator) Evaluate(ctx context.Context, self profile.Profile, selfID types.ID, candidate profile.Candidate, origin *types.Coordinate) (Outcome, error) {
	existing, err := e.store.FindPair(ctx, selfID, candidate.UserID)
	if err != nil {
		return Outcome{}, asStoreErr("find pair", err)
	}
	if existing != nil {
		return Outcome{Kind: OutcomeAlreadyLinked, Score: existing.Score, Record: existing}, nil
	}

	decision, err := ai.Decide(ctx, e.oracle, self, candidate.Profile)
	if err != nil {
		return Outcome{}, err
	}
	if !decision.IsMatch {
		e.log.Debug("oracle declined pair",
			zap.String("user_id", string(selfID)),
			zap.String("candidate_id", string(candidate.UserID)),
			zap.Float64("score", decision.CompatibilityScore),
		)
		return Outcome{Kind: OutcomeNoMatch, Score: decision.CompatibilityScore}, nil
	}

	var loc *types.Coordinate
	if origin != nil {
		c := *origin
		loc = &c
	}
	rec, err := e.store.CreateMatch(ctx, NewMatch{
		UserA:     selfID,
		UserB:     candidate.UserID,
		Score:     decision.CompatibilityScore,
		Reasoning: decision.Reasoning,
		Location:  loc,
	})
	if errors.Is(err, ErrDuplicatePair) {
		e.log.Debug("pair linked concurrently",
			zap.String("user_id", string(selfID)),
			zap.String("candidate_id", string(candidate.UserID)),
		)
		return Outcome{Kind: OutcomeAlreadyLinked, Score: decision.CompatibilityScore}, nil
	}
	if err != nil {
		return Outcome{}, asStoreErr("create match", err)
	}

	e.log.Info("match created",
		zap.String("match_id", string(rec.ID)),
		zap.String("user_id", string(selfID)),
		zap.String("candidate_id", string(candidate.UserID)),
		zap.Float64("score", rec.Score),
	)
	return Outcome{Kind: OutcomeNewMatch, Score: rec.Score, Record: rec}, nil
}

func asStoreErr(op string, err error) error {
	if errors.Is(err, types.ErrStoreFailure) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, types.ErrStoreFailure, err)
}
