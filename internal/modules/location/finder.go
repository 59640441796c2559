// README: CandidateFinder runs the coarse bounding-box query for a scan.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nearmatch/internal/modules/profile"
	"nearmatch/internal/types"
)

// DefaultBoxMarginDeg is roughly 330 m of latitude, comfortably wider than
// the proximity threshold at city scale.
const DefaultBoxMarginDeg = 0.003

// CandidateSource answers bounding-box and activity-window queries.
type CandidateSource interface {
	FindInBox(ctx context.Context, box types.BoundingBox, exclude types.ID, activeSince time.Time) ([]profile.Candidate, error)
}

type Finder struct {
	source    CandidateSource
	marginDeg float64
	now       func() time.Time
}

func NewFinder(source CandidateSource, marginDeg float64) *Finder {
	if marginDeg <= 0 {
		marginDeg = DefaultBoxMarginDeg
	}
	return &Finder{source: source, marginDeg: marginDeg, now: time.Now}
}

// FindCandidates returns users inside the box around origin who were seen
// within activeWithin. No rows yields an empty slice. Source failures are
// surfaced as store failures and never retried here.
func (f *Finder) FindCandidates(ctx context.Context, origin types.Coordinate, exclude types.ID, activeWithin time.Duration) ([]profile.Candidate, error) {
	box := types.BoxAround(origin, f.marginDeg)
	since := f.now().Add(-activeWithin)

	candidates, err := f.source.FindInBox(ctx, box, exclude, since)
	if err != nil {
		if errors.Is(err, types.ErrStoreFailure) {
			return nil, fmt.Errorf("find candidates: %w", err)
		}
		return nil, fmt.Errorf("find candidates: %w: %w", types.ErrStoreFailure, err)
	}
	if candidates == nil {
		candidates = []profile.Candidate{}
	}
	return candidates, nil
}
