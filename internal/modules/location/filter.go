// README: ProximityFilter keeps candidates within the exact distance threshold.
package location

import (
	"nearmatch/internal/modules/profile"
	"nearmatch/internal/types"
)

const DefaultThresholdFeet = 50.0

// Nearby is a candidate confirmed within the threshold.
type Nearby struct {
	Candidate    profile.Candidate `json:"candidate"`
	DistanceFeet float64           `json:"distance_feet"`
}

// Filter keeps candidates whose distance from origin is at most thresholdFeet,
// preserving input order. Candidates without a location are skipped.
func Filter(origin types.Coordinate, candidates []profile.Candidate, thresholdFeet float64) []Nearby {
	out := make([]Nearby, 0, len(candidates))
	for _, c := range candidates {
		if c.Location == nil {
			continue
		}
		d := DistanceFeet(origin, *c.Location)
		if d <= thresholdFeet {
			out = append(out, Nearby{Candidate: c, DistanceFeet: d})
		}
	}
	return out
}
