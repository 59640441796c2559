// README: User profile snapshot and nearby-candidate records.
package profile

import (
	"errors"
	"sort"
	"strings"
	"time"

	"nearmatch/internal/types"
)

var ErrNotFound = errors.New("profile not found")

// Profile is the canonical compatibility-scoring snapshot of a user. It is
// rebuilt from the store for every evaluation.
type Profile struct {
	UserID    types.ID `json:"user_id" yaml:"user_id"`
	Name      string   `json:"name" yaml:"name"`
	Age       int      `json:"age" yaml:"age"`
	Bio       string   `json:"bio" yaml:"bio"`
	Interests []string `json:"interests" yaml:"interests"`
}

// Details is the structured blob stored alongside the user row.
type Details struct {
	Bio       string   `json:"bio"`
	Age       int      `json:"age,omitempty"`
	Interests []string `json:"interests"`
}

// Candidate is a nearby user pulled from the store for a single scan.
type Candidate struct {
	UserID     types.ID          `json:"user_id"`
	Profile    Profile           `json:"profile"`
	Location   *types.Coordinate `json:"location,omitempty"`
	LastSeenAt time.Time         `json:"last_seen_at"`
}

// Details returns the blob form of the profile's free-form fields.
func (p Profile) Details() Details {
	return Details{Bio: p.Bio, Age: p.Age, Interests: NormalizeInterests(p.Interests)}
}

func (d Details) apply(p *Profile) {
	p.Bio = d.Bio
	p.Age = d.Age
	p.Interests = NormalizeInterests(d.Interests)
}

// NormalizeInterests trims, lowercases and de-duplicates interests and
// returns them sorted.
func NormalizeInterests(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
