package ai

import (
	"encoding/json"
	"fmt"

	"nearmatch/internal/modules/profile"
)

type Strictness string

const (
	StrictnessLenient  Strictness = "lenient"
	StrictnessBalanced Strictness = "balanced"
	StrictnessStrict   Strictness = "strict"
)

func (s Strictness) guidance() string {
	switch s {
	case StrictnessLenient:
		return "Be generous: one genuine shared interest or compatible outlook is enough for a match."
	case StrictnessStrict:
		return "Be selective: only match when there are several shared interests and clearly compatible goals."
	default:
		return "Match when the two people share interests or values that would make a conversation easy."
	}
}

type promptProfile struct {
	Name      string   `json:"name"`
	Age       int      `json:"age,omitempty"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
}

func toPromptProfile(p profile.Profile) promptProfile {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	return promptProfile{Name: p.Name, Age: p.Age, Bio: p.Bio, Interests: interests}
}

// buildMatchPrompt constructs the instructions for one pairwise evaluation.
func buildMatchPrompt(a, b profile.Profile, strictness Strictness) (string, error) {
	pa, err := json.Marshal(toPromptProfile(a))
	if err != nil {
		return "", err
	}
	pb, err := json.Marshal(toPromptProfile(b))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Role: You decide whether two people who are physically near each other should be introduced on a social discovery app.

Person A: %s
Person B: %s

RULES:
1. %s
2. Base the decision only on the profiles above. Ignore names when judging compatibility.
3. "compatibilityScore" is a number between 0 and 1.
4. "commonInterests" lists interests both people share, lowercase.
5. "reasoning" is one short sentence addressed to Person A.

Output exactly one JSON object:
{
  "isMatch": boolean,
  "compatibilityScore": number,
  "reasoning": "string",
  "commonInterests": ["string"]
}
`, pa, pb, strictness.guidance()), nil
}
