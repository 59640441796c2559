package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrOracleFailure covers transport errors and unusable responses from the
	// compatibility oracle.
	ErrOracleFailure = errors.New("oracle failure")
	// ErrMalformedResponse is a response without a parsable JSON object.
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrOracleFailure)
)

const defaultReasoning = "No reasoning provided"

// MatchDecision is the parsed oracle verdict. IsMatch is authoritative and is
// never derived from CompatibilityScore.
type MatchDecision struct {
	IsMatch            bool     `json:"isMatch"`
	CompatibilityScore float64  `json:"compatibilityScore"`
	Reasoning          string   `json:"reasoning"`
	CommonInterests    []string `json:"commonInterests"`
}

type decisionPayload struct {
	IsMatch            *bool    `json:"isMatch"`
	CompatibilityScore *float64 `json:"compatibilityScore"`
	Reasoning          *string  `json:"reasoning"`
	CommonInterests    []string `json:"commonInterests"`
}

// ParseDecision extracts the text between the first '{' and the last '}' of
// raw and decodes it, filling defaults for absent fields.
func ParseDecision(raw string) (MatchDecision, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return MatchDecision{}, fmt.Errorf("%w: no JSON object in %q", ErrMalformedResponse, truncate(raw, 200))
	}

	var p decisionPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &p); err != nil {
		return MatchDecision{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	d := MatchDecision{
		Reasoning:       defaultReasoning,
		CommonInterests: []string{},
	}
	if p.IsMatch != nil {
		d.IsMatch = *p.IsMatch
	}
	if p.CompatibilityScore != nil {
		d.CompatibilityScore = clampScore(*p.CompatibilityScore)
	}
	if p.Reasoning != nil {
		d.Reasoning = *p.Reasoning
	}
	if p.CommonInterests != nil {
		d.CommonInterests = p.CommonInterests
	}
	return d, nil
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
