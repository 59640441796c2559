// README: score asks the configured oracle about two profiles loaded from YAML files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"nearmatch/internal/ai"
	"nearmatch/internal/modules/profile"
)

func newScoreCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "score <profile-a.yaml> <profile-b.yaml>",
		Short: "Score two profiles with the configured oracle and print the decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			oracle, llm, err := ai.NewOracle(ctx, opts.cfg.Oracle)
			if err != nil {
				return err
			}
			if c, ok := llm.(io.Closer); ok {
				defer c.Close()
			}
			return runScore(ctx, cmd.OutOrStdout(), oracle, args[0], args[1])
		},
	}
}

func runScore(ctx context.Context, out io.Writer, oracle ai.Oracle, pathA, pathB string) error {
	a, err := loadProfile(pathA)
	if err != nil {
		return err
	}
	b, err := loadProfile(pathB)
	if err != nil {
		return err
	}

	decision, err := ai.Decide(ctx, oracle, a, b)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(out)
	defer enc.Close()
	return enc.Encode(map[string]any{
		"a":                a.Name,
		"b":                b.Name,
		"is_match":         decision.IsMatch,
		"score":            decision.CompatibilityScore,
		"reasoning":        decision.Reasoning,
		"common_interests": decision.CommonInterests,
	})
}

func loadProfile(path string) (profile.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("read profile: %w", err)
	}
	var p profile.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return profile.Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.UserID == "" {
		return profile.Profile{}, fmt.Errorf("profile %s: user_id is required", path)
	}
	p.Interests = profile.NormalizeInterests(p.Interests)
	return p, nil
}
