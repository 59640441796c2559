package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDetailsShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Details
	}{
		{"empty", ``, Details{Interests: []string{}}},
		{"null", `null`, Details{Interests: []string{}}},
		{"plain text", `Loves jazz and long walks`, Details{Bio: "Loves jazz and long walks", Interests: []string{}}},
		{"quoted text", `"Coffee nerd"`, Details{Bio: "Coffee nerd", Interests: []string{}}},
		{
			"canonical object",
			`{"bio": "Climber", "age": 29, "interests": ["Climbing", "coffee", "climbing "]}`,
			Details{Bio: "Climber", Age: 29, Interests: []string{"climbing", "coffee"}},
		},
		{
			"age as string and comma interests",
			`{"bio": "Runner", "age": "31", "interests": "running, Books"}`,
			Details{Bio: "Runner", Age: 31, Interests: []string{"books", "running"}},
		},
		{
			"legacy about alias",
			`{"about": "Painter"}`,
			Details{Bio: "Painter", Interests: []string{}},
		},
		{
			"nested bio object",
			`{"bio": {"bio": "Chef", "age": 40, "interests": ["cooking"]}}`,
			Details{Bio: "Chef", Age: 40, Interests: []string{"cooking"}},
		},
		{
			"json encoded as string",
			`"{\"bio\": \"Gamer\", \"interests\": [\"games\"]}"`,
			Details{Bio: "Gamer", Interests: []string{"games"}},
		},
		{"broken object kept as text", `{"bio": `, Details{Bio: `{"bio":`, Interests: []string{}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DecodeDetails([]byte(tc.raw)))
		})
	}
}

func TestEncodeDetailsNormalizesInterests(t *testing.T) {
	blob, err := EncodeDetails(Details{Bio: "Hi", Age: 25, Interests: []string{" Tennis", "tennis", "Art"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"bio": "Hi", "age": 25, "interests": ["art", "tennis"]}`, string(blob))

	assert.Equal(t, Details{Bio: "Hi", Age: 25, Interests: []string{"art", "tennis"}}, DecodeDetails(blob))
}

func TestNormalizeInterestsNeverNil(t *testing.T) {
	assert.NotNil(t, NormalizeInterests(nil))
	assert.Empty(t, NormalizeInterests([]string{" ", ""}))
}
