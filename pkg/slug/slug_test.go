package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Test Offering":               "test-offering",
		"  Allocation   Test  ":       "allocation-test",
		"Série A – Fund II":           "serie-a-fund-ii",
		"Investor's Choice 2024!":     "investors-choice-2024",
		"Real-Estate / Healthcare":    "real-estate-healthcare",
		"":                            "",
		"---":                         "",
		"Non-Logged In Test Offering": "non-logged-in-test-offering",
	}

	for input, want := range cases {
		require.Equal(t, want, Make(input), "input %q", input)
	}
}

func TestMakeTruncates(t *testing.T) {
	out := Make(strings.Repeat("ab ", 200))
	require.LessOrEqual(t, len(out), MaxLength)
	require.False(t, strings.HasSuffix(out, "-"))
}
