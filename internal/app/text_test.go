package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeText(t *testing.T) {
	cases := map[string]string{
		"  hello   world ":    "hello world",
		"line\r\nbreak\there": "line break here",
		"\n\n":                "",
		"bell\x07ring\x00":    "bellring",
		"":                    "",
	}
	for in, want := range cases {
		require.Equal(t, want, SanitizeText(in, 2000), "%q", in)
	}
}

func TestSanitizeTextCapsWithoutSplittingRunes(t *testing.T) {
	s := SanitizeText(strings.Repeat("я", 10), 5)
	require.Equal(t, "яя", s)

	require.Len(t, SanitizeText(strings.Repeat("a", 3000), 2000), 2000)
}

func TestContainsDenied(t *testing.T) {
	deny := []string{"shit", " "}
	require.True(t, ContainsDenied("oh SHIT no", deny))
	require.True(t, ContainsDenied("bullshitting", deny))
	require.False(t, ContainsDenied("all good", deny))
	require.False(t, ContainsDenied("anything", nil))
}
