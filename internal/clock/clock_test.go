package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := Fake(start)
	require.Equal(t, start, c.Now())

	c.Advance(45 * time.Second)
	require.Equal(t, start.Add(45*time.Second), c.Now())

	c.Set(start)
	require.Equal(t, start, c.Now())
}

func TestRealClockIsUTC(t *testing.T) {
	require.Equal(t, time.UTC, Real().Now().Location())
}
