package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRemainingMinutes(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for k := 0; k <= 30; k++ {
		now := t0.Add(time.Duration(k) * time.Minute)
		require.Equal(t, 15-k, RemainingMinutes(t0, now), "k=%d", k)
	}
}

func TestRemainingMinutesFloors(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.Equal(t, 14, RemainingMinutes(t0, t0.Add(30*time.Second)))
	require.Equal(t, 5, RemainingMinutes(t0, t0.Add(10*time.Minute)))
	require.Equal(t, -1, RemainingMinutes(t0, t0.Add(16*time.Minute)))
	require.Equal(t, -1, RemainingMinutes(t0, t0.Add(15*time.Minute+time.Second)))
}

func TestCooling(t *testing.T) {
	v := func(i int) *int { return &i }

	require.False(t, Cooling(nil))
	require.False(t, Cooling(v(0)))
	require.False(t, Cooling(v(-3)))
	require.True(t, Cooling(v(1)))
	require.True(t, Cooling(v(15)))
	require.False(t, Cooling(v(16)))
}
