package cube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertTime(t *testing.T) {
	tests := []struct {
		v        float64
		from, to string
		want     float64
	}{
		{4, "hours", "seconds", 14400},
		{14400, "seconds", "hours", 4},
		{90, "minutes", "h", 1.5},
		{1, "day", "hours", 24},
		{7, "s", "seconds", 7},
	}
	for _, tt := range tests {
		got, err := ConvertTime(tt.v, tt.from, tt.to)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "%g %s -> %s", tt.v, tt.from, tt.to)
	}
}

func TestConvertTime_UnknownUnit(t *testing.T) {
	_, err := ConvertTime(1, "fortnights", "s")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfiguration))
	assert.Equal(t, "fortnights", AsError(err).Details["unit"])
	assert.False(t, IsTimeUnit("K"))
	assert.True(t, IsTimeUnit(" Hours "))
}

func TestConvertTimes(t *testing.T) {
	got, err := ConvertTimes([]float64{0, 1}, "hours", "seconds")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 3600}, got)
}
