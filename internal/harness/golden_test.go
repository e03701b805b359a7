package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{
		"combine_add",
		"combine_mean_midpoint",
		"threshold_interpolate",
		"threshold_missing_coord",
	} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestSnapshot_Error(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "combine_insufficient_input.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	snap, err := Snapshot(result)
	require.NoError(t, err)
	require.Equal(t, "error: INSUFFICIENT_INPUT: expecting 2 or more cubes to combine (operator=add)\n", string(snap))
}
