package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/probcal/internal/cubedoc"
	"github.com/roach88/probcal/internal/testutil"
)

func TestThresholdInterpolate(t *testing.T) {
	in := writeCube(t, "prob.json", testutil.ProbabilityCube([]float32{0.8, 0.4}, []float64{1, 2}, 1, 1))
	out := filepath.Join(t.TempDir(), "resampled.json")

	stdout, _, err := execute(NewThresholdCommand(testRootOptions("text")), "--thresholds", "1.5, 3", "-o", out, in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ threshold-interpolate: wrote")
	assert.Contains(t, stdout, "threshold=2")

	result, err := cubedoc.Read(out)
	require.NoError(t, err)
	thr, ok := result.Coord("threshold")
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, 3}, thr.Points)
	assert.InDeltaSlice(t, []float32{0.6, 0.4}, result.Data, 1e-6)
}

func TestThresholdInterpolateJSON(t *testing.T) {
	in := writeCube(t, "prob.json", testutil.ProbabilityCube([]float32{0.8, 0.4}, []float64{1, 2}, 1, 1))

	stdout, _, err := execute(NewThresholdCommand(testRootOptions("json")), "--thresholds", "2", in)
	require.NoError(t, err)

	resp, data := decodeResult(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "threshold-interpolate", data.Operation)
	assert.Equal(t, DimSummary{Name: "threshold", Len: 1}, data.Cube.Dims[0])
	require.NotEmpty(t, data.Document)
}

func TestThresholdInterpolateErrors(t *testing.T) {
	prob := writeCube(t, "prob.json", testutil.ProbabilityCube([]float32{0.8, 0.4}, []float64{1, 2}, 1, 1))
	single := writeCube(t, "single.json", testutil.ProbabilityCube([]float32{0.8}, []float64{1}, 1, 1))
	variable := writeCube(t, "temp.json", testutil.VariableCube([]float32{280}, 1, 1))

	tests := []struct {
		name       string
		thresholds string
		path       string
		wantCode   string
		wantExit   int
	}{
		{"bad threshold list", "1,,2", prob, ErrCodeConfiguration, ExitCommandError},
		{"not a number", "one", prob, ErrCodeConfiguration, ExitCommandError},
		{"no threshold dim", "1", variable, ErrCodeCoordinateNotFound, ExitFailure},
		{"single source threshold", "1", single, ErrCodeInterpolation, ExitFailure},
		{"missing file", "1", "/nonexistent/prob.json", ErrCodeNotFound, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(NewThresholdCommand(testRootOptions("json")), "--thresholds", tt.thresholds, tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			resp := decodeErrorResponse(t, stdout)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestThresholdInterpolateRequiresThresholds(t *testing.T) {
	in := writeCube(t, "prob.json", testutil.ProbabilityCube([]float32{0.8, 0.4}, []float64{1, 2}, 1, 1))

	_, _, err := execute(NewThresholdCommand(testRootOptions("text")), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thresholds")
}
