package harness

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: test_scenario
description: "Test scenario for validation"
operation: combine
options:
  operator: add
inputs:
  - name: a
    dims:
      - name: x
        points: [0, 1]
    data: [0.1, null]
  - name: b
    dims:
      - name: x
        points: [0, 1]
    data: [0.2, "+Inf"]
assertions:
  - type: shape
    shape: [2]
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, OpCombine, scenario.Operation)
	assert.Equal(t, "add", scenario.Options.Operator)
	require.Len(t, scenario.Inputs, 2)
	assert.Equal(t, "b", scenario.Inputs[1].Name)
	assert.Len(t, scenario.Inputs[0].Data, 2)
	assert.True(t, math.IsNaN(float64(scenario.Inputs[0].Data[1])), "null decodes to NaN")
	assert.Equal(t, []int{2}, scenario.Assertions[0].Shape)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_RecalibrateTable(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: recal
description: "table options decode"
operation: recalibrate
options:
  table:
    forecast_period: [0, 6]
    alpha: [1, 2]
    beta: [1, 2]
    units: hours
    extrapolation: linear
inputs:
  - name: p
    dims:
      - name: threshold
        points: [1]
    data: [0.5]
assertions:
  - type: error
    kind: COORDINATE_NOT_FOUND
`))
	require.NoError(t, err)
	require.NotNil(t, scenario.Options.Table)
	assert.Equal(t, []float64{0, 6}, scenario.Options.Table.ForecastPeriod)
	assert.Equal(t, "hours", scenario.Options.Table.Units)
	assert.Equal(t, "linear", scenario.Options.Table.Extrapolation)
}

func TestParseScenario_Invalid(t *testing.T) {
	input := `
  - name: p
    dims:
      - name: threshold
        points: [1, 2]
    data: [0.5, 0.4]
`
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\noperation: combine\noptions: {operator: add}\ninputs:" + input + "assertions:\n  - type: shape\n    shape: [2]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\noperation: combine\noptions: {operator: add}\ninputs:" + input + "assertions:\n  - type: shape\n    shape: [2]\n",
			wantErr: "description is required",
		},
		{
			name:    "no inputs",
			yaml:    "name: n\ndescription: d\noperation: combine\noptions: {operator: add}\nassertions:\n  - type: shape\n    shape: [2]\n",
			wantErr: "inputs list is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: n\ndescription: d\noperation: combine\noptions: {operator: add}\ninputs:" + input,
			wantErr: "assertions list is required",
		},
		{
			name:    "missing operation",
			yaml:    "name: n\ndescription: d\ninputs:" + input + "assertions:\n  - type: shape\n    shape: [2]\n",
			wantErr: "operation is required",
		},
		{
			name:    "unknown operation",
			yaml:    "name: n\ndescription: d\noperation: regrid\ninputs:" + input + "assertions:\n  - type: shape\n    shape: [2]\n",
			wantErr: `unknown operation "regrid"`,
		},
		{
			name:    "combine without operator",
			yaml:    "name: n\ndescription: d\noperation: combine\ninputs:" + input + "assertions:\n  - type: shape\n    shape: [2]\n",
			wantErr: "options.operator is required",
		},
		{
			name:    "threshold without thresholds",
			yaml:    "name: n\ndescription: d\noperation: threshold-interpolate\ninputs:" + input + "assertions:\n  - type: shape\n    shape: [2]\n",
			wantErr: "options.thresholds is required",
		},
		{
			name:    "threshold with two inputs",
			yaml:    "name: n\ndescription: d\noperation: threshold-interpolate\noptions: {thresholds: [1]}\ninputs:" + input + input + "assertions:\n  - type: shape\n    shape: [2]\n",
			wantErr: "takes exactly one input, got 2",
		},
		{
			name:    "recalibrate without table",
			yaml:    "name: n\ndescription: d\noperation: recalibrate\ninputs:" + input + "assertions:\n  - type: shape\n    shape: [2]\n",
			wantErr: "options.table is required",
		},
		{
			name:    "unknown field",
			yaml:    "name: n\ndescription: d\noperation: combine\noptions: {operator: add}\ninputs:" + input + "assertion:\n  - type: shape\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: n\ndescription: d\noperation: combine\noptions: {operator: add}\ninputs:" + input + "assertions:\n  - type: trace\n",
			wantErr: `unknown assertion type "trace"`,
		},
		{
			name:    "data without values",
			yaml:    "name: n\ndescription: d\noperation: combine\noptions: {operator: add}\ninputs:" + input + "assertions:\n  - type: data\n",
			wantErr: "values is required for data",
		},
		{
			name:    "negative tolerance",
			yaml:    "name: n\ndescription: d\noperation: combine\noptions: {operator: add}\ninputs:" + input + "assertions:\n  - type: data\n    values: [1]\n    tolerance: -1\n",
			wantErr: "tolerance must be non-negative",
		},
		{
			name:    "coord without checks",
			yaml:    "name: n\ndescription: d\noperation: combine\noptions: {operator: add}\ninputs:" + input + "assertions:\n  - type: coord\n    coord: time\n",
			wantErr: "coord needs points, bounds, units or absent",
		},
		{
			name:    "error without kind",
			yaml:    "name: n\ndescription: d\noperation: combine\noptions: {operator: add}\ninputs:" + input + "assertions:\n  - type: error\n",
			wantErr: "kind is required for error",
		},
		{
			name:    "metadata without fields",
			yaml:    "name: n\ndescription: d\noperation: combine\noptions: {operator: add}\ninputs:" + input + "assertions:\n  - type: metadata\n",
			wantErr: "name or units is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarios_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(minimalScenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(minimalScenario), 0644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario name "test_scenario" already used by a.yaml`)
}

func TestLoadScenarios_Sorted(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)
	assert.Equal(t, "combine_add", scenarios[0].Name)
}
