package harness

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/probcal/internal/cubedoc"
	"github.com/roach88/probcal/internal/recalibrate"
)

func strPtr(s string) *string { return &s }

func pair(a, b float32) []cubedoc.Document {
	dims := []cubedoc.Coord{{Name: "x", Units: "m", Points: []float64{0, 1}}}
	return []cubedoc.Document{
		{Name: "first", Units: "1", Dims: dims, Data: cubedoc.Values{a, a}},
		{Name: "second", Units: "1", Dims: dims, Data: cubedoc.Values{b, b}},
	}
}

func TestRun_CombinePasses(t *testing.T) {
	scenario := &Scenario{
		Name:        "inline_add",
		Description: "inline add",
		Operation:   OpCombine,
		Options:     Options{Operator: "+", NewName: "total"},
		Inputs:      pair(0.25, 0.5),
		Assertions: []Assertion{
			{Type: AssertData, Values: cubedoc.Values{0.75, 0.75}},
			{Type: AssertMask},
			{Type: AssertShape, Shape: []int{2}},
			{Type: AssertMetadata, Name: "total", Units: strPtr("1")},
			{Type: AssertCoord, Coord: "x", Points: []float64{0, 1}, Units: strPtr("m")},
			{Type: AssertCoord, Coord: "time", Absent: true},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.NotNil(t, result.Output)
	assert.Equal(t, "total", result.Output.Name)
}

func TestRun_DefaultNameIsFirstInput(t *testing.T) {
	scenario := &Scenario{
		Name:       "default_name",
		Operation:  OpCombine,
		Options:    Options{Operator: "max"},
		Inputs:     pair(0.25, 0.5),
		Assertions: []Assertion{{Type: AssertMetadata, Name: "first"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FailingAssertions(t *testing.T) {
	scenario := &Scenario{
		Name:      "failing",
		Operation: OpCombine,
		Options:   Options{Operator: "add"},
		Inputs:    pair(0.25, 0.5),
		Assertions: []Assertion{
			{Type: AssertData, Values: cubedoc.Values{0.5, 0.75}},
			{Type: AssertData, Values: cubedoc.Values{0.75}},
			{Type: AssertMask, Mask: []bool{true, false}},
			{Type: AssertShape, Shape: []int{3}},
			{Type: AssertMetadata, Units: strPtr("K")},
			{Type: AssertCoord, Coord: "x", Points: []float64{0, 2}},
			{Type: AssertCoord, Coord: "x", Absent: true},
			{Type: AssertCoord, Coord: "time", Points: []float64{0}},
			{Type: AssertError, Kind: "SHAPE_MISMATCH"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, len(scenario.Assertions))
	assert.Contains(t, result.Errors[0], "Assertion failed: data")
	assert.Contains(t, result.Errors[0], "data[0] = 0.5")
	assert.Contains(t, result.Errors[1], "1 values")
	assert.Contains(t, result.Errors[2], "Assertion failed: mask")
	assert.Contains(t, result.Errors[3], "Assertion failed: shape")
	assert.Contains(t, result.Errors[4], `units "K"`)
	assert.Contains(t, result.Errors[5], "x points [0 2]")
	assert.Contains(t, result.Errors[6], "no coord x")
	assert.Contains(t, result.Errors[7], "not found")
	assert.Contains(t, result.Errors[8], "operation succeeded")
}

func TestRun_UnexpectedOperationError(t *testing.T) {
	docs := pair(0.25, 0.5)
	docs[1].Dims = []cubedoc.Coord{{Name: "y", Points: []float64{0, 1}}}
	scenario := &Scenario{
		Name:       "unexpected",
		Operation:  OpCombine,
		Options:    Options{Operator: "add"},
		Inputs:     docs,
		Assertions: []Assertion{{Type: AssertShape, Shape: []int{2}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "operation failed: SHAPE_MISMATCH")
	assert.Nil(t, result.Output)
}

func TestRun_ExpectedError(t *testing.T) {
	scenario := &Scenario{
		Name:      "expected",
		Operation: OpThreshold,
		Options:   Options{Thresholds: []float64{1}},
		Inputs:    pair(0.25, 0.5)[:1],
		Assertions: []Assertion{
			{Type: AssertError, Kind: "COORDINATE_NOT_FOUND", Coord: "threshold"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Error(t, result.Err)
}

func TestRun_WrongErrorKind(t *testing.T) {
	scenario := &Scenario{
		Name:      "wrong_kind",
		Operation: OpThreshold,
		Options:   Options{Thresholds: []float64{1}},
		Inputs:    pair(0.25, 0.5)[:1],
		Assertions: []Assertion{
			{Type: AssertError, Kind: "INTERPOLATION_ERROR"},
			{Type: AssertError, Kind: "COORDINATE_NOT_FOUND", Coord: "realization"},
			{Type: AssertData, Values: cubedoc.Values{1}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "error of kind INTERPOLATION_ERROR")
	assert.Contains(t, result.Errors[1], "error on coord realization")
	assert.Contains(t, result.Errors[2], "needs an output cube")
}

func TestRun_InvalidInputDocument(t *testing.T) {
	docs := pair(0.25, 0.5)
	docs[0].Data = cubedoc.Values{1, 2, 3}
	scenario := &Scenario{
		Name:       "bad_input",
		Operation:  OpCombine,
		Options:    Options{Operator: "add"},
		Inputs:     docs,
		Assertions: []Assertion{{Type: AssertShape, Shape: []int{2}}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario bad_input: inputs[0]")
	assert.Contains(t, err.Error(), "INVALID_CUBE")
}

func TestRun_Recalibrate(t *testing.T) {
	doc := cubedoc.Document{
		Name:  "probability_of_air_temperature_above_threshold",
		Units: "1",
		Dims: []cubedoc.Coord{
			{Name: "threshold", Units: "K", Points: []float64{273.15}},
			{Name: "projection_x_coordinate", Units: "m", Points: []float64{0, 2000}},
		},
		Aux:  []cubedoc.Coord{{Name: "forecast_period", Units: "hours", Points: []float64{6}}},
		Data: cubedoc.Values{0.25, 0.5},
	}
	scenario := &Scenario{
		Name:      "recal",
		Operation: OpRecalibrate,
		Options: Options{Table: &recalibrate.Table{
			ForecastPeriod: []float64{0, 6},
			Alpha:          []float64{2, 2},
			Beta:           []float64{2, 2},
		}},
		Inputs: []cubedoc.Document{doc},
		Assertions: []Assertion{
			{Type: AssertData, Values: cubedoc.Values{0.15625, 0.5}},
			{Type: AssertCoord, Coord: "forecast_period", Points: []float64{6}},
		},
	}

	var logs bytes.Buffer
	h := New(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	result, err := h.Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, logs.String(), "scenario=recal")
	assert.Contains(t, logs.String(), "recalibrated slice")
}

func TestValueEqual(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	assert.True(t, valueEqual(nan, nan, 0))
	assert.False(t, valueEqual(nan, 1, 1))
	assert.True(t, valueEqual(inf, inf, 0))
	assert.False(t, valueEqual(inf, 1e300, 1e300))
	assert.True(t, valueEqual(0.5, 0.5000001, 1e-6))
	assert.False(t, valueEqual(0.5, 0.51, 1e-6))
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: AssertShape, Expected: "[2]", Actual: "[3]", Output: "c [3] dims=[x]"}
	assert.Equal(t, "Assertion failed: shape\n  Expected: [2]\n  Actual: [3]\n\nOutput: c [3] dims=[x]\n", err.Error())
}
