package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/probcal/internal/cube"
)

const defaultTolerance = 1e-6

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Output   string // Summary of the output cube, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Output != "" {
		fmt.Fprintf(&buf, "\nOutput: %s\n", e.Output)
	}

	return buf.String()
}

func failure(kind string, out *cube.Cube, expected, actual string) *AssertionError {
	e := &AssertionError{Type: kind, Expected: expected, Actual: actual}
	if out != nil {
		e.Output = fmt.Sprintf("%s %v dims=%v", out.Name, out.Shape(), out.DimNames())
	}
	return e
}

// assertData checks every output value against the expected values.
// NaN matches NaN; infinities must match exactly.
func assertData(out *cube.Cube, a Assertion) error {
	if len(out.Data) != len(a.Values) {
		return failure(AssertData, out, fmt.Sprintf("%d values", len(a.Values)), fmt.Sprintf("%d values", len(out.Data)))
	}
	tol := a.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}
	for i, want := range a.Values {
		if !valueEqual(float64(want), float64(out.Data[i]), tol) {
			return failure(AssertData, out, fmt.Sprintf("data[%d] = %g (±%g)", i, want, tol), fmt.Sprintf("%g", out.Data[i]))
		}
	}
	return nil
}

func valueEqual(want, got, tol float64) bool {
	switch {
	case math.IsNaN(want) || math.IsNaN(got):
		return math.IsNaN(want) && math.IsNaN(got)
	case math.IsInf(want, 0) || math.IsInf(got, 0):
		return want == got
	}
	return math.Abs(want-got) <= tol
}

// assertMask checks the output mask. An empty expectation means unmasked.
func assertMask(out *cube.Cube, a Assertion) error {
	if len(a.Mask) == 0 {
		if out.IsMasked() {
			return failure(AssertMask, out, "no mask", fmt.Sprintf("%v", out.Mask))
		}
		return nil
	}
	if !slices.Equal(a.Mask, out.Mask) {
		return failure(AssertMask, out, fmt.Sprintf("%v", a.Mask), fmt.Sprintf("%v", out.Mask))
	}
	return nil
}

// assertCoord checks the points, bounds and units of a coordinate, or that
// it is absent.
func assertCoord(out *cube.Cube, a Assertion) error {
	c, ok := out.Coord(a.Coord)
	if a.Absent {
		if ok {
			return failure(AssertCoord, out, fmt.Sprintf("no coord %s", a.Coord), fmt.Sprintf("%s with points %v", a.Coord, c.Points))
		}
		return nil
	}
	if !ok {
		return failure(AssertCoord, out, fmt.Sprintf("coord %s", a.Coord), "not found")
	}
	if a.Points != nil && !floatsEqual(a.Points, c.Points) {
		return failure(AssertCoord, out, fmt.Sprintf("%s points %v", a.Coord, a.Points), fmt.Sprintf("%v", c.Points))
	}
	if a.Bounds != nil {
		got := make([][]float64, len(c.Bounds))
		for i, b := range c.Bounds {
			got[i] = []float64{b.Lower, b.Upper}
		}
		if !slices.EqualFunc(a.Bounds, got, floatsEqual) {
			return failure(AssertCoord, out, fmt.Sprintf("%s bounds %v", a.Coord, a.Bounds), fmt.Sprintf("%v", got))
		}
	}
	if a.Units != nil && *a.Units != c.Units {
		return failure(AssertCoord, out, fmt.Sprintf("%s units %q", a.Coord, *a.Units), fmt.Sprintf("%q", c.Units))
	}
	return nil
}

func floatsEqual(want, got []float64) bool {
	return slices.EqualFunc(want, got, func(w, g float64) bool {
		return valueEqual(w, g, 1e-9*math.Max(1, math.Abs(w)))
	})
}

func assertShape(out *cube.Cube, a Assertion) error {
	if !slices.Equal(a.Shape, out.Shape()) {
		return failure(AssertShape, out, fmt.Sprintf("%v", a.Shape), fmt.Sprintf("%v", out.Shape()))
	}
	return nil
}

func assertMetadata(out *cube.Cube, a Assertion) error {
	if a.Name != "" && a.Name != out.Name {
		return failure(AssertMetadata, out, fmt.Sprintf("name %q", a.Name), fmt.Sprintf("%q", out.Name))
	}
	if a.Units != nil && *a.Units != out.Units {
		return failure(AssertMetadata, out, fmt.Sprintf("units %q", *a.Units), fmt.Sprintf("%q", out.Units))
	}
	return nil
}

// assertError checks the operation failed with the expected kind and, when
// given, the expected coordinate.
func assertError(err error, a Assertion) error {
	if err == nil {
		return failure(AssertError, nil, fmt.Sprintf("error of kind %s", a.Kind), "operation succeeded")
	}
	kind, ok := cube.KindOf(err)
	if !ok || string(kind) != a.Kind {
		return failure(AssertError, nil, fmt.Sprintf("error of kind %s", a.Kind), err.Error())
	}
	if a.Coord != "" {
		if ce := cube.AsError(err); ce.Coord != a.Coord {
			return failure(AssertError, nil, fmt.Sprintf("error on coord %s", a.Coord), err.Error())
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch {
		case assertion.Type == AssertError:
			err = assertError(result.Err, assertion)
		case result.Output == nil:
			err = fmt.Errorf("assertion[%d]: %s needs an output cube, operation failed: %v", i, assertion.Type, result.Err)
		default:
			switch assertion.Type {
			case AssertData:
				err = assertData(result.Output, assertion)
			case AssertMask:
				err = assertMask(result.Output, assertion)
			case AssertCoord:
				err = assertCoord(result.Output, assertion)
			case AssertShape:
				err = assertShape(result.Output, assertion)
			case AssertMetadata:
				err = assertMetadata(result.Output, assertion)
			default:
				err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
			}
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
