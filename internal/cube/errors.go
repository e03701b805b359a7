package cube

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind categorizes errors raised by cube operations.
type Kind string

const (
	// KindConfiguration indicates an invalid operator, threshold list or
	// recalibration table.
	KindConfiguration Kind = "CONFIGURATION_ERROR"

	// KindInsufficientInput indicates fewer than two cubes were supplied to
	// a combination.
	KindInsufficientInput Kind = "INSUFFICIENT_INPUT"

	// KindShapeMismatch indicates dimension coordinates differ across
	// combined cubes.
	KindShapeMismatch Kind = "SHAPE_MISMATCH"

	// KindCoordinateNotFound indicates a required coordinate is missing.
	KindCoordinateNotFound Kind = "COORDINATE_NOT_FOUND"

	// KindCoordinateConflict indicates a coordinate exists in a form that
	// cannot be reconciled (e.g. broadcast target already an aux coord).
	KindCoordinateConflict Kind = "COORDINATE_CONFLICT"

	// KindInvalidParameter indicates a derived distribution parameter is
	// out of range.
	KindInvalidParameter Kind = "INVALID_PARAMETER"

	// KindInterpolation indicates there are too few source points to
	// interpolate against.
	KindInterpolation Kind = "INTERPOLATION_ERROR"

	// KindInvalidCube indicates a cube violates the data model invariants.
	KindInvalidCube Kind = "INVALID_CUBE"
)

// Error is the structured error returned by every cube operation.
//
// Coord, Cube and Operator identify the offending coordinate, cube and
// operator when known; tests should assert on these fields rather than on
// Message.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Message is a human-readable description.
	Message string

	// Coord names the offending coordinate, if any.
	Coord string

	// Cube names the offending cube, if any.
	Cube string

	// Operator names the offending operator, if any.
	Operator string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var ctx []string
	if e.Coord != "" {
		ctx = append(ctx, "coord="+e.Coord)
	}
	if e.Cube != "" {
		ctx = append(ctx, "cube="+e.Cube)
	}
	if e.Operator != "" {
		ctx = append(ctx, "operator="+e.Operator)
	}
	if len(ctx) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(ctx, ", "))
}

// DetailKeys returns the keys of Details in sorted order.
func (e *Error) DetailKeys() []string {
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Errorf creates an Error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err. Uses errors.As to handle wrapped errors.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// IsKind returns true if err is a cube Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// AsError returns the cube Error wrapped in err, or nil.
func AsError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}
