// Package combine merges N cubes into one through an arithmetic or
// reduction operator.
//
// Inputs are matched on their dimension coordinates. Dimension coordinates
// named in Options.BroadcastToCoords must exist on the first cube and are
// repeated onto any later cube that lacks them. Scalar coordinates whose
// points differ between inputs are expanded to cover every input; scalar
// coordinates missing from the first cube are dropped.
//
// Input order matters: subtract and divide fold left to right from the
// first cube, and the first cube supplies units, attributes and the set of
// retained coordinates for every operator.
package combine

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/probcal/internal/cube"
)

// Options control coordinate handling.
type Options struct {
	// UseMidpoint places the point of an expanded coordinate at the centre
	// of its merged bounds instead of at the largest input point.
	UseMidpoint bool

	// BroadcastToCoords names dimension coordinates of the first cube that
	// later cubes may lack.
	BroadcastToCoords []string
}

// Config is the immutable configuration of a Combiner.
type Config struct {
	Operator string
	Options
	Logger *slog.Logger
}

// Combiner holds a validated configuration. It never mutates itself or
// its inputs and is safe for concurrent use.
type Combiner struct {
	op        Operator
	opts      Options
	broadcast map[string]bool
	logger    *slog.Logger
}

// New validates cfg and returns a Combiner.
func New(cfg Config) (*Combiner, error) {
	op, err := ParseOperator(cfg.Operator)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := Options{
		UseMidpoint:       cfg.UseMidpoint,
		BroadcastToCoords: slices.Clone(cfg.BroadcastToCoords),
	}
	broadcast := make(map[string]bool, len(opts.BroadcastToCoords))
	for _, name := range opts.BroadcastToCoords {
		if name == "" {
			return nil, cube.Errorf(cube.KindConfiguration, "broadcast coordinate name must not be empty")
		}
		broadcast[name] = true
	}
	return &Combiner{op: op, opts: opts, broadcast: broadcast, logger: logger}, nil
}

// Operator returns the canonical operator.
func (c *Combiner) Operator() Operator {
	return c.op
}

// Combine is shorthand for New followed by Combiner.Combine.
func Combine(cubes []*cube.Cube, operator, resultName string, opts Options) (*cube.Cube, error) {
	cb, err := New(Config{Operator: operator, Options: opts})
	if err != nil {
		return nil, err
	}
	return cb.Combine(cubes, resultName)
}

// Combine merges cubes into a new cube called resultName. All validation
// happens before any arithmetic; the inputs are never modified.
func (c *Combiner) Combine(cubes []*cube.Cube, resultName string) (*cube.Cube, error) {
	if len(cubes) < 2 {
		return nil, &cube.Error{
			Kind:     cube.KindInsufficientInput,
			Message:  "expecting 2 or more cubes to combine",
			Operator: string(c.op),
			Details:  map[string]string{"received": strconv.Itoa(len(cubes))},
		}
	}
	for i, in := range cubes {
		if in == nil {
			return nil, cube.Errorf(cube.KindInvalidCube, "input %d is nil", i)
		}
		if err := in.Validate(); err != nil {
			return nil, err
		}
	}

	if err := c.checkBroadcast(cubes); err != nil {
		return nil, err
	}
	if err := c.checkDims(cubes); err != nil {
		return nil, err
	}
	aligned, err := c.align(cubes)
	if err != nil {
		return nil, err
	}

	sets := make([][]cube.AuxCoord, len(aligned))
	for i, in := range aligned {
		sets[i] = in.Aux
	}
	expanded := ExpandedCoords(sets)

	first := aligned[0]
	out := &cube.Cube{
		Name:       resultName,
		Units:      first.Units,
		Dims:       make([]cube.DimCoord, len(first.Dims)),
		Aux:        make([]cube.AuxCoord, 0, len(first.Aux)),
		Attributes: maps.Clone(first.Attributes),
	}
	for i, d := range first.Dims {
		out.Dims[i] = d.Clone()
	}
	for _, a := range first.Aux {
		if !slices.Contains(expanded, a.Name) {
			out.Aux = append(out.Aux, a.Clone())
			continue
		}
		coords, _ := collect(sets, a.Name)
		merged, err := mergeExpanded(coords, c.opts.UseMidpoint)
		if err != nil {
			return nil, err
		}
		out.Aux = append(out.Aux, merged)
	}

	out.Data = c.apply(aligned)
	out.Mask = orMasks(aligned)

	if err := out.Validate(); err != nil {
		return nil, err
	}
	c.logger.Debug("combined cubes",
		"operator", string(c.op),
		"inputs", len(cubes),
		"result", resultName,
		"expanded", expanded,
	)
	return out, nil
}

// checkBroadcast verifies every broadcast coordinate is a dimension of the
// first cube and is not held as a non-dimension coordinate by any other.
func (c *Combiner) checkBroadcast(cubes []*cube.Cube) error {
	first := cubes[0]
	for _, name := range c.opts.BroadcastToCoords {
		if !first.HasDim(name) {
			return &cube.Error{
				Kind:    cube.KindCoordinateNotFound,
				Message: fmt.Sprintf("cannot find coord %s in %s to broadcast to", name, first.Name),
				Coord:   name,
				Cube:    first.Name,
			}
		}
		for _, other := range cubes[1:] {
			if other.HasAux(name) {
				return &cube.Error{
					Kind:    cube.KindCoordinateConflict,
					Message: fmt.Sprintf("coord %s already exists on %s as a non-dimension coordinate", name, other.Name),
					Coord:   name,
					Cube:    other.Name,
				}
			}
		}
	}
	return nil
}

// checkDims compares dimension names, ignoring broadcast coordinates.
func (c *Combiner) checkDims(cubes []*cube.Cube) error {
	want := c.matchedDims(cubes[0])
	for _, other := range cubes[1:] {
		if got := c.matchedDims(other); !slices.Equal(want, got) {
			return shapeMismatch(cubes[0], other)
		}
	}
	return nil
}

func (c *Combiner) matchedDims(in *cube.Cube) []string {
	return slices.DeleteFunc(in.DimNames(), func(name string) bool { return c.broadcast[name] })
}

// align broadcasts later cubes onto the first cube's broadcast axes and
// checks the resulting dimension coordinates agree exactly. Cubes that need no change are
// returned as is.
func (c *Combiner) align(cubes []*cube.Cube) ([]*cube.Cube, error) {
	first := cubes[0]
	order := slices.Clone(c.opts.BroadcastToCoords)
	slices.SortFunc(order, func(a, b string) int { return first.DimIndex(a) - first.DimIndex(b) })

	out := make([]*cube.Cube, len(cubes))
	out[0] = first
	for i, other := range cubes[1:] {
		for _, name := range order {
			if other.HasDim(name) {
				continue
			}
			axis := first.DimIndex(name)
			if axis > len(other.Dims) {
				return nil, shapeMismatch(first, cubes[i+1])
			}
			grown, err := other.InsertAxis(axis, first.Dims[axis])
			if err != nil {
				return nil, err
			}
			c.logger.Debug("broadcast cube", "cube", other.Name, "coord", name, "axis", axis)
			other = grown
		}
		if !slices.Equal(first.DimNames(), other.DimNames()) || !slices.Equal(first.Shape(), other.Shape()) {
			return nil, shapeMismatch(first, cubes[i+1])
		}
		for axis, d := range other.Dims {
			if !sameDim(first.Dims[axis], d) {
				return nil, coordMismatch(first, cubes[i+1], d.Name)
			}
		}
		out[i+1] = other
	}
	return out, nil
}

// apply evaluates the operator elementwise. Masked elements still
// contribute their stored value.
func (c *Combiner) apply(cubes []*cube.Cube) []float32 {
	n := len(cubes[0].Data)
	out := make([]float32, n)
	if !c.op.IsReduction() {
		copy(out, cubes[0].Data)
		for _, in := range cubes[1:] {
			for i, v := range in.Data {
				out[i] = c.op.fold(out[i], v)
			}
		}
		return out
	}
	vals := make([]float32, len(cubes))
	for i := range out {
		for k, in := range cubes {
			vals[k] = in.Data[i]
		}
		out[i] = c.op.reduce(vals)
	}
	return out
}

// orMasks returns the elementwise OR of every input mask, or nil when no
// input is masked.
func orMasks(cubes []*cube.Cube) []bool {
	var mask []bool
	for _, in := range cubes {
		if !in.IsMasked() {
			continue
		}
		if mask == nil {
			mask = make([]bool, len(in.Mask))
		}
		for i, m := range in.Mask {
			mask[i] = mask[i] || m
		}
	}
	return mask
}

// sameDim reports whether two dimension coordinates describe the same axis:
// equal name, units, points and bounds.
func sameDim(a, b cube.DimCoord) bool {
	return a.Name == b.Name && a.Units == b.Units &&
		slices.Equal(a.Points, b.Points) && slices.Equal(a.Bounds, b.Bounds)
}

func coordMismatch(first, other *cube.Cube, coord string) error {
	return &cube.Error{
		Kind:    cube.KindShapeMismatch,
		Message: fmt.Sprintf("coordinate %s on cube %s differs from %s", coord, other.Name, first.Name),
		Coord:   coord,
		Cube:    other.Name,
	}
}

func shapeMismatch(first, other *cube.Cube) error {
	return &cube.Error{
		Kind:    cube.KindShapeMismatch,
		Message: fmt.Sprintf("cube %s has different dimension coordinates from %s", other.Name, first.Name),
		Cube:    other.Name,
		Details: map[string]string{
			"expected": strings.Join(first.DimNames(), ","),
			"actual":   strings.Join(other.DimNames(), ","),
		},
	}
}
