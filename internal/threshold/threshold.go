// Package threshold resamples probability cubes onto a new set of
// threshold values.
//
// For every fixed position of the other axes the probability is treated as
// a piecewise-linear function of threshold. Requests outside the original
// threshold range take the nearest end value. The output always has the
// threshold axis first, with points in the requested order.
package threshold

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/probcal/internal/cube"
	"github.com/roach88/probcal/internal/numeric"
)

// CoordName is the dimension coordinate indexing probability thresholds.
const CoordName = "threshold"

// RealizationCoord is collapsed before interpolation when present.
const RealizationCoord = "realization"

// ParseThresholds parses a comma-separated list of threshold values such
// as "50.0,200.0,400.0".
func ParseThresholds(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, cube.Errorf(cube.KindConfiguration, "threshold list is empty")
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, cube.Errorf(cube.KindConfiguration, "threshold %d is empty in %q", i+1, s)
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, cube.Errorf(cube.KindConfiguration, "threshold %q is not a number", p)
		}
		out = append(out, v)
	}
	return out, nil
}

// Option configures an Interpolator.
type Option func(*Interpolator)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(ip *Interpolator) { ip.logger = logger }
}

// Interpolator holds the requested thresholds. It is immutable and safe for
// concurrent use.
type Interpolator struct {
	thresholds []float64
	logger     *slog.Logger
}

// New returns an Interpolator targeting thresholds, which must be a
// non-empty list of finite values.
func New(thresholds []float64, opts ...Option) (*Interpolator, error) {
	if len(thresholds) == 0 {
		return nil, cube.Errorf(cube.KindConfiguration, "at least one threshold is required")
	}
	for _, t := range thresholds {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, cube.Errorf(cube.KindConfiguration, "threshold %g is not finite", t)
		}
	}
	ip := &Interpolator{
		thresholds: slices.Clone(thresholds),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(ip)
	}
	return ip, nil
}

// Thresholds returns a copy of the requested thresholds.
func (ip *Interpolator) Thresholds() []float64 {
	return slices.Clone(ip.thresholds)
}

// Interpolate is shorthand for New followed by Process.
func Interpolate(c *cube.Cube, thresholds []float64) (*cube.Cube, error) {
	ip, err := New(thresholds)
	if err != nil {
		return nil, err
	}
	return ip.Process(c)
}

// Process returns a new cube whose threshold coordinate holds the requested
// points. A realization axis, if present, is first collapsed by a masked
// mean.
func (ip *Interpolator) Process(c *cube.Cube) (*cube.Cube, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.HasAux(CoordName) {
		return nil, &cube.Error{
			Kind:    cube.KindInterpolation,
			Message: "need at least 2 thresholds to interpolate, cube has a scalar threshold",
			Coord:   CoordName,
			Cube:    c.Name,
		}
	}
	if !c.HasDim(CoordName) {
		return nil, &cube.Error{
			Kind:    cube.KindCoordinateNotFound,
			Message: "cube must be a probability forecast with a threshold dimension",
			Coord:   CoordName,
			Cube:    c.Name,
		}
	}
	if n := len(c.Dims[c.DimIndex(CoordName)].Points); n < 2 {
		return nil, &cube.Error{
			Kind:    cube.KindInterpolation,
			Message: fmt.Sprintf("need at least 2 thresholds to interpolate, cube has %d", n),
			Coord:   CoordName,
			Cube:    c.Name,
		}
	}

	src := c
	if axis := c.DimIndex(RealizationCoord); axis >= 0 {
		collapsed, err := collapseRealization(c, axis)
		if err != nil {
			return nil, err
		}
		ip.logger.Debug("collapsed realizations", "cube", c.Name, "members", len(c.Dims[axis].Points))
		src = collapsed
	}

	moved := src.MoveAxisToFront(src.DimIndex(CoordName))
	orig := moved.Dims[0]
	order, ok := numeric.AscendingOrder(orig.Points)
	if !ok {
		return nil, &cube.Error{
			Kind:    cube.KindInterpolation,
			Message: "threshold points must be distinct",
			Coord:   CoordName,
			Cube:    c.Name,
		}
	}
	xp := make([]float64, len(order))
	for i, o := range order {
		xp[i] = orig.Points[o]
	}

	_, _, inner := moved.AxisBlocks(0)
	m := len(ip.thresholds)
	data := make([]float32, m*inner)
	var mask []bool
	if moved.IsMasked() {
		mask = make([]bool, m*inner)
	}

	for j, t := range ip.thresholds {
		lo, hi, w := numeric.Bracket(xp, t)
		a, b := order[lo]*inner, order[hi]*inner
		dst := j * inner
		for i := 0; i < inner; i++ {
			va := moved.Data[a+i]
			if lo == hi {
				data[dst+i] = va
			} else {
				vb := float64(moved.Data[b+i])
				data[dst+i] = float32(float64(va) + w*(vb-float64(va)))
			}
			if mask != nil {
				mask[dst+i] = moved.Mask[a+i] || (lo != hi && moved.Mask[b+i])
			}
		}
	}

	out := &cube.Cube{
		Name:       moved.Name,
		Units:      moved.Units,
		Data:       data,
		Mask:       mask,
		Dims:       moved.Dims,
		Attributes: moved.Attributes,
	}
	out.Dims[0] = cube.DimCoord{Name: orig.Name, Units: orig.Units, Points: slices.Clone(ip.thresholds)}
	for _, a := range moved.Aux {
		if a.IsScalar() || a.Dims[0] != 0 {
			out.Aux = append(out.Aux, a)
		}
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	ip.logger.Debug("interpolated thresholds", "cube", c.Name, "from", len(xp), "to", m)
	return out, nil
}

// collapseRealization averages over the realization axis, ignoring masked
// members. An element with every member masked stays masked and holds the
// unmasked mean of its members.
func collapseRealization(c *cube.Cube, axis int) (*cube.Cube, error) {
	outer, n, inner := c.AxisBlocks(axis)
	data := make([]float32, outer*inner)
	var mask []bool
	if c.IsMasked() {
		mask = make([]bool, outer*inner)
	}
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var sum, all float64
			count := 0
			for k := 0; k < n; k++ {
				idx := (o*n+k)*inner + i
				v := float64(c.Data[idx])
				all += v
				if c.MaskedAt(idx) {
					continue
				}
				sum += v
				count++
			}
			dst := o*inner + i
			if count == 0 {
				data[dst] = float32(all / float64(n))
				mask[dst] = true
				continue
			}
			data[dst] = float32(sum / float64(count))
		}
	}
	return c.WithoutAxis(axis, data, mask)
}
