package testutil

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/probcal/internal/cube"
)

// Reference metadata shared by the synthetic cubes. The validity time is
// 2015-11-19T01:00Z, issued three hours earlier.
const (
	ValidityTime          = 1447894800
	ForecastReferenceTime = 1447884000
	ForecastPeriod        = ValidityTime - ForecastReferenceTime
)

// Option adjusts a synthetic cube before it is validated.
type Option func(*builder)

type builder struct {
	name        string
	units       string
	mask        []bool
	realization int
	thrUnits    string
	aux         []cube.AuxCoord
	attributes  map[string]string
}

// WithName overrides the cube name.
func WithName(name string) Option {
	return func(b *builder) { b.name = name }
}

// WithUnits overrides the cube units.
func WithUnits(units string) Option {
	return func(b *builder) { b.units = units }
}

// WithMask attaches a validity mask. The slice is used as given.
func WithMask(mask []bool) Option {
	return func(b *builder) { b.mask = mask }
}

// WithRealizations adds a leading realization axis of length n. The data
// passed to the builder must include it.
func WithRealizations(n int) Option {
	return func(b *builder) { b.realization = n }
}

// WithThresholdUnits overrides the threshold coordinate units (default K).
func WithThresholdUnits(units string) Option {
	return func(b *builder) { b.thrUnits = units }
}

// WithAux adds a coordinate, replacing any existing one of the same name.
func WithAux(a cube.AuxCoord) Option {
	return func(b *builder) {
		b.aux = slices.DeleteFunc(b.aux, func(x cube.AuxCoord) bool { return x.Name == a.Name })
		b.aux = append(b.aux, a)
	}
}

// WithoutAux removes a default coordinate.
func WithoutAux(name string) Option {
	return func(b *builder) {
		b.aux = slices.DeleteFunc(b.aux, func(x cube.AuxCoord) bool { return x.Name == name })
	}
}

// WithTime sets the scalar validity time, with optional bounds.
func WithTime(point float64, bounds ...cube.Bounds) Option {
	return WithAux(Scalar("time", "seconds", point, bounds...))
}

// WithForecastPeriod sets the scalar forecast_period.
func WithForecastPeriod(point float64, units string) Option {
	return WithAux(Scalar("forecast_period", units, point))
}

// WithAttributes sets cube attributes.
func WithAttributes(attrs map[string]string) Option {
	return func(b *builder) { b.attributes = maps.Clone(attrs) }
}

// Scalar builds a scalar auxiliary coordinate.
func Scalar(name, units string, point float64, bounds ...cube.Bounds) cube.AuxCoord {
	a := cube.AuxCoord{Name: name, Units: units, Points: []float64{point}}
	if len(bounds) > 0 {
		a.Bounds = []cube.Bounds{bounds[0]}
	}
	return a
}

// Filled returns n copies of v.
func Filled(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// VariableCube builds a cube over an ny×nx projection grid with the
// default time coordinates. data is row-major (y, x).
//
// It panics if the result is not a valid cube.
func VariableCube(data []float32, ny, nx int, opts ...Option) *cube.Cube {
	b := newBuilder("air_temperature", "K")
	return b.build(data, nil, ny, nx, opts)
}

// ProbabilityCube builds a probability-of-exceedance cube with a leading
// threshold axis followed by an ny×nx grid.
//
// It panics if the result is not a valid cube.
func ProbabilityCube(data []float32, thresholds []float64, ny, nx int, opts ...Option) *cube.Cube {
	b := newBuilder("probability_of_air_temperature_above_threshold", "1")
	return b.build(data, thresholds, ny, nx, opts)
}

func newBuilder(name, units string) *builder {
	return &builder{
		name:     name,
		units:    units,
		thrUnits: "K",
		aux: []cube.AuxCoord{
			Scalar("time", "seconds", ValidityTime),
			Scalar("forecast_reference_time", "seconds", ForecastReferenceTime),
			Scalar("forecast_period", "seconds", ForecastPeriod),
		},
	}
}

func (b *builder) build(data []float32, thresholds []float64, ny, nx int, opts []Option) *cube.Cube {
	for _, opt := range opts {
		opt(b)
	}

	var dims []cube.DimCoord
	if b.realization > 0 {
		dims = append(dims, cube.DimCoord{Name: "realization", Units: "1", Points: Range(b.realization, 0, 1)})
	}
	if thresholds != nil {
		dims = append(dims, cube.DimCoord{Name: "threshold", Units: b.thrUnits, Points: slices.Clone(thresholds)})
	}
	dims = append(dims,
		cube.DimCoord{Name: "projection_y_coordinate", Units: "m", Points: Range(ny, -2000, 2000)},
		cube.DimCoord{Name: "projection_x_coordinate", Units: "m", Points: Range(nx, -2000, 2000)},
	)

	c := &cube.Cube{
		Name:       b.name,
		Units:      b.units,
		Data:       data,
		Mask:       b.mask,
		Dims:       dims,
		Aux:        b.aux,
		Attributes: b.attributes,
	}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}
	return c
}

// Range returns n evenly spaced points starting at start.
func Range(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
