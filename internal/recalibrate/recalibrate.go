// Package recalibrate applies a lead-time dependent Beta distribution
// correction to probability forecasts.
//
// For each forecast period in the cube, alpha and beta are interpolated from
// a Table and the Beta(alpha, beta) CDF is applied to the probabilities at
// that forecast period. Coordinates, mask and attributes are unchanged.
package recalibrate

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/roach88/probcal/internal/cube"
)

const (
	thresholdCoord      = "threshold"
	forecastPeriodCoord = "forecast_period"
)

// Option configures a Recalibrator.
type Option func(*Recalibrator)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recalibrator) { r.logger = logger }
}

// WithWorkers bounds the number of forecast-period slices processed at
// once. Values below 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Recalibrator) { r.workers = n }
}

// Recalibrator holds a validated table. It is immutable and safe for
// concurrent use.
type Recalibrator struct {
	table   Table
	logger  *slog.Logger
	workers int
}

// New validates table and returns a Recalibrator.
func New(table Table, opts ...Option) (*Recalibrator, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	table.ForecastPeriod = slices.Clone(table.ForecastPeriod)
	table.Alpha = slices.Clone(table.Alpha)
	table.Beta = slices.Clone(table.Beta)

	r := &Recalibrator{
		table:  table,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = runtime.GOMAXPROCS(0)
	}
	return r, nil
}

// Recalibrate is shorthand for New followed by Process.
func Recalibrate(c *cube.Cube, table Table, opts ...Option) (*cube.Cube, error) {
	r, err := New(table, opts...)
	if err != nil {
		return nil, err
	}
	return r.Process(c)
}

// slice is the set of elements sharing one forecast period.
type slice struct {
	fp          float64
	alpha, beta float64
}

// Process returns a recalibrated copy of c. Every interpolated parameter is
// checked before any data is transformed.
func (r *Recalibrator) Process(c *cube.Cube) (*cube.Cube, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !c.HasDim(thresholdCoord) {
		return nil, &cube.Error{
			Kind:    cube.KindCoordinateNotFound,
			Message: "input cube must be a probability forecast with a threshold dimension",
			Coord:   thresholdCoord,
			Cube:    c.Name,
		}
	}
	fpc, ok := c.Coord(forecastPeriodCoord)
	if !ok {
		return nil, &cube.Error{
			Kind:    cube.KindCoordinateNotFound,
			Message: "input cube must contain forecast_period coordinate",
			Coord:   forecastPeriodCoord,
			Cube:    c.Name,
		}
	}

	periods := fpc.Points
	if r.table.Units != "" && fpc.Units != r.table.Units {
		converted, err := cube.ConvertTimes(fpc.Points, fpc.Units, r.table.Units)
		if err != nil {
			return nil, err
		}
		periods = converted
	}

	parts := make([]slice, len(periods))
	for k, fp := range periods {
		alpha, beta := r.table.Parameters(fp)
		if !(alpha > 0 && beta > 0) {
			return nil, &cube.Error{
				Kind:    cube.KindInvalidParameter,
				Message: "interpolated alpha and beta parameters must be > 0",
				Coord:   forecastPeriodCoord,
				Cube:    c.Name,
				Details: map[string]string{
					"forecast_period": strconv.FormatFloat(fp, 'g', -1, 64),
					"alpha":           strconv.FormatFloat(alpha, 'g', -1, 64),
					"beta":            strconv.FormatFloat(beta, 'g', -1, 64),
				},
			}
		}
		parts[k] = slice{fp: fp, alpha: alpha, beta: beta}
	}

	out := c.Clone()
	outer, n, inner := 1, 1, len(out.Data)
	if fpc.Axis >= 0 {
		outer, n, inner = c.AxisBlocks(fpc.Axis)
	}

	var g errgroup.Group
	g.SetLimit(r.workers)
	for k, s := range parts {
		if s.alpha == 1 && s.beta == 1 {
			r.logger.Debug("identity parameters, slice unchanged", "forecast_period", s.fp)
			continue
		}
		k, s := k, s
		g.Go(func() error {
			dist := distuv.Beta{Alpha: s.alpha, Beta: s.beta}
			for o := 0; o < outer; o++ {
				start := (o*n + k) * inner
				applyCDF(dist, out.Data[start:start+inner])
			}
			r.logger.Debug("recalibrated slice",
				"forecast_period", s.fp,
				"alpha", s.alpha,
				"beta", s.beta,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("recalibrate %s: %w", c.Name, err)
	}
	return out, nil
}

// applyCDF replaces each probability with its Beta CDF value. Values are
// clamped into [0, 1]; NaN is left alone.
func applyCDF(dist distuv.Beta, data []float32) {
	for i, v := range data {
		if math.IsNaN(float64(v)) {
			continue
		}
		x := math.Min(math.Max(float64(v), 0), 1)
		data[i] = float32(dist.CDF(x))
	}
}
