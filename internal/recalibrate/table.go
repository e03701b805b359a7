package recalibrate

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/probcal/internal/cube"
	"github.com/roach88/probcal/internal/numeric"
)

// Extrapolation policies for forecast periods beyond the table.
const (
	ExtrapolateClamp  = "clamp"
	ExtrapolateLinear = "linear"
)

// Table gives Beta distribution parameters as a function of lead time.
//
// Units names the time unit of ForecastPeriod. When empty the table is read
// in the units of the cube's forecast_period coordinate.
type Table struct {
	ForecastPeriod []float64 `json:"forecast_period" yaml:"forecast_period"`
	Alpha          []float64 `json:"alpha" yaml:"alpha"`
	Beta           []float64 `json:"beta" yaml:"beta"`
	Units          string    `json:"units,omitempty" yaml:"units,omitempty"`
	Extrapolation  string    `json:"extrapolation,omitempty" yaml:"extrapolation,omitempty"`
}

// tableSchema is unified with every table document before decoding.
const tableSchema = `
#Table: {
	forecast_period: [number, ...number]
	alpha: [number, ...number]
	beta: [number, ...number]
	units?: string
	extrapolation: *"clamp" | "linear"
}
`

// Validate checks the table is usable: at least one entry, equal lengths,
// strictly ascending finite forecast periods, finite parameters and a
// known time unit.
func (t *Table) Validate() error {
	n := len(t.ForecastPeriod)
	if n == 0 {
		return tableError("forecast_period", "table must have at least one entry")
	}
	if len(t.Alpha) != n || len(t.Beta) != n {
		return tableError("", "forecast_period, alpha and beta must have equal lengths (got %d, %d, %d)",
			n, len(t.Alpha), len(t.Beta))
	}
	columns := []struct {
		name string
		vals []float64
	}{{"forecast_period", t.ForecastPeriod}, {"alpha", t.Alpha}, {"beta", t.Beta}}
	for _, col := range columns {
		for i, v := range col.vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return tableError(col.name, "%s[%d] is not finite", col.name, i)
			}
		}
	}
	if !numeric.StrictlyAscending(t.ForecastPeriod) {
		return tableError("forecast_period", "forecast_period must be strictly ascending")
	}
	if t.Units != "" && !cube.IsTimeUnit(t.Units) {
		return tableError("units", "unknown time unit %q", t.Units)
	}
	switch t.Extrapolation {
	case "", ExtrapolateClamp, ExtrapolateLinear:
	default:
		return tableError("extrapolation", "extrapolation must be %q or %q, got %q",
			ExtrapolateClamp, ExtrapolateLinear, t.Extrapolation)
	}
	return nil
}

// Parameters interpolates alpha and beta at forecast period fp, given in
// the table's units.
func (t *Table) Parameters(fp float64) (alpha, beta float64) {
	if t.Extrapolation == ExtrapolateLinear {
		return numeric.Extrapolate(fp, t.ForecastPeriod, t.Alpha), numeric.Extrapolate(fp, t.ForecastPeriod, t.Beta)
	}
	return numeric.Interp(fp, t.ForecastPeriod, t.Alpha), numeric.Interp(fp, t.ForecastPeriod, t.Beta)
}

// LoadTable reads and validates a table from a JSON or CUE file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recalibration table: %w", err)
	}
	return ParseTable(data, filepath.Base(path))
}

// ParseTable checks data against the table schema, decodes it and
// validates the result. filename is used in error positions only.
func ParseTable(data []byte, filename string) (*Table, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(tableSchema, cue.Filename("table.cue")).LookupPath(cue.ParsePath("#Table"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile table schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueTableError(err)
	}
	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueTableError(err)
	}

	var t Table
	if err := v.Decode(&t); err != nil {
		return nil, cueTableError(err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func tableError(field, format string, args ...any) *cube.Error {
	e := cube.Errorf(cube.KindConfiguration, "recalibration table: "+format, args...)
	if field != "" {
		e.Details = map[string]string{"field": field}
	}
	return e
}

// cueTableError reports the first CUE error with its source position.
func cueTableError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return tableError("", "%v", err)
	}
	first := errs[0]
	e := tableError("", "%s", first.Error())
	if pos := cueerrors.Positions(first); len(pos) > 0 && pos[0].IsValid() {
		e.Details = map[string]string{"position": fmt.Sprintf("%s:%d:%d", pos[0].Filename(), pos[0].Line(), pos[0].Column())}
	}
	return e
}
