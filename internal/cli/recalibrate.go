package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/probcal/internal/cube"
	"github.com/roach88/probcal/internal/recalibrate"
)

// RecalibrateOptions holds flags for the recalibrate command.
type RecalibrateOptions struct {
	*RootOptions
	Workers int
	Output  string
}

// NewRecalibrateCommand creates the recalibrate command.
func NewRecalibrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecalibrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recalibrate <forecast> <table>",
		Short: "Recalibrate probabilities with a lead-time dependent Beta CDF",
		Long: `Map every probability p in the forecast to BetaCDF(p; alpha, beta), with
alpha and beta interpolated from the table at each forecast period.

The table is a JSON or CUE document:

  {
    "forecast_period": [0, 6, 12],
    "alpha": [1, 2, 3],
    "beta": [1, 4, 6],
    "units": "hours",
    "extrapolation": "clamp"
  }

Example:
  probcal recalibrate -o calibrated.json rain_prob.json table.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecalibrate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "forecast-period slices processed concurrently (0 = GOMAXPROCS)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the result cube document to this path")

	return cmd
}

func runRecalibrate(opts *RecalibrateOptions, forecastPath, tablePath string, cmd *cobra.Command) error {
	s := newSession(opts.RootOptions, cmd)
	defer s.close()

	table, err := LoadTable(tablePath)
	if err != nil {
		return s.fail(err)
	}
	s.formatter.VerboseLog("Loaded table with %d entries", len(table.ForecastPeriod))

	r, err := recalibrate.New(*table,
		recalibrate.WithLogger(s.logger),
		recalibrate.WithWorkers(opts.Workers),
	)
	if err != nil {
		return s.fail(err)
	}

	in, err := LoadCube(forecastPath)
	if err != nil {
		return s.fail(err)
	}

	out, err := s.metrics.Observe("recalibrate", func() (*cube.Cube, error) {
		return r.Process(in)
	})
	if err != nil {
		return s.fail(err)
	}
	return s.emit("recalibrate", out, opts.Output)
}
