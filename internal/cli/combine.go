package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/probcal/internal/combine"
	"github.com/roach88/probcal/internal/cube"
)

// CombineOptions holds flags for the combine command.
type CombineOptions struct {
	*RootOptions
	Operation         string
	NewName           string
	UseMidpoint       bool
	BroadcastToCoords []string
	Output            string
}

// NewCombineCommand creates the combine command.
func NewCombineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CombineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "combine <cube>...",
		Short: "Combine cubes with an arithmetic or reduction operator",
		Long: `Combine two or more cubes element-wise.

Operators: add (+), subtract (-), multiply (*), divide (/), min, max, mean.
Scalar coordinates that differ between inputs (time, forecast_period, ...)
are merged into one point whose bounds span every input.

Example:
  probcal combine --operation add --new-name total_precipitation -o total.json rain.json snow.json
  probcal combine --operation multiply --broadcast-to-coords threshold prob.json weights.json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Operation, "operation", "add", "combining operator")
	cmd.Flags().StringVar(&opts.NewName, "new-name", "", "name of the result cube (default: name of the first input)")
	cmd.Flags().BoolVar(&opts.UseMidpoint, "use-midpoint", false, "place merged scalar coordinates at the midpoint of their bounds")
	cmd.Flags().StringSliceVar(&opts.BroadcastToCoords, "broadcast-to-coords", nil, "dimensions to broadcast inputs along")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the result cube document to this path")

	return cmd
}

func runCombine(opts *CombineOptions, paths []string, cmd *cobra.Command) error {
	s := newSession(opts.RootOptions, cmd)
	defer s.close()

	combiner, err := combine.New(combine.Config{
		Operator: opts.Operation,
		Options: combine.Options{
			UseMidpoint:       opts.UseMidpoint,
			BroadcastToCoords: opts.BroadcastToCoords,
		},
		Logger: s.logger,
	})
	if err != nil {
		return s.fail(err)
	}

	cubes, err := LoadCubes(paths)
	if err != nil {
		return s.fail(err)
	}
	s.formatter.VerboseLog("Loaded %d cube(s)", len(cubes))

	name := opts.NewName
	if name == "" {
		name = cubes[0].Name
	}

	out, err := s.metrics.Observe("combine", func() (*cube.Cube, error) {
		return combiner.Combine(cubes, name)
	})
	if err != nil {
		return s.fail(err)
	}
	return s.emit("combine", out, opts.Output)
}
