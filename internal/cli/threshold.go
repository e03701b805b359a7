package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/probcal/internal/cube"
	"github.com/roach88/probcal/internal/threshold"
)

// ThresholdOptions holds flags for the threshold-interpolate command.
type ThresholdOptions struct {
	*RootOptions
	Thresholds string
	Output     string
}

// NewThresholdCommand creates the threshold-interpolate command.
func NewThresholdCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ThresholdOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "threshold-interpolate <cube>",
		Short: "Resample a probability cube onto new thresholds",
		Long: `Linearly interpolate a probability forecast onto a new set of threshold
values. Requested thresholds outside the source range take the value of the
nearest source threshold. A realization dimension is collapsed to its mean
first.

Example:
  probcal threshold-interpolate --thresholds 0.5,1,2 -o resampled.json rain_prob.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThreshold(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Thresholds, "thresholds", "", "comma-separated threshold values (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the result cube document to this path")
	_ = cmd.MarkFlagRequired("thresholds")

	return cmd
}

func runThreshold(opts *ThresholdOptions, path string, cmd *cobra.Command) error {
	s := newSession(opts.RootOptions, cmd)
	defer s.close()

	values, err := threshold.ParseThresholds(opts.Thresholds)
	if err != nil {
		return s.fail(err)
	}
	ip, err := threshold.New(values, threshold.WithLogger(s.logger))
	if err != nil {
		return s.fail(err)
	}

	in, err := LoadCube(path)
	if err != nil {
		return s.fail(err)
	}

	out, err := s.metrics.Observe("threshold-interpolate", func() (*cube.Cube, error) {
		return ip.Process(in)
	})
	if err != nil {
		return s.fail(err)
	}
	return s.emit("threshold-interpolate", out, opts.Output)
}
