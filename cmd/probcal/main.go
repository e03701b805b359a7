// Command probcal post-processes probabilistic forecast cubes.
//
// Usage:
//
//	probcal combine --operation add --new-name total -o total.json a.json b.json
//	probcal threshold-interpolate --thresholds 0.5,1,2 -o out.json prob.json
//	probcal recalibrate -o calibrated.json prob.json table.json
//	probcal validate a.json b.yaml
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/probcal/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		code := cli.GetExitCode(err)
		// Command errors raised by cobra itself (unknown flag, wrong arg
		// count) are not ExitErrors and have not been printed yet.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			code = cli.ExitCommandError
		}
		os.Exit(code)
	}
}
