package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/probcal/internal/cubedoc"
)

// Snapshot returns the canonical bytes compared against golden files: the
// cube document of the output, or the error text for failed operations.
func Snapshot(result *Result) ([]byte, error) {
	if result.Err != nil {
		return []byte("error: " + result.Err.Error() + "\n"), nil
	}
	return cubedoc.Encode(result.Output)
}

// RunWithGolden executes a scenario and compares the outcome against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot be executed. Assertion failures are
// reported through t; a snapshot mismatch fails t via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(result)
	if err != nil {
		return err
	}

	// Compare with golden file using goldie
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)

	return nil
}
