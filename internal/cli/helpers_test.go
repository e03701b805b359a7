package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/probcal/internal/cube"
	"github.com/roach88/probcal/internal/cubedoc"
	"github.com/roach88/probcal/internal/testutil"
)

const testTraceID = "0192f0c1-0000-7000-8000-000000000000"

func probCube(v float32, opts ...testutil.Option) *cube.Cube {
	return testutil.ProbabilityCube(testutil.Filled(4, v), []float64{273.15}, 2, 2, opts...)
}

// writeCube stores c as a cube document in a fresh temp dir.
func writeCube(t *testing.T, name string, c *cube.Cube) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, cubedoc.Write(path, c))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testRootOptions(format string) *RootOptions {
	return &RootOptions{
		Format:           format,
		TraceIDGenerator: testutil.FixedTraceID(testTraceID),
	}
}

// execute runs cmd and returns stdout, stderr and the command error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decodeResult unmarshals a successful JSON response into ResultData.
func decodeResult(t *testing.T, out string) (CLIResponse, ResultData) {
	t.Helper()
	var raw struct {
		CLIResponse
		Data ResultData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	return raw.CLIResponse, raw.Data
}

// decodeErrorResponse unmarshals an error JSON response.
func decodeErrorResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	return resp
}
