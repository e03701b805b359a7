package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/probcal/internal/cube"
	"github.com/roach88/probcal/internal/cubedoc"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool         `json:"valid"`
	Files []FileResult `json:"files"`
}

// FileResult is the outcome of validating one cube document.
type FileResult struct {
	Path  string       `json:"path"`
	Valid bool         `json:"valid"`
	Cube  *CubeSummary `json:"cube,omitempty"`
	Error *CLIError    `json:"error,omitempty"`
	Line  int          `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <cube>...",
		Short: "Validate cube documents",
		Long: `Validate JSON or YAML cube documents without running an operation.

Each document is checked against the cube schema (field names and types)
and then against the cube model: coordinate lengths match the data,
coordinate names are unique, bounds contain their points and the mask
matches the data.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	s := newSession(opts, cmd)
	defer s.close()

	results := make([]FileResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		s.formatter.VerboseLog("Validating %s", path)

		c, err := s.metrics.Observe("validate", func() (*cube.Cube, error) {
			return validateFile(path)
		})

		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Code == ErrCodeNotFound {
			// Missing inputs are command errors, not validation failures
			return s.fail(err)
		}

		result := FileResult{Path: path, Valid: err == nil}
		if err != nil {
			failed++
			code, message, _, _ := describeError(err)
			result.Error = &CLIError{Code: code, Message: message}
			if loadErr != nil && loadErr.Pos.IsValid() {
				result.Line = loadErr.Pos.Line()
			}
		} else {
			summary := Summarize(c)
			result.Cube = &summary
		}
		results = append(results, result)
	}

	if failed > 0 {
		return outputValidationErrors(s.formatter, results, failed)
	}
	return outputValidateSuccess(s.formatter, results)
}

// validateFile runs the schema check and then builds the cube.
func validateFile(path string) (*cube.Cube, error) {
	data, err := readInput(path, "cube")
	if err != nil {
		return nil, err
	}
	if err := CheckCubeSchema(path, data); err != nil {
		return nil, err
	}
	c, err := cubedoc.Decode(data)
	if err != nil {
		return nil, decodeError(path, err)
	}
	return c, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, results []FileResult) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Files: results})
	}

	for _, r := range results {
		fmt.Fprintf(formatter.Writer, "✓ %s: %s\n", r.Path, r.Cube)
	}
	fmt.Fprintln(formatter.Writer, "✓ All cubes valid")
	return nil
}

// outputValidationErrors outputs every file result with its errors.
func outputValidationErrors(formatter *OutputFormatter, results []FileResult, failed int) error {
	var first *CLIError
	for _, r := range results {
		if r.Error != nil {
			first = r.Error
			break
		}
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status:  "error",
			Data:    ValidationResult{Valid: false, Files: results},
			Error:   first,
			TraceID: formatter.TraceID,
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d file(s)", failed))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(formatter.Writer, "✓ %s\n", r.Path)
			continue
		}
		if r.Line > 0 {
			fmt.Fprintf(formatter.Writer, "✗ %s line %d\n", r.Path, r.Line)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s\n", r.Path)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", r.Error.Code, r.Error.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d file(s)", failed))
}
