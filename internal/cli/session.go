package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/probcal/internal/cube"
	"github.com/roach88/probcal/internal/cubedoc"
	"github.com/roach88/probcal/internal/observability"
)

// session carries the per-invocation output, logging and metrics state.
type session struct {
	opts      *RootOptions
	formatter *OutputFormatter
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func newSession(opts *RootOptions, cmd *cobra.Command) *session {
	traceID := newTraceID(opts)

	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})

	return &session{
		opts: opts,
		formatter: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
			Verbose:   opts.Verbose,
			TraceID:   traceID,
		},
		logger:  slog.New(handler).With("run_id", traceID, "command", cmd.Name()),
		metrics: observability.NewMetrics(opts.Clock),
	}
}

func newTraceID(opts *RootOptions) string {
	if opts.TraceIDGenerator != nil {
		return opts.TraceIDGenerator()
	}
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// close writes the metrics textfile when one was requested. A failed write
// is logged, not returned: the command's own result stands.
func (s *session) close() {
	if s.opts.MetricsFile == "" {
		return
	}
	if err := s.metrics.WriteTextfile(s.opts.MetricsFile); err != nil {
		s.logger.Warn("metrics not written", "path", s.opts.MetricsFile, "error", err)
	}
}

// CubeSummary describes a cube in command output.
type CubeSummary struct {
	Name   string       `json:"name"`
	Units  string       `json:"units,omitempty"`
	Dims   []DimSummary `json:"dims"`
	Aux    []string     `json:"aux,omitempty"`
	Masked int          `json:"masked"`
}

// DimSummary is a dimension name and its length.
type DimSummary struct {
	Name string `json:"name"`
	Len  int    `json:"len"`
}

// Summarize builds the summary of c.
func Summarize(c *cube.Cube) CubeSummary {
	s := CubeSummary{Name: c.Name, Units: c.Units, Dims: make([]DimSummary, len(c.Dims))}
	for i, d := range c.Dims {
		s.Dims[i] = DimSummary{Name: d.Name, Len: len(d.Points)}
	}
	for _, a := range c.Aux {
		s.Aux = append(s.Aux, a.Name)
	}
	for _, m := range c.Mask {
		if m {
			s.Masked++
		}
	}
	return s
}

func (s CubeSummary) String() string {
	dims := make([]string, len(s.Dims))
	for i, d := range s.Dims {
		dims[i] = fmt.Sprintf("%s=%d", d.Name, d.Len)
	}
	units := s.Units
	if units == "" {
		units = "-"
	}
	return fmt.Sprintf("%s (%s) [%s] masked=%d", s.Name, units, strings.Join(dims, ", "), s.Masked)
}

// ResultData is the JSON payload of a successful cube operation. Document
// holds the result cube when no output file was given.
type ResultData struct {
	Operation string          `json:"operation"`
	Cube      CubeSummary     `json:"cube"`
	Output    string          `json:"output,omitempty"`
	Document  json.RawMessage `json:"document,omitempty"`
}

// emit writes c to output (if set) and reports the result.
func (s *session) emit(operation string, c *cube.Cube, output string) error {
	summary := Summarize(c)
	data := ResultData{Operation: operation, Cube: summary, Output: output}

	if output != "" {
		if err := cubedoc.Write(output, c); err != nil {
			return s.fail(&LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Path: output, Err: err})
		}
		s.formatter.VerboseLog("Wrote %s", output)
	} else if s.formatter.Format == "json" {
		doc, err := cubedoc.Encode(c)
		if err != nil {
			return s.fail(err)
		}
		data.Document = doc
	}

	if s.formatter.Format == "json" {
		return s.formatter.Success(data)
	}
	if output != "" {
		fmt.Fprintf(s.formatter.Writer, "✓ %s: wrote %s to %s\n", operation, summary, output)
		return nil
	}
	fmt.Fprintf(s.formatter.Writer, "✓ %s: %s\n", operation, summary)
	return nil
}

// fail reports err and converts it to an ExitError. Load failures and
// configuration errors are command errors (exit 2); every other operation
// failure exits 1.
func (s *session) fail(err error) error {
	code, message, details, exit := describeError(err)
	s.logger.Debug("command failed", "code", code, "error", err)
	if len(details) > 0 {
		_ = s.formatter.Error(code, message, details)
	} else {
		_ = s.formatter.Error(code, message, nil)
	}
	return WrapExitError(exit, fmt.Sprintf("%s: %s", code, message), err)
}

func describeError(err error) (code, message string, details map[string]string, exit int) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		details = map[string]string{}
		for k, v := range loadErr.Details {
			details[k] = v
		}
		if loadErr.Path != "" {
			details["path"] = loadErr.Path
		}
		if loadErr.Pos.IsValid() {
			details["position"] = fmt.Sprintf("%s:%d:%d", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		return loadErr.Code, loadErr.Message, details, ExitCommandError
	}

	if ce := cube.AsError(err); ce != nil {
		details = map[string]string{}
		for _, k := range ce.DetailKeys() {
			details[k] = ce.Details[k]
		}
		if ce.Coord != "" {
			details["coord"] = ce.Coord
		}
		if ce.Cube != "" {
			details["cube"] = ce.Cube
		}
		if ce.Operator != "" {
			details["operator"] = ce.Operator
		}
		exit = ExitFailure
		if ce.Kind == cube.KindConfiguration {
			exit = ExitCommandError
		}
		return CodeForKind(ce.Kind), ce.Message, details, exit
	}

	return ErrCodeGeneric, err.Error(), nil, ExitFailure
}
