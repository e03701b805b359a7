package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/probcal/internal/combine"
	"github.com/roach88/probcal/internal/cube"
	"github.com/roach88/probcal/internal/recalibrate"
	"github.com/roach88/probcal/internal/threshold"
)

// Harness executes scenarios.
type Harness struct {
	logger *slog.Logger
}

// New creates a Harness. A nil logger discards output.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	}
	return &Harness{logger: logger}
}

// Run executes a scenario with a silent harness.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(scenario)
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Build and validate every input cube
// 2. Apply the operation
// 3. Evaluate assertions against the output or the error
//
// The returned error is non-nil only when the scenario itself is unusable
// (an input document is not a valid cube). Operation failures are recorded
// in Result.Err and checked by error assertions.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	inputs := make([]*cube.Cube, len(scenario.Inputs))
	for i := range scenario.Inputs {
		c, err := scenario.Inputs[i].Cube()
		if err != nil {
			return nil, fmt.Errorf("scenario %s: inputs[%d]: %w", scenario.Name, i, err)
		}
		inputs[i] = c
	}

	result := NewResult()
	result.Output, result.Err = h.execute(scenario, inputs)
	h.logger.Debug("scenario executed",
		"scenario", scenario.Name,
		"operation", scenario.Operation,
		"error", result.Err,
	)

	expectError := false
	for _, a := range scenario.Assertions {
		if a.Type == AssertError {
			expectError = true
		}
	}
	if result.Err != nil && !expectError {
		result.AddError(fmt.Sprintf("operation failed: %v", result.Err))
		return result, nil
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) execute(s *Scenario, inputs []*cube.Cube) (*cube.Cube, error) {
	switch s.Operation {
	case OpCombine:
		cb, err := combine.New(combine.Config{
			Operator: s.Options.Operator,
			Options: combine.Options{
				UseMidpoint:       s.Options.UseMidpoint,
				BroadcastToCoords: s.Options.BroadcastToCoords,
			},
			Logger: h.logger,
		})
		if err != nil {
			return nil, err
		}
		name := s.Options.NewName
		if name == "" {
			name = inputs[0].Name
		}
		return cb.Combine(inputs, name)

	case OpThreshold:
		ip, err := threshold.New(s.Options.Thresholds, threshold.WithLogger(h.logger))
		if err != nil {
			return nil, err
		}
		return ip.Process(inputs[0])

	case OpRecalibrate:
		r, err := recalibrate.New(*s.Options.Table, recalibrate.WithLogger(h.logger))
		if err != nil {
			return nil, err
		}
		return r.Process(inputs[0])
	}
	return nil, fmt.Errorf("unknown operation %q", s.Operation)
}
