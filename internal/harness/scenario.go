package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/probcal/internal/cubedoc"
	"github.com/roach88/probcal/internal/recalibrate"
)

// Operation names accepted in scenarios.
const (
	OpCombine     = "combine"
	OpThreshold   = "threshold-interpolate"
	OpRecalibrate = "recalibrate"
)

// Scenario defines a conformance test scenario: one operation applied to
// inline input cubes, with assertions on the output.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Operation is one of OpCombine, OpThreshold or OpRecalibrate.
	Operation string `yaml:"operation"`

	// Options configure the operation.
	Options Options `yaml:"options,omitempty"`

	// Inputs are the cubes the operation is applied to, in order.
	Inputs []cubedoc.Document `yaml:"inputs"`

	// Assertions validate the output or the error.
	Assertions []Assertion `yaml:"assertions"`
}

// Options holds per-operation settings.
type Options struct {
	Operator          string             `yaml:"operator,omitempty"`
	NewName           string             `yaml:"new_name,omitempty"`
	UseMidpoint       bool               `yaml:"use_midpoint,omitempty"`
	BroadcastToCoords []string           `yaml:"broadcast_to_coords,omitempty"`
	Thresholds        []float64          `yaml:"thresholds,omitempty"`
	Table             *recalibrate.Table `yaml:"table,omitempty"`
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "data": Values match within Tolerance
	// - "mask": Mask matches
	// - "coord": Coord has Points, Bounds and Units (or is Absent)
	// - "shape": Shape matches
	// - "metadata": Name and Units match
	// - "error": the operation failed with Kind
	Type string `yaml:"type"`

	Values    cubedoc.Values `yaml:"values,omitempty"`
	Tolerance float64        `yaml:"tolerance,omitempty"` // default 1e-6
	Mask      []bool         `yaml:"mask,omitempty"`

	Coord  string      `yaml:"coord,omitempty"`
	Points []float64   `yaml:"points,omitempty"`
	Bounds [][]float64 `yaml:"bounds,omitempty"`
	Units  *string     `yaml:"units,omitempty"`
	Absent bool        `yaml:"absent,omitempty"`

	Shape []int  `yaml:"shape,omitempty"`
	Name  string `yaml:"name,omitempty"`

	Kind string `yaml:"kind,omitempty"`
}

// Assertion type constants.
const (
	AssertData     = "data"
	AssertMask     = "mask"
	AssertCoord    = "coord"
	AssertShape    = "shape"
	AssertMetadata = "metadata"
	AssertError    = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(p), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(p)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Inputs) == 0 {
		return fmt.Errorf("inputs list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	switch s.Operation {
	case OpCombine:
		if s.Options.Operator == "" {
			return fmt.Errorf("options.operator is required for %s", OpCombine)
		}
	case OpThreshold:
		if len(s.Inputs) != 1 {
			return fmt.Errorf("%s takes exactly one input, got %d", OpThreshold, len(s.Inputs))
		}
		if len(s.Options.Thresholds) == 0 {
			return fmt.Errorf("options.thresholds is required for %s", OpThreshold)
		}
	case OpRecalibrate:
		if len(s.Inputs) != 1 {
			return fmt.Errorf("%s takes exactly one input, got %d", OpRecalibrate, len(s.Inputs))
		}
		if s.Options.Table == nil {
			return fmt.Errorf("options.table is required for %s", OpRecalibrate)
		}
	case "":
		return fmt.Errorf("operation is required")
	default:
		return fmt.Errorf("unknown operation %q", s.Operation)
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertData:
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values is required for data", index)
		}
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
		}
	case AssertMask:
		// An empty mask asserts the output is unmasked
	case AssertCoord:
		if a.Coord == "" {
			return fmt.Errorf("assertions[%d]: coord is required for coord", index)
		}
		if !a.Absent && a.Points == nil && a.Bounds == nil && a.Units == nil {
			return fmt.Errorf("assertions[%d]: coord needs points, bounds, units or absent", index)
		}
	case AssertShape:
		if a.Shape == nil {
			return fmt.Errorf("assertions[%d]: shape is required for shape", index)
		}
	case AssertMetadata:
		if a.Name == "" && a.Units == nil {
			return fmt.Errorf("assertions[%d]: name or units is required for metadata", index)
		}
	case AssertError:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
