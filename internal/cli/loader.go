package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/probcal/internal/cube"
	"github.com/roach88/probcal/internal/cubedoc"
	"github.com/roach88/probcal/internal/recalibrate"
)

// Load and I/O error codes.
const (
	ErrCodeGeneric      = "E001" // Generic error
	ErrCodeDecodeFailed = "E002" // Document could not be parsed
	ErrCodeEmpty        = "E003" // Document or argument list is empty
	ErrCodeSchemaFailed = "E004" // Document does not match the schema
	ErrCodeNotFound     = "E005" // File not found
	ErrCodeInvalidCube  = "E006" // Document decoded but the cube is inconsistent
	ErrCodeWriteFailed  = "E007" // Output could not be written
)

// Operation error codes, one per cube.Kind.
const (
	ErrCodeConfiguration      = "E201"
	ErrCodeInsufficientInput  = "E202"
	ErrCodeShapeMismatch      = "E203"
	ErrCodeCoordinateNotFound = "E204"
	ErrCodeCoordinateConflict = "E205"
	ErrCodeInvalidParameter   = "E206"
	ErrCodeInterpolation      = "E207"
	ErrCodeInvalidCubeInput   = "E208"
)

var kindCodes = map[cube.Kind]string{
	cube.KindConfiguration:      ErrCodeConfiguration,
	cube.KindInsufficientInput:  ErrCodeInsufficientInput,
	cube.KindShapeMismatch:      ErrCodeShapeMismatch,
	cube.KindCoordinateNotFound: ErrCodeCoordinateNotFound,
	cube.KindCoordinateConflict: ErrCodeCoordinateConflict,
	cube.KindInvalidParameter:   ErrCodeInvalidParameter,
	cube.KindInterpolation:      ErrCodeInterpolation,
	cube.KindInvalidCube:        ErrCodeInvalidCubeInput,
}

// CodeForKind returns the CLI error code for a cube error kind.
func CodeForKind(kind cube.Kind) string {
	if code, ok := kindCodes[kind]; ok {
		return code
	}
	return ErrCodeGeneric
}

// LoadError represents an error that occurred while reading an input file.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Pos     token.Pos         // CUE position if available
	Details map[string]string // Extra context from the underlying error
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadCube reads one cube document.
func LoadCube(path string) (*cube.Cube, error) {
	data, err := readInput(path, "cube")
	if err != nil {
		return nil, err
	}
	c, err := cubedoc.Decode(data)
	if err != nil {
		return nil, decodeError(path, err)
	}
	return c, nil
}

// LoadCubes reads every cube document, stopping at the first failure.
func LoadCubes(paths []string) ([]*cube.Cube, error) {
	if len(paths) == 0 {
		return nil, &LoadError{Code: ErrCodeEmpty, Message: "no cube files given"}
	}
	cubes := make([]*cube.Cube, 0, len(paths))
	for _, p := range paths {
		c, err := LoadCube(p)
		if err != nil {
			return nil, err
		}
		cubes = append(cubes, c)
	}
	return cubes, nil
}

// LoadTable reads a recalibration table.
func LoadTable(path string) (*recalibrate.Table, error) {
	data, err := readInput(path, "recalibration table")
	if err != nil {
		return nil, err
	}
	t, err := recalibrate.ParseTable(data, filepath.Base(path))
	if err != nil {
		le := &LoadError{Code: ErrCodeSchemaFailed, Message: err.Error(), Path: path, Err: err}
		if ce := cube.AsError(err); ce != nil {
			le.Message = ce.Message
			le.Details = ce.Details
		}
		return nil, le
	}
	return t, nil
}

func readInput(path, what string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s file not found: %s", what, path), Path: path, Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("error reading %s file: %v", what, err), Path: path, Err: err}
	}
	return data, nil
}

func decodeError(path string, err error) *LoadError {
	le := &LoadError{Code: ErrCodeDecodeFailed, Message: err.Error(), Path: path, Err: err}
	switch {
	case errors.Is(err, cubedoc.ErrEmpty):
		le.Code = ErrCodeEmpty
	case cube.IsKind(err, cube.KindInvalidCube):
		le.Code = ErrCodeInvalidCube
		le.Message = cube.AsError(err).Message
	}
	return le
}

// cubeSchema mirrors cubedoc.Document. Definitions are closed, so unknown
// fields are rejected with a source position.
const cubeSchema = `
#Coord: {
	name:    string & !=""
	units?:  string
	points: [...number]
	bounds?: [...[number, number]]
	dims?: [...int & >=0]
}

#Cube: {
	name:   string & !=""
	units?: string
	dims: [...#Coord]
	aux?: [...#Coord]
	data: [...(number | null | "+Inf" | "-Inf" | "Inf" | "NaN")]
	mask?: [...bool]
	attributes?: [string]: string
}
`

// CheckCubeSchema checks a JSON or YAML cube document against the cube
// schema without building the cube.
func CheckCubeSchema(path string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(cubeSchema, cue.Filename("cube.cue")).LookupPath(cue.ParsePath("#Cube"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile cube schema: %w", err)
	}

	f, err := cueyaml.Extract(filepath.Base(path), data)
	if err != nil {
		return schemaError(path, ErrCodeDecodeFailed, err)
	}
	v := ctx.BuildFile(f)
	if err := v.Err(); err != nil {
		return schemaError(path, ErrCodeDecodeFailed, err)
	}
	if err := schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return schemaError(path, ErrCodeSchemaFailed, err)
	}
	return nil
}

// schemaError reports the first CUE error with its source position.
func schemaError(path, code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error(), Path: path, Err: err}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return le
	}
	le.Message = errs[0].Error()
	if pos := cueerrors.Positions(errs[0]); len(pos) > 0 {
		le.Pos = pos[0]
	}
	return le
}
