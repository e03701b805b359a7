// Package cubedoc converts cubes to and from a self-describing JSON or YAML
// document.
//
// Encoding is canonical: the same cube always produces byte-identical
// output. Names and units are NFC-normalized, map keys are sorted, data
// values are written at float32 precision and non-finite values use null
// (NaN) or the strings "+Inf" and "-Inf".
//
// Decoding accepts JSON or YAML (JSON is read as YAML) and rejects unknown
// fields.
package cubedoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/probcal/internal/cube"
)

// Document is the serialized form of a cube.
type Document struct {
	Name       string            `json:"name" yaml:"name"`
	Units      string            `json:"units,omitempty" yaml:"units,omitempty"`
	Dims       []Coord           `json:"dims" yaml:"dims"`
	Aux        []Coord           `json:"aux,omitempty" yaml:"aux,omitempty"`
	Data       Values            `json:"data" yaml:"data"`
	Mask       []bool            `json:"mask,omitempty" yaml:"mask,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Coord is a serialized dimension or auxiliary coordinate. Dims is only
// meaningful for auxiliary coordinates.
type Coord struct {
	Name   string      `json:"name" yaml:"name"`
	Units  string      `json:"units,omitempty" yaml:"units,omitempty"`
	Points []float64   `json:"points" yaml:"points"`
	Bounds [][]float64 `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Dims   []int       `json:"dims,omitempty" yaml:"dims,omitempty"`
}

// Values is a row-major data array.
type Values []float32

// MarshalJSON writes each value at float32 precision.
func (v Values) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(v)*8+2)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendValue(buf, f)
	}
	return append(buf, ']'), nil
}

// UnmarshalYAML reads a sequence of numbers, null (NaN) or the infinity
// strings.
func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: data must be a sequence", node.Line)
	}
	out := make(Values, len(node.Content))
	for i, n := range node.Content {
		f, err := parseValue(n)
		if err != nil {
			return err
		}
		out[i] = f
	}
	*v = out
	return nil
}

func appendValue(buf []byte, f float32) []byte {
	switch {
	case math.IsNaN(float64(f)):
		return append(buf, "null"...)
	case math.IsInf(float64(f), 1):
		return append(buf, `"+Inf"`...)
	case math.IsInf(float64(f), -1):
		return append(buf, `"-Inf"`...)
	}
	return strconv.AppendFloat(buf, float64(f), 'g', -1, 32)
}

func parseValue(n *yaml.Node) (float32, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: data values must be scalars", n.Line)
	}
	switch n.ShortTag() {
	case "!!null":
		return float32(math.NaN()), nil
	case "!!str":
		switch n.Value {
		case "+Inf", "Inf":
			return float32(math.Inf(1)), nil
		case "-Inf":
			return float32(math.Inf(-1)), nil
		case "NaN":
			return float32(math.NaN()), nil
		}
		return 0, fmt.Errorf("line %d: data value %q is not a number", n.Line, n.Value)
	}
	var f float64
	if err := n.Decode(&f); err != nil {
		return 0, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return float32(f), nil
}

// FromCube converts c to a Document. Slices are shared with c.
func FromCube(c *cube.Cube) *Document {
	doc := &Document{
		Name:       c.Name,
		Units:      c.Units,
		Dims:       make([]Coord, len(c.Dims)),
		Data:       Values(c.Data),
		Mask:       c.Mask,
		Attributes: c.Attributes,
	}
	for i, d := range c.Dims {
		doc.Dims[i] = Coord{Name: d.Name, Units: d.Units, Points: d.Points, Bounds: fromBounds(d.Bounds)}
	}
	for _, a := range c.Aux {
		doc.Aux = append(doc.Aux, Coord{Name: a.Name, Units: a.Units, Points: a.Points, Bounds: fromBounds(a.Bounds), Dims: a.Dims})
	}
	return doc
}

// Cube converts the document to a validated cube.
func (d *Document) Cube() (*cube.Cube, error) {
	c := &cube.Cube{
		Name:       d.Name,
		Units:      d.Units,
		Data:       []float32(d.Data),
		Mask:       d.Mask,
		Attributes: d.Attributes,
	}
	if c.Data == nil {
		c.Data = []float32{}
	}
	for _, dc := range d.Dims {
		if len(dc.Dims) > 0 {
			return nil, &cube.Error{
				Kind:    cube.KindInvalidCube,
				Message: fmt.Sprintf("dimension coordinate %q must not declare dims", dc.Name),
				Coord:   dc.Name,
				Cube:    d.Name,
			}
		}
		bounds, err := toBounds(d.Name, dc)
		if err != nil {
			return nil, err
		}
		c.Dims = append(c.Dims, cube.DimCoord{Name: dc.Name, Units: dc.Units, Points: dc.Points, Bounds: bounds})
	}
	for _, ac := range d.Aux {
		bounds, err := toBounds(d.Name, ac)
		if err != nil {
			return nil, err
		}
		c.Aux = append(c.Aux, cube.AuxCoord{Name: ac.Name, Units: ac.Units, Points: ac.Points, Bounds: bounds, Dims: ac.Dims})
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func fromBounds(bounds []cube.Bounds) [][]float64 {
	if bounds == nil {
		return nil
	}
	out := make([][]float64, len(bounds))
	for i, b := range bounds {
		out[i] = []float64{b.Lower, b.Upper}
	}
	return out
}

func toBounds(cubeName string, c Coord) ([]cube.Bounds, error) {
	if c.Bounds == nil {
		return nil, nil
	}
	out := make([]cube.Bounds, len(c.Bounds))
	for i, b := range c.Bounds {
		if len(b) != 2 {
			return nil, &cube.Error{
				Kind:    cube.KindInvalidCube,
				Message: fmt.Sprintf("bounds %d of %q must be [lower, upper], got %d values", i, c.Name, len(b)),
				Coord:   c.Name,
				Cube:    cubeName,
			}
		}
		out[i] = cube.Bounds{Lower: b[0], Upper: b[1]}
	}
	return out, nil
}

// ErrEmpty is returned when decoding input with no document.
var ErrEmpty = errors.New("empty cube document")

// Decode parses a JSON or YAML document into a validated cube.
func Decode(data []byte) (*cube.Cube, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("decode cube document: %w", err)
	}
	return doc.Cube()
}

// Encode returns the canonical JSON encoding of c, terminated by a newline.
func Encode(c *cube.Cube) ([]byte, error) {
	doc := FromCube(c)
	doc.normalize()

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode cube %s: %w", c.Name, err)
	}
	return append(out, '\n'), nil
}

// normalize rewrites names, units and attributes to NFC. Coordinate
// headers are copied so the source cube is left alone.
func (d *Document) normalize() {
	d.Name = norm.NFC.String(d.Name)
	d.Units = norm.NFC.String(d.Units)
	d.Dims = normalizeCoords(d.Dims)
	d.Aux = normalizeCoords(d.Aux)
	if d.Attributes != nil {
		attrs := make(map[string]string, len(d.Attributes))
		for k, v := range d.Attributes {
			attrs[norm.NFC.String(k)] = norm.NFC.String(v)
		}
		d.Attributes = attrs
	}
}

func normalizeCoords(coords []Coord) []Coord {
	if coords == nil {
		return nil
	}
	out := make([]Coord, len(coords))
	for i, c := range coords {
		c.Name = norm.NFC.String(c.Name)
		c.Units = norm.NFC.String(c.Units)
		out[i] = c
	}
	return out
}

// Read loads a cube from a file.
func Read(path string) (*cube.Cube, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cube: %w", err)
	}
	c, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Write stores the canonical encoding of c in a file.
func Write(path string, c *cube.Cube) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cube: %w", err)
	}
	return nil
}
