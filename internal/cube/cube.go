package cube

import (
	"maps"
	"slices"
)

// Bounds is the closed interval [Lower, Upper] associated with a coordinate point.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether p lies inside the interval.
func (b Bounds) Contains(p float64) bool {
	return b.Lower <= p && p <= b.Upper
}

// Midpoint returns the centre of the interval.
func (b Bounds) Midpoint() float64 {
	return b.Lower + (b.Upper-b.Lower)/2
}

// DimCoord indexes one array axis one-to-one.
type DimCoord struct {
	Name   string
	Units  string
	Points []float64
	Bounds []Bounds // nil, or one interval per point
}

// AuxCoord is metadata not tied 1:1 to an axis. With no Dims it is a scalar
// coordinate holding exactly one point; with one entry in Dims it holds a
// point per element of that axis.
type AuxCoord struct {
	Name   string
	Units  string
	Points []float64
	Bounds []Bounds
	Dims   []int
}

// IsScalar reports whether the coordinate is not attached to any axis.
func (a AuxCoord) IsScalar() bool {
	return len(a.Dims) == 0
}

// Cube is an N-dimensional labelled array.
type Cube struct {
	Name       string
	Units      string
	Data       []float32
	Mask       []bool // nil when unmasked; true marks an invalid element
	Dims       []DimCoord
	Aux        []AuxCoord
	Attributes map[string]string
}

// New assembles a cube and validates it.
func New(name, units string, data []float32, dims []DimCoord, aux ...AuxCoord) (*Cube, error) {
	c := &Cube{
		Name:  name,
		Units: units,
		Data:  data,
		Dims:  dims,
		Aux:   aux,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Shape returns the length of each axis.
func (c *Cube) Shape() []int {
	shape := make([]int, len(c.Dims))
	for i, d := range c.Dims {
		shape[i] = len(d.Points)
	}
	return shape
}

// Size returns the number of elements implied by the dimension coordinates.
func (c *Cube) Size() int {
	return sizeOf(c.Shape())
}

// Strides returns row-major element strides for each axis.
func (c *Cube) Strides() []int {
	return stridesOf(c.Shape())
}

// IsMasked reports whether the cube carries a mask.
func (c *Cube) IsMasked() bool {
	return c.Mask != nil
}

// MaskedAt reports whether element i is invalid.
func (c *Cube) MaskedAt(i int) bool {
	return c.Mask != nil && c.Mask[i]
}

// DimNames returns dimension coordinate names in axis order.
func (c *Cube) DimNames() []string {
	names := make([]string, len(c.Dims))
	for i, d := range c.Dims {
		names[i] = d.Name
	}
	return names
}

// DimIndex returns the axis of the named dimension coordinate, or -1.
func (c *Cube) DimIndex(name string) int {
	for i, d := range c.Dims {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// HasDim reports whether name is a dimension coordinate.
func (c *Cube) HasDim(name string) bool {
	return c.DimIndex(name) >= 0
}

// AuxIndex returns the position of the named auxiliary coordinate, or -1.
func (c *Cube) AuxIndex(name string) int {
	for i, a := range c.Aux {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// HasAux reports whether name is an auxiliary coordinate.
func (c *Cube) HasAux(name string) bool {
	return c.AuxIndex(name) >= 0
}

// HasCoord reports whether name is any kind of coordinate.
func (c *Cube) HasCoord(name string) bool {
	return c.HasDim(name) || c.HasAux(name)
}

// CoordView is a read-only view of a dimension or auxiliary coordinate.
// Axis is -1 for scalar coordinates.
type CoordView struct {
	Name   string
	Units  string
	Points []float64
	Bounds []Bounds
	Axis   int
	IsDim  bool
}

// Coord looks up a coordinate by name, dimension coordinates first.
func (c *Cube) Coord(name string) (CoordView, bool) {
	if i := c.DimIndex(name); i >= 0 {
		d := c.Dims[i]
		return CoordView{Name: d.Name, Units: d.Units, Points: d.Points, Bounds: d.Bounds, Axis: i, IsDim: true}, true
	}
	if i := c.AuxIndex(name); i >= 0 {
		a := c.Aux[i]
		axis := -1
		if !a.IsScalar() {
			axis = a.Dims[0]
		}
		return CoordView{Name: a.Name, Units: a.Units, Points: a.Points, Bounds: a.Bounds, Axis: axis}, true
	}
	return CoordView{}, false
}

// AxisBlocks splits the array around axis into (outer, n, inner) so that
// element (o, k, i) lives at o*n*inner + k*inner + i.
func (c *Cube) AxisBlocks(axis int) (outer, n, inner int) {
	shape := c.Shape()
	outer, inner = 1, 1
	for i := 0; i < axis; i++ {
		outer *= shape[i]
	}
	for i := axis + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[axis], inner
}

// Clone returns a deep copy of the cube.
func (c *Cube) Clone() *Cube {
	out := &Cube{
		Name:  c.Name,
		Units: c.Units,
		Data:  slices.Clone(c.Data),
		Mask:  slices.Clone(c.Mask),
	}
	if c.Dims != nil {
		out.Dims = make([]DimCoord, len(c.Dims))
		for i, d := range c.Dims {
			out.Dims[i] = d.Clone()
		}
	}
	if c.Aux != nil {
		out.Aux = make([]AuxCoord, len(c.Aux))
		for i, a := range c.Aux {
			out.Aux[i] = a.Clone()
		}
	}
	if c.Attributes != nil {
		out.Attributes = maps.Clone(c.Attributes)
	}
	return out
}

// Clone returns a deep copy of the coordinate.
func (d DimCoord) Clone() DimCoord {
	return DimCoord{
		Name:   d.Name,
		Units:  d.Units,
		Points: slices.Clone(d.Points),
		Bounds: slices.Clone(d.Bounds),
	}
}

// Clone returns a deep copy of the coordinate.
func (a AuxCoord) Clone() AuxCoord {
	return AuxCoord{
		Name:   a.Name,
		Units:  a.Units,
		Points: slices.Clone(a.Points),
		Bounds: slices.Clone(a.Bounds),
		Dims:   slices.Clone(a.Dims),
	}
}

// BoundsOrPoints returns the bounds of the coordinate, synthesizing a
// degenerate [p, p] interval for each point when none are recorded.
func (a AuxCoord) BoundsOrPoints() []Bounds {
	if a.Bounds != nil {
		return a.Bounds
	}
	out := make([]Bounds, len(a.Points))
	for i, p := range a.Points {
		out[i] = Bounds{Lower: p, Upper: p}
	}
	return out
}

func sizeOf(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	return strides
}
