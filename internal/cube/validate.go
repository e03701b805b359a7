package cube

import "fmt"

// Validate checks the data model invariants:
//   - dimension coordinate names are non-empty and unique
//   - len(Data) equals the product of the axis lengths
//   - Mask is nil or congruent with Data
//   - bounds, where present, bracket their points
//   - aux coordinates are scalar (one point) or span exactly one axis
//   - no name is shared between coordinates
func (c *Cube) Validate() error {
	seen := make(map[string]bool, len(c.Dims)+len(c.Aux))

	for i, d := range c.Dims {
		if d.Name == "" {
			return c.invalid("", "dimension coordinate %d has no name", i)
		}
		if seen[d.Name] {
			return c.invalid(d.Name, "duplicate coordinate name %q", d.Name)
		}
		seen[d.Name] = true
		if len(d.Points) == 0 {
			return c.invalid(d.Name, "dimension coordinate %q has no points", d.Name)
		}
		if err := c.checkBounds(d.Name, d.Points, d.Bounds); err != nil {
			return err
		}
	}

	if size := c.Size(); len(c.Data) != size {
		return c.invalid("", "data has %d elements, dimension coordinates imply %d", len(c.Data), size)
	}
	if c.Mask != nil && len(c.Mask) != len(c.Data) {
		return c.invalid("", "mask has %d elements, data has %d", len(c.Mask), len(c.Data))
	}

	for i, a := range c.Aux {
		if a.Name == "" {
			return c.invalid("", "auxiliary coordinate %d has no name", i)
		}
		if seen[a.Name] {
			return c.invalid(a.Name, "duplicate coordinate name %q", a.Name)
		}
		seen[a.Name] = true

		switch len(a.Dims) {
		case 0:
			if len(a.Points) != 1 {
				return c.invalid(a.Name, "scalar coordinate %q must have exactly one point, has %d", a.Name, len(a.Points))
			}
		case 1:
			axis := a.Dims[0]
			if axis < 0 || axis >= len(c.Dims) {
				return c.invalid(a.Name, "coordinate %q spans axis %d of a %d-d cube", a.Name, axis, len(c.Dims))
			}
			if want := len(c.Dims[axis].Points); len(a.Points) != want {
				return c.invalid(a.Name, "coordinate %q has %d points, axis %d has length %d", a.Name, len(a.Points), axis, want)
			}
		default:
			return c.invalid(a.Name, "coordinate %q spans %d axes; at most one is supported", a.Name, len(a.Dims))
		}
		if err := c.checkBounds(a.Name, a.Points, a.Bounds); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cube) checkBounds(name string, points []float64, bounds []Bounds) error {
	if bounds == nil {
		return nil
	}
	if len(bounds) != len(points) {
		return c.invalid(name, "coordinate %q has %d bounds for %d points", name, len(bounds), len(points))
	}
	for i, b := range bounds {
		if !b.Contains(points[i]) {
			return c.invalid(name, "coordinate %q point %g lies outside bounds [%g, %g]", name, points[i], b.Lower, b.Upper)
		}
	}
	return nil
}

func (c *Cube) invalid(coord, format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidCube,
		Message: fmt.Sprintf(format, args...),
		Coord:   coord,
		Cube:    c.Name,
	}
}
