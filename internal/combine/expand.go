package combine

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/probcal/internal/cube"
)

// ExpandedCoords returns the names of auxiliary coordinates that are present
// in every set but whose points differ between sets. Names are returned in
// the order they appear in the first set; coordinates missing from any set
// are ignored.
func ExpandedCoords(sets [][]cube.AuxCoord) []string {
	if len(sets) == 0 {
		return nil
	}
	var names []string
	for _, first := range sets[0] {
		coords, ok := collect(sets, first.Name)
		if !ok {
			continue
		}
		for _, c := range coords[1:] {
			if !slices.Equal(c.Points, first.Points) {
				names = append(names, first.Name)
				break
			}
		}
	}
	return names
}

// collect gathers the named coordinate from every set, in set order.
func collect(sets [][]cube.AuxCoord, name string) ([]cube.AuxCoord, bool) {
	out := make([]cube.AuxCoord, 0, len(sets))
	for _, set := range sets {
		i := slices.IndexFunc(set, func(a cube.AuxCoord) bool { return a.Name == name })
		if i < 0 {
			return nil, false
		}
		out = append(out, set[i])
	}
	return out, true
}

// mergeExpanded combines one coordinate taken from every input into a
// single coordinate spanning all of them. Bounds become the envelope of the
// inputs' bounds (points stand in for missing bounds); the point is the
// maximum input point, or the envelope midpoint when useMidpoint is set.
// Metadata other than points and bounds comes from coords[0].
func mergeExpanded(coords []cube.AuxCoord, useMidpoint bool) (cube.AuxCoord, error) {
	first := coords[0]
	out := first.Clone()

	normalized := make([]cube.AuxCoord, len(coords))
	for i, c := range coords {
		if len(c.Points) != len(first.Points) {
			return cube.AuxCoord{}, &cube.Error{
				Kind:    cube.KindCoordinateConflict,
				Message: fmt.Sprintf("coordinate %q has %d points on one input and %d on another", first.Name, len(first.Points), len(c.Points)),
				Coord:   first.Name,
			}
		}
		n, err := toUnits(c, first.Units)
		if err != nil {
			return cube.AuxCoord{}, err
		}
		normalized[i] = n
	}

	out.Bounds = make([]cube.Bounds, len(first.Points))
	for j := range first.Points {
		lower, upper, point := math.Inf(1), math.Inf(-1), math.Inf(-1)
		for _, c := range normalized {
			b := c.BoundsOrPoints()[j]
			lower = math.Min(lower, b.Lower)
			upper = math.Max(upper, b.Upper)
			point = math.Max(point, c.Points[j])
		}
		out.Bounds[j] = cube.Bounds{Lower: lower, Upper: upper}
		if useMidpoint {
			point = out.Bounds[j].Midpoint()
		}
		out.Points[j] = point
	}
	return out, nil
}

// toUnits expresses a coordinate in the given units. Only time units are
// convertible; any other mismatch is a conflict.
func toUnits(c cube.AuxCoord, units string) (cube.AuxCoord, error) {
	if c.Units == units {
		return c, nil
	}
	if !cube.IsTimeUnit(c.Units) || !cube.IsTimeUnit(units) {
		return cube.AuxCoord{}, &cube.Error{
			Kind:    cube.KindCoordinateConflict,
			Message: fmt.Sprintf("coordinate %q has incompatible units %q and %q", c.Name, units, c.Units),
			Coord:   c.Name,
		}
	}
	out := c.Clone()
	var err error
	if out.Points, err = cube.ConvertTimes(c.Points, c.Units, units); err != nil {
		return cube.AuxCoord{}, err
	}
	if c.Bounds != nil {
		for i, b := range c.Bounds {
			lo, _ := cube.ConvertTime(b.Lower, c.Units, units)
			hi, _ := cube.ConvertTime(b.Upper, c.Units, units)
			out.Bounds[i] = cube.Bounds{Lower: lo, Upper: hi}
		}
	}
	out.Units = units
	return out, nil
}
