package cube

import (
	"fmt"
	"maps"
)

// MoveAxisToFront returns a copy of c with the given axis transposed to
// position 0. The relative order of the remaining axes is unchanged.
func (c *Cube) MoveAxisToFront(axis int) *Cube {
	if axis == 0 {
		return c.Clone()
	}
	perm := make([]int, 0, len(c.Dims))
	perm = append(perm, axis)
	for i := range c.Dims {
		if i != axis {
			perm = append(perm, i)
		}
	}
	return c.Transpose(perm)
}

// Transpose returns a copy of c whose axis i is axis perm[i] of c.
func (c *Cube) Transpose(perm []int) *Cube {
	shape := c.Shape()
	out := c.Clone()

	newPos := make([]int, len(perm))
	for i, p := range perm {
		out.Dims[i] = c.Dims[p].Clone()
		newPos[p] = i
	}
	for i := range out.Aux {
		for j, d := range out.Aux[i].Dims {
			out.Aux[i].Dims[j] = newPos[d]
		}
	}

	out.Data = permute(c.Data, shape, perm)
	if c.Mask != nil {
		out.Mask = permute(c.Mask, shape, perm)
	}
	return out
}

// InsertAxis returns a copy of c with coord inserted as a new dimension at
// position axis. Data and mask are repeated along the new axis.
func (c *Cube) InsertAxis(axis int, coord DimCoord) (*Cube, error) {
	if axis < 0 || axis > len(c.Dims) {
		return nil, c.invalid(coord.Name, "cannot insert axis at position %d of a %d-d cube", axis, len(c.Dims))
	}
	if c.HasCoord(coord.Name) {
		return nil, &Error{
			Kind:    KindCoordinateConflict,
			Message: fmt.Sprintf("coordinate %q already exists", coord.Name),
			Coord:   coord.Name,
			Cube:    c.Name,
		}
	}

	n := len(coord.Points)
	outer, inner := 1, 1
	for i, d := range c.Dims {
		if i < axis {
			outer *= len(d.Points)
		} else {
			inner *= len(d.Points)
		}
	}

	out := c.Clone()
	out.Dims = make([]DimCoord, 0, len(c.Dims)+1)
	out.Dims = append(out.Dims, cloneDims(c.Dims[:axis])...)
	out.Dims = append(out.Dims, coord.Clone())
	out.Dims = append(out.Dims, cloneDims(c.Dims[axis:])...)
	for i := range out.Aux {
		for j, d := range out.Aux[i].Dims {
			if d >= axis {
				out.Aux[i].Dims[j] = d + 1
			}
		}
	}

	out.Data = repeat(c.Data, outer, n, inner)
	if c.Mask != nil {
		out.Mask = repeat(c.Mask, outer, n, inner)
	}
	return out, out.Validate()
}

// WithoutAxis returns a copy of c with the given axis removed and data and
// mask replaced. Auxiliary coordinates on the removed axis are dropped;
// those on later axes are renumbered.
func (c *Cube) WithoutAxis(axis int, data []float32, mask []bool) (*Cube, error) {
	out := &Cube{
		Name:       c.Name,
		Units:      c.Units,
		Data:       data,
		Mask:       mask,
		Attributes: maps.Clone(c.Attributes),
	}
	for i, d := range c.Dims {
		if i != axis {
			out.Dims = append(out.Dims, d.Clone())
		}
	}
	for _, a := range c.Aux {
		if !a.IsScalar() && a.Dims[0] == axis {
			continue
		}
		a = a.Clone()
		if !a.IsScalar() && a.Dims[0] > axis {
			a.Dims[0]--
		}
		out.Aux = append(out.Aux, a)
	}
	return out, out.Validate()
}

func cloneDims(dims []DimCoord) []DimCoord {
	out := make([]DimCoord, len(dims))
	for i, d := range dims {
		out[i] = d.Clone()
	}
	return out
}

// repeat lays src, viewed as [outer, inner], out as [outer, n, inner].
func repeat[T any](src []T, outer, n, inner int) []T {
	out := make([]T, outer*n*inner)
	for o := 0; o < outer; o++ {
		block := src[o*inner : (o+1)*inner]
		for k := 0; k < n; k++ {
			copy(out[(o*n+k)*inner:], block)
		}
	}
	return out
}

// permute reorders a row-major array of the given shape so that output
// axis i is input axis perm[i].
func permute[T any](src []T, shape, perm []int) []T {
	out := make([]T, len(src))
	srcStrides := stridesOf(shape)
	newShape := make([]int, len(perm))
	for i, p := range perm {
		newShape[i] = shape[p]
	}

	idx := make([]int, len(perm))
	for o := range out {
		off := 0
		for i, p := range perm {
			off += idx[i] * srcStrides[p]
		}
		out[o] = src[off]

		for k := len(idx) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < newShape[k] {
				break
			}
			idx[k] = 0
		}
	}
	return out
}
