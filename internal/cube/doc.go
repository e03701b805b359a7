// Package cube provides the labelled-array data model shared by every
// post-processing component in probcal.
//
// A Cube is a row-major float32 array plus the metadata needed to interpret
// it: one dimension coordinate per axis, any number of auxiliary (scalar or
// single-axis) coordinates, an optional validity mask and free-form
// attributes.
//
// This package imports nothing internal; every other package builds on it.
//
// Key design constraints:
//   - Cubes are values: operations return freshly allocated cubes and never
//     mutate their inputs. Use Clone before changing anything.
//   - Mask is nil for an unmasked cube. When present it is congruent with
//     Data and true marks an invalid element.
//   - Coordinate names are unique across dimension and auxiliary coordinates.
//   - Errors carry a Kind so callers can branch with IsKind instead of
//     matching message text.
package cube
