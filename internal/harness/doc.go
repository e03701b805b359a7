// Package harness runs cube-operation scenarios as executable conformance
// tests.
//
// # Scenario Format
//
// Scenarios are YAML files with inline cube documents (see package cubedoc):
//
//	name: combine_add
//	description: "Adding two probability cubes sums every element"
//	operation: combine
//	options:
//	  operator: add
//	  new_name: probability_of_sum
//	inputs:
//	  - name: probability_of_rain
//	    dims: [...]
//	    data: [0.5, 0.6]
//	  - ...
//	assertions:
//	  - type: data
//	    values: [0.6, 0.8]
//	  - type: coord
//	    coord: time
//	    points: [1447894800]
//
// Operations are combine, threshold-interpolate and recalibrate. Options
// used by each:
//
//   - combine: operator, new_name, use_midpoint, broadcast_to_coords
//   - threshold-interpolate: thresholds
//   - recalibrate: table (forecast_period, alpha, beta, units, extrapolation)
//
// # Assertion Types
//
//   - data: output values match within tolerance (null matches NaN)
//   - mask: output mask matches exactly (an empty list means unmasked)
//   - coord: a coordinate has the given points, bounds and units, or is absent
//   - shape: output shape matches
//   - metadata: output name and units match
//   - error: the operation failed with the given error kind
//
// # Golden Snapshots
//
// RunWithGolden encodes the output cube canonically (or the error) and
// compares it with testdata/golden/{scenario.Name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
