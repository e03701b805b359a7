package cube

import (
	"fmt"
	"strings"
)

// timeUnitSeconds maps the time-unit spellings found on forecast_period
// coordinates and recalibration tables to their length in seconds.
var timeUnitSeconds = map[string]float64{
	"s": 1, "sec": 1, "second": 1, "seconds": 1,
	"min": 60, "minute": 60, "minutes": 60,
	"h": 3600, "hr": 3600, "hour": 3600, "hours": 3600,
	"d": 86400, "day": 86400, "days": 86400,
}

// TimeUnitSeconds returns the length of one time unit in seconds.
func TimeUnitSeconds(unit string) (float64, error) {
	s, ok := timeUnitSeconds[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return 0, &Error{
			Kind:    KindConfiguration,
			Message: fmt.Sprintf("unknown time unit %q", unit),
			Details: map[string]string{"unit": unit},
		}
	}
	return s, nil
}

// ConvertTime converts v from one time unit to another.
func ConvertTime(v float64, from, to string) (float64, error) {
	f, err := TimeUnitSeconds(from)
	if err != nil {
		return 0, err
	}
	t, err := TimeUnitSeconds(to)
	if err != nil {
		return 0, err
	}
	if f == t {
		return v, nil
	}
	return v * f / t, nil
}

// ConvertTimes converts every value in vs, returning a new slice.
func ConvertTimes(vs []float64, from, to string) ([]float64, error) {
	out := make([]float64, len(vs))
	for i, v := range vs {
		c, err := ConvertTime(v, from, to)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// IsTimeUnit reports whether unit is a recognised time unit.
func IsTimeUnit(unit string) bool {
	_, err := TimeUnitSeconds(unit)
	return err == nil
}
