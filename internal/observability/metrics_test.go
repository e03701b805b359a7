package observability

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/probcal/internal/cube"
)

func TestObserve_Success(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewMetrics(clock)

	out, err := m.Observe("combine", func() (*cube.Cube, error) {
		clock.Advance(1500 * time.Millisecond)
		return &cube.Cube{Data: make([]float32, 12)}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("combine", OutcomeSuccess)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Operations.WithLabelValues("combine", OutcomeError)))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.Elements.WithLabelValues("combine")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var sum float64
	for _, f := range families {
		if f.GetName() == "probcal_operation_duration_seconds" {
			sum = f.GetMetric()[0].GetHistogram().GetSampleSum()
		}
	}
	assert.InDelta(t, 1.5, sum, 1e-9)
}

func TestObserve_ErrorByKind(t *testing.T) {
	m := NewMetrics(clockwork.NewFakeClock())

	_, err := m.Observe("recalibrate", func() (*cube.Cube, error) {
		return nil, cube.Errorf(cube.KindInvalidParameter, "alpha must be > 0")
	})
	require.Error(t, err)
	_, err = m.Observe("recalibrate", func() (*cube.Cube, error) {
		return nil, errors.New("disk on fire")
	})
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("recalibrate", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("recalibrate", string(cube.KindInvalidParameter))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("recalibrate", "UNKNOWN")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics(nil)
	b := NewMetrics(nil)

	_, _ = a.Observe("validate", func() (*cube.Cube, error) { return nil, nil })

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Operations.WithLabelValues("validate", OutcomeSuccess)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Operations.WithLabelValues("validate", OutcomeSuccess)))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics(clockwork.NewFakeClock())
	_, err := m.Observe("threshold-interpolate", func() (*cube.Cube, error) {
		return &cube.Cube{Data: make([]float32, 3)}, nil
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "probcal.prom")
	require.NoError(t, m.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `probcal_operations_total{operation="threshold-interpolate",outcome="success"} 1`)
	assert.Contains(t, text, `probcal_output_elements_total{operation="threshold-interpolate"} 3`)
	assert.Contains(t, text, "# TYPE probcal_operation_duration_seconds histogram")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	m := NewMetrics(nil)
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "probcal.prom"))
	assert.Error(t, err)
}
