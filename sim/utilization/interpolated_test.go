package utilization

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolated_RoundTrip(t *testing.T) {
	m, err := NewInterpolated([]float64{0, 50, 100}, 1)
	require.NoError(t, err)

	assert.Equal(t, 25.0, m.Utilization(0.5))
	assert.Equal(t, 75.0, m.Utilization(1.5))
}

func TestInterpolated_BoundariesReturnSamples(t *testing.T) {
	m, err := NewInterpolated([]float64{0.1, 0.4, 0.9}, 300)
	require.NoError(t, err)

	tests := []struct {
		time float64
		want float64
	}{
		{0, 0.1},
		{300, 0.4},
		{600, 0.9},
		{900, 0.9}, // trailing duplicate slot
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, m.Utilization(tt.time), 1e-12, "time %v", tt.time)
	}
}

func TestInterpolated_MidpointsBetweenSamples(t *testing.T) {
	m, err := NewInterpolated([]float64{0.2, 0.8}, 10)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, m.Utilization(5), 1e-12)
	assert.InDelta(t, 0.26, m.Utilization(1), 1e-12)
	// between the last sample and its duplicate the value is flat
	assert.InDelta(t, 0.8, m.Utilization(15), 1e-12)
}

func TestInterpolated_PastEndClampsToLastSlot(t *testing.T) {
	m, err := NewInterpolated([]float64{0.3, 0.6}, 1)
	require.NoError(t, err)

	assert.Equal(t, 0.6, m.Utilization(42.5))
	assert.Equal(t, 0.6, m.Utilization(100))
	assert.Equal(t, 3, m.Len())
}

func TestNewInterpolated_RejectsBadInput(t *testing.T) {
	_, err := NewInterpolated(nil, 1)
	assert.Error(t, err)

	_, err = NewInterpolated([]float64{1}, 0)
	assert.Error(t, err)

	_, err = NewInterpolated([]float64{1}, -5)
	assert.Error(t, err)
}

func TestNewInterpolated_CopiesSeries(t *testing.T) {
	samples := []float64{0.1, 0.2}
	m, err := NewInterpolated(samples, 1)
	require.NoError(t, err)

	samples[0] = 0.9
	assert.Equal(t, 0.1, m.Utilization(0))
}

func TestSimpleModels(t *testing.T) {
	assert.Equal(t, 1.0, Full{}.Utilization(123))
	assert.Equal(t, 0.0, Null{}.Utilization(123))
	assert.Equal(t, 0.4, Constant{Value: 0.4}.Utilization(5))
	assert.Equal(t, 1.0, Constant{Value: 7}.Utilization(5))
	assert.Equal(t, 0.0, Constant{Value: -1}.Utilization(5))
}

func TestStochastic_RepeatableAtSameTime(t *testing.T) {
	m := NewStochastic(rand.New(rand.NewSource(7)))
	first := m.Utilization(10)
	assert.Equal(t, first, m.Utilization(10))
	assert.GreaterOrEqual(t, first, 0.0)
	assert.Less(t, first, 1.0)

	// same seed, same sequence
	other := NewStochastic(rand.New(rand.NewSource(7)))
	assert.Equal(t, first, other.Utilization(10))
}

func TestLoadPlanetLabTrace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host-a")
	require.NoError(t, os.WriteFile(path, []byte("10\n50\n\n90\n"), 0o644))

	m, err := LoadPlanetLabTrace(path, 300)
	require.NoError(t, err)

	assert.InDelta(t, 0.1, m.Utilization(0), 1e-12)
	assert.InDelta(t, 0.3, m.Utilization(150), 1e-12)
	assert.InDelta(t, 0.9, m.Utilization(600), 1e-12)
	assert.Equal(t, 4, m.Len())
}

func TestLoadPlanetLabTrace_Errors(t *testing.T) {
	_, err := LoadPlanetLabTrace(filepath.Join(t.TempDir(), "missing"), 300)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad")
	require.NoError(t, os.WriteFile(path, []byte("10\nabc\n"), 0o644))
	_, err = LoadPlanetLabTrace(path, 300)
	assert.ErrorContains(t, err, "abc")
}
