package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinear_Power(t *testing.T) {
	m := Linear{MaxPower: 250, StaticPercent: 0.7}

	p, err := m.Power(0)
	require.NoError(t, err)
	assert.InDelta(t, 175, p, 1e-9)

	p, err = m.Power(1)
	require.NoError(t, err)
	assert.InDelta(t, 250, p, 1e-9)

	p, err = m.Power(0.5)
	require.NoError(t, err)
	assert.InDelta(t, 212.5, p, 1e-9)
}

func TestModels_RejectOutOfRange(t *testing.T) {
	models := []Model{
		Linear{MaxPower: 100, StaticPercent: 0.5},
		Square{MaxPower: 100, StaticPercent: 0.5},
		Cubic{MaxPower: 100, StaticPercent: 0.5},
		Sqrt{MaxPower: 100, StaticPercent: 0.5},
		HpProLiantMl110G4,
	}
	for _, m := range models {
		_, err := m.Power(1.2)
		assert.Error(t, err, "%T", m)
		_, err = m.Power(-0.1)
		assert.Error(t, err, "%T", m)
	}
}

func TestNonLinearModels_Endpoints(t *testing.T) {
	for _, m := range []Model{
		Square{MaxPower: 200, StaticPercent: 0.5},
		Cubic{MaxPower: 200, StaticPercent: 0.5},
		Sqrt{MaxPower: 200, StaticPercent: 0.5},
	} {
		idle, err := m.Power(0)
		require.NoError(t, err)
		full, err := m.Power(1)
		require.NoError(t, err)
		assert.InDelta(t, 100, idle, 1e-9, "%T", m)
		assert.InDelta(t, 200, full, 1e-9, "%T", m)
	}
}

func TestSpecPower_ReadingsAndInterpolation(t *testing.T) {
	p, err := HpProLiantMl110G5.Power(0)
	require.NoError(t, err)
	assert.InDelta(t, 93.7, p, 1e-9)

	p, err = HpProLiantMl110G5.Power(1)
	require.NoError(t, err)
	assert.InDelta(t, 135, p, 1e-9)

	// halfway between the 10% (97) and 20% (101) readings
	p, err = HpProLiantMl110G5.Power(0.15)
	require.NoError(t, err)
	assert.InDelta(t, 99, p, 1e-6)
}

func TestEnergyLinearInterpolation_Trapezoid(t *testing.T) {
	m := Linear{MaxPower: 250, StaticPercent: 0.7}

	e, err := EnergyLinearInterpolation(m, 0.2, 0.8, 10)
	require.NoError(t, err)

	pFrom, _ := m.Power(0.2)
	pTo, _ := m.Power(0.8)
	assert.InDelta(t, (pFrom+pTo)/2*10, e, 1e-9)
	assert.InDelta(t, 2125, e, 1e-9)
}

func TestEnergyLinearInterpolation_IdleStartIsFree(t *testing.T) {
	m := Linear{MaxPower: 250, StaticPercent: 0.7}
	e, err := EnergyLinearInterpolation(m, 0, 0.9, 300)
	require.NoError(t, err)
	assert.Zero(t, e)

	e, err = EnergyLinearInterpolation(m, 0.5, 0.5, 0)
	require.NoError(t, err)
	assert.Zero(t, e)
}

func TestEnergyLinearInterpolation_PropagatesModelError(t *testing.T) {
	_, err := EnergyLinearInterpolation(Linear{MaxPower: 100}, 0.5, 1.5, 10)
	assert.Error(t, err)
}

func TestNewModel(t *testing.T) {
	m, err := NewModel("", 250, 0.7)
	require.NoError(t, err)
	assert.IsType(t, Linear{}, m)

	m, err = NewModel("hp-ml110-g4", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, HpProLiantMl110G4, m)

	_, err = NewModel("linear", 0, 0.5)
	assert.Error(t, err)

	_, err = NewModel("nuclear", 100, 0.5)
	assert.Error(t, err)
	assert.False(t, IsValidModel("nuclear"))
	assert.True(t, IsValidModel("cubic"))
}
