package cloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud-sim/cloud-sim/sim/power"
)

func newTestHost(id int) *Host {
	return NewHost(id, 2, 1000, 4096, 10000, 100000, power.Linear{MaxPower: 250, StaticPercent: 0.7})
}

func TestHost_PlacementRespectsCapacity(t *testing.T) {
	h := newTestHost(0)
	a := NewVm(0, 1, 1000, 1, 2048, 1000, 100)
	b := NewVm(1, 1, 1000, 1, 2048, 1000, 100)
	c := NewVm(2, 1, 1000, 1, 512, 1000, 100)

	require.True(t, h.VmCreate(a))
	require.True(t, h.VmCreate(b))
	assert.False(t, h.VmCreate(c), "no PEs left")
	assert.Equal(t, h, a.Host())
	assert.Nil(t, c.Host())
	assert.Equal(t, 0, h.FreePes())

	h.VmDestroy(a)
	assert.Nil(t, a.Host())
	assert.Equal(t, 1, h.FreePes())
	h.VmDestroy(a) // already gone
	assert.Len(t, h.Vms(), 1)
}

func TestHost_RejectsVmFasterThanPe(t *testing.T) {
	h := newTestHost(0)
	assert.False(t, h.IsSuitableForVm(NewVm(0, 1, 2000, 1, 128, 10, 10)))
}

func TestHost_UpdateSamplesUtilization(t *testing.T) {
	h := newTestHost(0)
	vm := NewVm(0, 1, 1000, 1, 1024, 1000, 100)
	require.True(t, h.VmCreate(vm))
	assert.Empty(t, h.CompletedVms(), "a VM waiting for work is not completed")
	vm.Scheduler().Submit(NewCloudlet(0, 1, 4000, 1, nil, nil, nil), 0)

	next := h.UpdateVmsProcessing(0)
	assert.Equal(t, 4.0, next)
	assert.InDelta(t, 0.5, h.Utilization(), 1e-9)
	assert.Zero(t, h.PreviousUtilization())

	h.UpdateVmsProcessing(4)
	assert.InDelta(t, 0.5, h.PreviousUtilization(), 1e-9)
	assert.Zero(t, h.Utilization())
	assert.Equal(t, []*Vm{vm}, h.CompletedVms())
}

func TestHost_MigratingVmCountedOnlyOnSource(t *testing.T) {
	src := newTestHost(0)
	dst := newTestHost(1)
	vm := NewVm(0, 1, 1000, 1, 1024, 1000, 100)
	require.True(t, src.VmCreate(vm))
	vm.Scheduler().Submit(NewCloudlet(0, 1, 1e6, 1, nil, nil, nil), 0)

	require.True(t, dst.AddMigratingInVm(vm))
	assert.True(t, vm.InMigration())
	assert.Equal(t, 1, dst.FreePes(), "reservation holds a PE")

	src.UpdateVmsProcessing(0)
	dst.UpdateVmsProcessing(0)
	assert.InDelta(t, 0.5, src.Utilization(), 1e-9)
	assert.Zero(t, dst.Utilization())
	assert.Empty(t, src.CompletedVms(), "migrating VMs are never completed")

	dst.RemoveMigratingInVm(vm)
	assert.Empty(t, dst.MigratingInVms())
}

func TestDatacenterCharacteristics_Snapshot(t *testing.T) {
	hosts := []*Host{newTestHost(0), newTestHost(1)}
	c := NewDatacenterCharacteristics(CharacteristicsConfig{Architecture: "x86", CostPerSecond: 3}, hosts)

	assert.Equal(t, 2, c.NumHosts())
	assert.Equal(t, 4, c.NumPes())
	assert.Equal(t, 4000.0, c.TotalMips())
	assert.Equal(t, 30.0, c.ProcessingCost(10))

	ids := c.HostIDs()
	ids[0] = 99
	assert.Equal(t, []int{0, 1}, c.HostIDs())
}
