package cloud

import (
	"math"

	"golang.org/x/exp/slices"

	"github.com/cloud-sim/cloud-sim/sim/power"
)

// Host is a physical machine. Resident VMs consume its capacity; VMs
// migrating in hold a reservation but are not counted in utilization until
// the migration completes.
type Host struct {
	ID        int
	Pes       int
	MipsPerPe float64
	Ram       int
	Bw        int64
	Storage   int64

	powerModel  power.Model
	vms         []*Vm
	migratingIn []*Vm

	utilizationMips         float64
	previousUtilizationMips float64
}

// NewHost creates an empty host.
func NewHost(id, pes int, mipsPerPe float64, ram int, bw, storage int64, pm power.Model) *Host {
	return &Host{
		ID:         id,
		Pes:        pes,
		MipsPerPe:  mipsPerPe,
		Ram:        ram,
		Bw:         bw,
		Storage:    storage,
		powerModel: pm,
	}
}

// TotalMips is the host CPU capacity.
func (h *Host) TotalMips() float64 { return h.MipsPerPe * float64(h.Pes) }

// PowerModel returns the host power model.
func (h *Host) PowerModel() power.Model { return h.powerModel }

// Vms returns the resident VMs.
func (h *Host) Vms() []*Vm { return slices.Clone(h.vms) }

// MigratingInVms returns the VMs reserved on this host by an in-flight migration.
func (h *Host) MigratingInVms() []*Vm { return slices.Clone(h.migratingIn) }

func (h *Host) reserved() (pes, ram int, bw int64) {
	for _, vm := range h.vms {
		pes += vm.Pes
		ram += vm.Ram
		bw += vm.Bw
	}
	for _, vm := range h.migratingIn {
		pes += vm.Pes
		ram += vm.Ram
		bw += vm.Bw
	}
	return pes, ram, bw
}

// FreePes returns the PEs not claimed by resident or incoming VMs.
func (h *Host) FreePes() int {
	pes, _, _ := h.reserved()
	return h.Pes - pes
}

// IsSuitableForVm reports whether the VM fits in what is left of the host.
func (h *Host) IsSuitableForVm(vm *Vm) bool {
	pes, ram, bw := h.reserved()
	return vm.Mips <= h.MipsPerPe &&
		h.Pes-pes >= vm.Pes &&
		h.Ram-ram >= vm.Ram &&
		h.Bw-bw >= vm.Bw
}

// VmCreate places the VM on this host if it fits.
func (h *Host) VmCreate(vm *Vm) bool {
	if !h.IsSuitableForVm(vm) {
		return false
	}
	h.vms = append(h.vms, vm)
	vm.host = h
	return true
}

// VmDestroy removes a resident VM. Unknown VMs are ignored.
func (h *Host) VmDestroy(vm *Vm) {
	idx := slices.Index(h.vms, vm)
	if idx < 0 {
		return
	}
	h.vms = slices.Delete(h.vms, idx, idx+1)
	if vm.host == h {
		vm.host = nil
	}
}

// AddMigratingInVm reserves capacity for an incoming VM and flags it as migrating.
func (h *Host) AddMigratingInVm(vm *Vm) bool {
	if slices.Contains(h.migratingIn, vm) {
		return true
	}
	if !h.IsSuitableForVm(vm) {
		return false
	}
	h.migratingIn = append(h.migratingIn, vm)
	vm.inMigration = true
	return true
}

// RemoveMigratingInVm releases the reservation held for vm.
func (h *Host) RemoveMigratingInVm(vm *Vm) {
	h.migratingIn = slices.DeleteFunc(h.migratingIn, func(v *Vm) bool { return v == vm })
}

// UpdateVmsProcessing advances every resident VM to now, grants each its
// requested MIPS (scaled down proportionally when the host is oversubscribed)
// and samples utilization. Returns the earliest time any VM needs attention.
func (h *Host) UpdateVmsProcessing(now float64) float64 {
	h.previousUtilizationMips = h.utilizationMips

	requested := make([]float64, len(h.vms))
	var total float64
	for i, vm := range h.vms {
		vm.scheduler.Advance(now)
		requested[i] = vm.RequestedMips(now)
		total += requested[i]
	}
	scale := 1.0
	if total > h.TotalMips() {
		scale = h.TotalMips() / total
	}

	next := math.Inf(1)
	h.utilizationMips = 0
	for i, vm := range h.vms {
		granted := requested[i] * scale
		h.utilizationMips += granted
		next = min(next, vm.scheduler.Allocate(granted, now))
	}
	return next
}

// Utilization is the CPU utilization sampled at the last update, in [0,1].
func (h *Host) Utilization() float64 {
	if h.TotalMips() == 0 {
		return 0
	}
	return min(h.utilizationMips/h.TotalMips(), 1)
}

// PreviousUtilization is the sample taken before the last update.
func (h *Host) PreviousUtilization() float64 {
	if h.TotalMips() == 0 {
		return 0
	}
	return min(h.previousUtilizationMips/h.TotalMips(), 1)
}

// UtilizationMips is the MIPS granted at the last update.
func (h *Host) UtilizationMips() float64 { return h.utilizationMips }

// Power is the current power draw.
func (h *Host) Power() (float64, error) {
	return h.powerModel.Power(h.Utilization())
}

// CompletedVms lists resident VMs that ran cloudlets and have drained them.
// Migrating VMs and VMs still waiting for their first cloudlet are excluded.
func (h *Host) CompletedVms() []*Vm {
	var done []*Vm
	for _, vm := range h.vms {
		if vm.inMigration || vm.scheduler.HasRunning() || !vm.scheduler.HasSubmitted() {
			continue
		}
		done = append(done, vm)
	}
	return done
}
