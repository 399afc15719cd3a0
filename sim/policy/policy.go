//go:generate mockgen -destination=mocks/mock_policy.go -package=mocks github.com/cloud-sim/cloud-sim/sim/policy AllocationPolicy

// Package policy decides where VMs live: initial placement on hosts and the
// migrations a consolidation round proposes.
package policy

import (
	"fmt"

	"github.com/cloud-sim/cloud-sim/sim/cloud"
)

// Migration directs a VM to a target host.
type Migration struct {
	Vm   *cloud.Vm
	Host *cloud.Host
}

// AllocationPolicy places VMs on the hosts of one datacenter.
type AllocationPolicy interface {
	// AllocateHostForVm chooses a host and places the VM on it.
	AllocateHostForVm(vm *cloud.Vm) bool
	// AllocateHostForVmOn places the VM on the given host.
	AllocateHostForVmOn(vm *cloud.Vm, host *cloud.Host) bool
	// DeallocateHostForVm removes the VM from its host. Unknown VMs are ignored.
	DeallocateHostForVm(vm *cloud.Vm)
	// OptimizeAllocation proposes migrations for the current VM set. It must
	// not change any placement itself.
	OptimizeAllocation(vms []*cloud.Vm) []Migration
	// HostOf returns the host the policy placed the VM on, or nil.
	HostOf(vm *cloud.Vm) *cloud.Host
}

// hostTable tracks the hosts of a datacenter and where each VM was placed.
type hostTable struct {
	hosts     []*cloud.Host
	placement map[*cloud.Vm]*cloud.Host
}

func newHostTable(hosts []*cloud.Host) hostTable {
	return hostTable{hosts: hosts, placement: make(map[*cloud.Vm]*cloud.Host)}
}

func (t *hostTable) AllocateHostForVmOn(vm *cloud.Vm, host *cloud.Host) bool {
	if host == nil || !host.VmCreate(vm) {
		return false
	}
	t.placement[vm] = host
	return true
}

func (t *hostTable) DeallocateHostForVm(vm *cloud.Vm) {
	host, ok := t.placement[vm]
	if !ok {
		host = vm.Host()
	}
	delete(t.placement, vm)
	if host != nil {
		host.VmDestroy(vm)
	}
}

func (t *hostTable) HostOf(vm *cloud.Vm) *cloud.Host { return t.placement[vm] }

// validPolicyNames lists the names NewAllocationPolicy accepts.
var validPolicyNames = map[string]bool{
	"":                 true,
	"simple":           true,
	"static-threshold": true,
}

// IsValidPolicy reports whether name is a recognised allocation policy.
func IsValidPolicy(name string) bool { return validPolicyNames[name] }

// NewAllocationPolicy creates an allocation policy by name over hosts.
// Valid names: "simple" (the default for an empty name), "static-threshold".
// threshold is the utilization above which static-threshold treats a host as
// overloaded; it is ignored by simple.
func NewAllocationPolicy(name string, hosts []*cloud.Host, threshold float64) (AllocationPolicy, error) {
	switch name {
	case "", "simple":
		return NewSimple(hosts), nil
	case "static-threshold":
		if threshold <= 0 || threshold > 1 {
			return nil, fmt.Errorf("static-threshold: threshold must be in (0,1], got %v", threshold)
		}
		return NewStaticThreshold(hosts, threshold), nil
	default:
		return nil, fmt.Errorf("unknown allocation policy %q; valid policies: [simple, static-threshold]", name)
	}
}
