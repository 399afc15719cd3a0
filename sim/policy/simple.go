package policy

import (
	"golang.org/x/exp/slices"

	"github.com/cloud-sim/cloud-sim/sim/cloud"
)

// Simple places each VM on the host with the most free PEs and never migrates.
type Simple struct {
	hostTable
}

// NewSimple creates a Simple policy over hosts.
func NewSimple(hosts []*cloud.Host) *Simple {
	return &Simple{hostTable: newHostTable(hosts)}
}

// AllocateHostForVm tries hosts from most to fewest free PEs; ties keep host order.
func (p *Simple) AllocateHostForVm(vm *cloud.Vm) bool {
	candidates := slices.Clone(p.hosts)
	slices.SortStableFunc(candidates, func(a, b *cloud.Host) int {
		return b.FreePes() - a.FreePes()
	})
	for _, h := range candidates {
		if p.AllocateHostForVmOn(vm, h) {
			return true
		}
	}
	return false
}

// OptimizeAllocation never proposes migrations.
func (p *Simple) OptimizeAllocation([]*cloud.Vm) []Migration { return nil }
