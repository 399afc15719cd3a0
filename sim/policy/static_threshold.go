package policy

import (
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/cloud-sim/cloud-sim/sim/cloud"
)

// StaticThreshold is a power-aware consolidation policy. Placement picks the
// host whose power draw grows least. A consolidation round sheds VMs from
// hosts above the utilization threshold, smallest RAM first, and then drains
// at most one underloaded host whose VMs all fit elsewhere.
type StaticThreshold struct {
	hostTable
	threshold float64
}

// NewStaticThreshold creates the policy with an overload threshold in (0,1].
func NewStaticThreshold(hosts []*cloud.Host, threshold float64) *StaticThreshold {
	return &StaticThreshold{hostTable: newHostTable(hosts), threshold: threshold}
}

// Threshold returns the overload threshold.
func (p *StaticThreshold) Threshold() float64 { return p.threshold }

// AllocateHostForVm places the VM on the host with the smallest power increase.
func (p *StaticThreshold) AllocateHostForVm(vm *cloud.Vm) bool {
	round := newPlanRound()
	host := p.findHostForVm(vm, round, nil)
	if host == nil {
		return false
	}
	return p.AllocateHostForVmOn(vm, host)
}

// OptimizeAllocation returns the migrations of one consolidation round.
func (p *StaticThreshold) OptimizeAllocation(vms []*cloud.Vm) []Migration {
	if slices.ContainsFunc(vms, (*cloud.Vm).InMigration) {
		// let in-flight migrations land before planning new ones
		return nil
	}
	round := newPlanRound()
	var migrations []Migration

	var overloaded []*cloud.Host
	for _, h := range p.hosts {
		if h.Utilization() > p.threshold {
			overloaded = append(overloaded, h)
		}
	}
	for _, h := range overloaded {
		for _, vm := range p.vmsToShed(h, round) {
			target := p.findHostForVm(vm, round, overloaded)
			if target == nil {
				logrus.Debugf("static-threshold: no target for VM #%d leaving host #%d", vm.ID, h.ID)
				continue
			}
			round.move(vm, h, target)
			migrations = append(migrations, Migration{Vm: vm, Host: target})
		}
	}

	if drained := p.drainUnderloaded(round, overloaded); drained != nil {
		migrations = append(migrations, drained...)
	}
	return migrations
}

// vmsToShed picks VMs off an overloaded host, smallest RAM first, until the
// estimated utilization is back under the threshold.
func (p *StaticThreshold) vmsToShed(h *cloud.Host, round *planRound) []*cloud.Vm {
	candidates := h.Vms()
	slices.SortStableFunc(candidates, func(a, b *cloud.Vm) int { return a.Ram - b.Ram })
	var out []*cloud.Vm
	load := round.load(h)
	for _, vm := range candidates {
		if load/h.TotalMips() <= p.threshold {
			break
		}
		out = append(out, vm)
		load -= vmLoad(vm)
	}
	return out
}

// drainUnderloaded tries to empty the least utilized active host that is not
// already part of this round. Either every VM gets a target or none move.
func (p *StaticThreshold) drainUnderloaded(round *planRound, overloaded []*cloud.Host) []Migration {
	var victim *cloud.Host
	for _, h := range p.hosts {
		if len(h.Vms()) == 0 || len(h.MigratingInVms()) > 0 || round.touched(h) || slices.Contains(overloaded, h) {
			continue
		}
		if victim == nil || h.Utilization() < victim.Utilization() {
			victim = h
		}
	}
	if victim == nil {
		return nil
	}
	trial := round.clone()
	excluded := append(slices.Clone(overloaded), victim)
	for _, h := range p.hosts {
		// never wake an idle host to drain another one
		if len(h.Vms()) == 0 && trial.incoming(h) == 0 {
			excluded = append(excluded, h)
		}
	}
	var out []Migration
	for _, vm := range victim.Vms() {
		target := p.findHostForVm(vm, trial, excluded)
		if target == nil {
			return nil
		}
		trial.move(vm, victim, target)
		out = append(out, Migration{Vm: vm, Host: target})
	}
	*round = *trial
	return out
}

// findHostForVm returns the suitable host, outside excluded and the VM's own
// host, whose power draw grows least without crossing the threshold.
func (p *StaticThreshold) findHostForVm(vm *cloud.Vm, round *planRound, excluded []*cloud.Host) *cloud.Host {
	var best *cloud.Host
	bestDiff := math.Inf(1)
	for _, h := range p.hosts {
		if h == vm.Host() || slices.Contains(excluded, h) || !round.fits(h, vm) {
			continue
		}
		before := round.load(h) / h.TotalMips()
		after := (round.load(h) + vmLoad(vm)) / h.TotalMips()
		if after > p.threshold {
			continue
		}
		pBefore, err := h.PowerModel().Power(min(before, 1))
		if err != nil {
			continue
		}
		pAfter, err := h.PowerModel().Power(min(after, 1))
		if err != nil {
			continue
		}
		if diff := pAfter - pBefore; diff < bestDiff {
			best, bestDiff = h, diff
		}
	}
	return best
}

// vmLoad estimates the MIPS a VM will need: what it was last granted when
// placed, its full capacity when not placed yet.
func vmLoad(vm *cloud.Vm) float64 {
	if vm.Host() == nil {
		return vm.TotalMips()
	}
	return vm.Scheduler().Allocated()
}

// planRound accumulates the capacity and load changes of the migrations
// chosen so far in one round, without touching the hosts.
type planRound struct {
	mips     map[*cloud.Host]float64
	pes      map[*cloud.Host]int
	ram      map[*cloud.Host]int
	bw       map[*cloud.Host]int64
	arrivals map[*cloud.Host]int
	sources  map[*cloud.Host]bool
}

func newPlanRound() *planRound {
	return &planRound{
		mips:     make(map[*cloud.Host]float64),
		pes:      make(map[*cloud.Host]int),
		ram:      make(map[*cloud.Host]int),
		bw:       make(map[*cloud.Host]int64),
		arrivals: make(map[*cloud.Host]int),
		sources:  make(map[*cloud.Host]bool),
	}
}

func (r *planRound) clone() *planRound {
	c := newPlanRound()
	for h, v := range r.mips {
		c.mips[h] = v
	}
	for h, v := range r.pes {
		c.pes[h] = v
	}
	for h, v := range r.ram {
		c.ram[h] = v
	}
	for h, v := range r.bw {
		c.bw[h] = v
	}
	for h, v := range r.arrivals {
		c.arrivals[h] = v
	}
	for h, v := range r.sources {
		c.sources[h] = v
	}
	return c
}

func (r *planRound) load(h *cloud.Host) float64 { return h.UtilizationMips() + r.mips[h] }

func (r *planRound) incoming(h *cloud.Host) int { return r.arrivals[h] }

func (r *planRound) touched(h *cloud.Host) bool { return r.sources[h] || r.arrivals[h] > 0 }

// fits checks capacity including VMs already planned onto h this round.
func (r *planRound) fits(h *cloud.Host, vm *cloud.Vm) bool {
	if !h.IsSuitableForVm(vm) {
		return false
	}
	return h.FreePes()-r.pes[h] >= vm.Pes &&
		freeRam(h)-r.ram[h] >= vm.Ram &&
		freeBw(h)-r.bw[h] >= vm.Bw
}

func (r *planRound) move(vm *cloud.Vm, from, to *cloud.Host) {
	load := vmLoad(vm)
	r.mips[from] -= load
	r.mips[to] += load
	r.pes[to] += vm.Pes
	r.ram[to] += vm.Ram
	r.bw[to] += vm.Bw
	r.arrivals[to]++
	r.sources[from] = true
}

func freeRam(h *cloud.Host) int {
	used := 0
	for _, vm := range h.Vms() {
		used += vm.Ram
	}
	for _, vm := range h.MigratingInVms() {
		used += vm.Ram
	}
	return h.Ram - used
}

func freeBw(h *cloud.Host) int64 {
	var used int64
	for _, vm := range h.Vms() {
		used += vm.Bw
	}
	for _, vm := range h.MigratingInVms() {
		used += vm.Bw
	}
	return h.Bw - used
}
