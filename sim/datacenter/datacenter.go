// Package datacenter implements the power-aware datacenter entity: it places
// VMs through an allocation policy, runs cloudlets on its hosts, accounts
// energy on a fixed scheduling interval and carries out the migrations its
// consolidation policy proposes.
package datacenter

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/cloud-sim/cloud-sim/sim"
	"github.com/cloud-sim/cloud-sim/sim/cloud"
	"github.com/cloud-sim/cloud-sim/sim/metrics"
	"github.com/cloud-sim/cloud-sim/sim/policy"
	"github.com/cloud-sim/cloud-sim/sim/power"
	"github.com/cloud-sim/cloud-sim/sim/trace"
)

// migrationBwScale turns host bandwidth into the per-MB transfer rate used
// for migrations: half the link carries migration traffic, 8000 converts units.
const migrationBwScale = 2 * 8000

// Config collects everything a PowerDatacenter needs at construction.
type Config struct {
	Name               string
	Characteristics    cloud.CharacteristicsConfig
	Hosts              []*cloud.Host
	Policy             policy.AllocationPolicy
	SchedulingInterval float64
	DisableMigrations  bool

	Metrics *metrics.Recorder      // optional
	Trace   *trace.SimulationTrace // optional
}

// PowerDatacenter is a datacenter entity that tracks host energy and performs
// live migrations.
type PowerDatacenter struct {
	sim.BaseEntity

	characteristics   *cloud.DatacenterCharacteristics
	hosts             []*cloud.Host
	policy            policy.AllocationPolicy
	vms               []*cloud.Vm
	interval          float64
	disableMigrations bool

	lastProcessTime   float64
	cloudletSubmitted float64
	power             float64
	migrationCount    int
	returned          int

	metrics *metrics.Recorder
	trace   *trace.SimulationTrace
}

// New validates cfg and creates the datacenter. It must be added to a
// Simulator before use.
func New(cfg Config) (*PowerDatacenter, error) {
	if len(cfg.Hosts) == 0 {
		return nil, fmt.Errorf("datacenter %q: at least one host is required", cfg.Name)
	}
	if cfg.Policy == nil {
		return nil, fmt.Errorf("datacenter %q: allocation policy is required", cfg.Name)
	}
	if cfg.SchedulingInterval <= 0 || math.IsInf(cfg.SchedulingInterval, 0) || math.IsNaN(cfg.SchedulingInterval) {
		return nil, fmt.Errorf("datacenter %q: scheduling interval must be a positive finite number, got %v", cfg.Name, cfg.SchedulingInterval)
	}
	return &PowerDatacenter{
		BaseEntity:        sim.NewBaseEntity(cfg.Name),
		characteristics:   cloud.NewDatacenterCharacteristics(cfg.Characteristics, cfg.Hosts),
		hosts:             slices.Clone(cfg.Hosts),
		policy:            cfg.Policy,
		interval:          cfg.SchedulingInterval,
		disableMigrations: cfg.DisableMigrations,
		cloudletSubmitted: -1,
		metrics:           cfg.Metrics,
		trace:             cfg.Trace,
	}, nil
}

// Power is the energy consumed so far, in W*sec.
func (d *PowerDatacenter) Power() float64 { return d.power }

// MigrationCount is the number of migrations started so far.
func (d *PowerDatacenter) MigrationCount() int { return d.migrationCount }

// CloudletsReturned is the number of cloudlets handed back to their owners.
func (d *PowerDatacenter) CloudletsReturned() int { return d.returned }

// VmList returns the active VMs.
func (d *PowerDatacenter) VmList() []*cloud.Vm { return slices.Clone(d.vms) }

// Hosts returns the datacenter's hosts.
func (d *PowerDatacenter) Hosts() []*cloud.Host { return slices.Clone(d.hosts) }

func (d *PowerDatacenter) Characteristics() *cloud.DatacenterCharacteristics {
	return d.characteristics
}

func (d *PowerDatacenter) SchedulingInterval() float64 { return d.interval }

// LastProcessTime is the clock value of the last processing pass.
func (d *PowerDatacenter) LastProcessTime() float64 { return d.lastProcessTime }

// StartEntity registers the datacenter in the directory.
func (d *PowerDatacenter) StartEntity(s *sim.Simulator) {
	s.Directory().RegisterResource(d.ID())
	logrus.Infof("[%.2f] %s is starting with %d hosts", s.Clock(), d.Name(), len(d.hosts))
}

// ShutdownEntity logs the final energy and migration figures.
func (d *PowerDatacenter) ShutdownEntity(s *sim.Simulator) {
	logrus.Infof("[%.2f] %s is shutting down: energy %.2f W*sec, %d migrations",
		s.Clock(), d.Name(), d.power, d.migrationCount)
}

// ProcessEvent dispatches on the event tag.
func (d *PowerDatacenter) ProcessEvent(s *sim.Simulator, ev *sim.Event) {
	switch ev.Tag() {
	case sim.TagCharacteristicsQuery:
		d.processCharacteristicsQuery(s, ev)
	case sim.TagVmCreate:
		if p, ok := ev.Data().(sim.VmPayload); ok {
			d.processVmCreate(s, p.Vm)
			return
		}
		d.ProcessOtherEvent(s, ev)
	case sim.TagVmDestroy:
		if p, ok := ev.Data().(sim.VmPayload); ok {
			d.processVmDestroy(s, p.Vm)
			return
		}
		d.ProcessOtherEvent(s, ev)
	case sim.TagCloudletSubmit:
		if p, ok := ev.Data().(sim.CloudletPayload); ok {
			d.processCloudletSubmit(s, p.Cloudlet)
			return
		}
		d.ProcessOtherEvent(s, ev)
	case sim.TagDatacenterTick:
		d.updateCloudletProcessing(s)
	case sim.TagVmMigrate:
		if p, ok := ev.Data().(sim.MigrationPayload); ok {
			d.processVmMigrate(s, p)
			return
		}
		d.ProcessOtherEvent(s, ev)
	default:
		d.ProcessOtherEvent(s, ev)
	}
}

func (d *PowerDatacenter) processCharacteristicsQuery(s *sim.Simulator, ev *sim.Event) {
	requester := ev.Source()
	if p, ok := ev.Data().(sim.RequesterPayload); ok {
		requester = p.ID
	}
	d.SendNow(s, requester, sim.TagCharacteristics, sim.CharacteristicsPayload{Characteristics: d.characteristics})
}

func (d *PowerDatacenter) processVmCreate(s *sim.Simulator, vm *cloud.Vm) {
	ok := d.policy.AllocateHostForVm(vm)
	if ok {
		d.vms = append(d.vms, vm)
		logrus.Debugf("[%.2f] %s: VM #%d of user %d placed on host #%d", s.Clock(), d.Name(), vm.ID, vm.UserID, vm.Host().ID)
	} else {
		logrus.Debugf("[%.2f] %s: no host for VM #%d of user %d", s.Clock(), d.Name(), vm.ID, vm.UserID)
	}
	d.SendNow(s, vm.UserID, sim.TagVmCreateAck, sim.VmAckPayload{DatacenterID: d.ID(), VmID: vm.ID, Success: ok})
}

func (d *PowerDatacenter) processVmDestroy(s *sim.Simulator, vm *cloud.Vm) {
	if vm.InMigration() {
		for _, h := range d.hosts {
			h.RemoveMigratingInVm(vm)
		}
		vm.SetInMigration(false)
		s.CancelAll(d.ID(), sim.PredicateFunc(func(ev *sim.Event) bool {
			p, ok := ev.Data().(sim.MigrationPayload)
			return ev.Tag() == sim.TagVmMigrate && ok && p.Vm == vm
		}))
	}
	if d.removeVm(vm) || vm.Host() != nil {
		d.policy.DeallocateHostForVm(vm)
	}
	logrus.Debugf("[%.2f] %s: VM #%d of user %d destroyed", s.Clock(), d.Name(), vm.ID, vm.UserID)
}

func (d *PowerDatacenter) processCloudletSubmit(s *sim.Simulator, cl *cloud.Cloudlet) {
	d.updateCloudletProcessing(s)

	cl.SetDatacenterID(d.ID())
	vm := d.findVm(cl.UserID, cl.VmID())
	if vm == nil {
		logrus.Warnf("[%.2f] %s: cloudlet #%d names VM #%d which is not here; returning it as failed",
			s.Clock(), d.Name(), cl.ID, cl.VmID())
		cl.MarkFailed(s.Clock())
		d.returnCloudlet(s, cl)
		return
	}
	vm.Scheduler().Submit(cl, s.Clock())
	d.cloudletSubmitted = s.Clock()
	d.checkCloudletCompletion(s)
}

// updateCloudletProcessing is the tick handler. Nothing is processed until
// a cloudlet has been submitted at an earlier time than now; until then the
// tick is only rescheduled.
func (d *PowerDatacenter) updateCloudletProcessing(s *sim.Simulator) {
	if d.cloudletSubmitted == -1 || d.cloudletSubmitted == s.Clock() {
		d.scheduleTick(s)
		return
	}
	now := s.Clock()
	if now <= d.lastProcessTime {
		// a forced pass already ran at this instant; keep the timer alive
		if d.hasRunningCloudlets() {
			d.scheduleTick(s)
		}
		return
	}

	minTime := d.updateProcessingForce(s)
	if !d.disableMigrations {
		d.startMigrations(s, d.policy.OptimizeAllocation(d.VmList()))
	}
	if !math.IsInf(minTime, 1) {
		d.scheduleTick(s)
	}
	d.lastProcessTime = now
}

// scheduleTick keeps exactly one pending tick, one interval from now.
func (d *PowerDatacenter) scheduleTick(s *sim.Simulator) {
	s.CancelAll(d.ID(), sim.TypeIs(sim.TagDatacenterTick))
	d.Send(s, d.ID(), d.interval, sim.TagDatacenterTick, nil)
}

func (d *PowerDatacenter) updateProcessingIfAdvanced(s *sim.Simulator) {
	if s.Clock() > d.lastProcessTime {
		d.updateProcessingForce(s)
	}
}

// updateProcessingForce advances every host to now, adds the energy of the
// elapsed frame, returns finished cloudlets and frees drained VMs. It returns
// the earliest time any host needs attention.
func (d *PowerDatacenter) updateProcessingForce(s *sim.Simulator) float64 {
	now := s.Clock()
	minTime := math.Inf(1)
	timeDiff := now - d.lastProcessTime

	for _, h := range d.hosts {
		minTime = min(minTime, h.UpdateVmsProcessing(now))
		d.metrics.ObserveHostUtilization(d.Name(), h.ID, h.Utilization())
		logrus.Debugf("[%.2f] %s: host #%d utilization is %.2f%%", now, d.Name(), h.ID, h.Utilization()*100)
	}

	if timeDiff > 0 {
		var frameEnergy float64
		for _, h := range d.hosts {
			e, err := power.EnergyLinearInterpolation(h.PowerModel(), h.PreviousUtilization(), h.Utilization(), timeDiff)
			if err != nil {
				logrus.Errorf("[%.2f] %s: host #%d energy: %v", now, d.Name(), h.ID, err)
				continue
			}
			frameEnergy += e
			logrus.Debugf("[%.2f] %s: host #%d utilization went %.2f%% -> %.2f%%, energy %.2f W*sec",
				now, d.Name(), h.ID, h.PreviousUtilization()*100, h.Utilization()*100, e)
		}
		d.power += frameEnergy
		d.metrics.SetEnergy(d.Name(), d.power)
		logrus.Debugf("[%.2f] %s: energy for %.2f..%.2f is %.2f W*sec", now, d.Name(), d.lastProcessTime, now, frameEnergy)
	}

	d.checkCloudletCompletion(s)

	for _, h := range d.hosts {
		for _, vm := range h.CompletedVms() {
			d.policy.DeallocateHostForVm(vm)
			d.removeVm(vm)
			logrus.Infof("[%.2f] %s: VM #%d has been deallocated from host #%d", now, d.Name(), vm.ID, h.ID)
		}
	}

	d.lastProcessTime = now
	return minTime
}

func (d *PowerDatacenter) startMigrations(s *sim.Simulator, migrations []policy.Migration) {
	for _, m := range migrations {
		source := m.Vm.Host()
		if m.Host == nil || m.Host == source {
			logrus.Warnf("[%.2f] %s: ignoring migration of VM #%d onto its own host", s.Clock(), d.Name(), m.Vm.ID)
			continue
		}
		if !m.Host.AddMigratingInVm(m.Vm) {
			logrus.Warnf("[%.2f] %s: host #%d cannot receive VM #%d", s.Clock(), d.Name(), m.Host.ID, m.Vm.ID)
			continue
		}
		d.migrationCount++
		d.metrics.IncMigrations(d.Name())

		delay := float64(m.Vm.Ram) / (float64(m.Host.Bw) / migrationBwScale)
		sourceID := -1
		if source != nil {
			sourceID = source.ID
			logrus.Infof("[%.2f] %s: migration of VM #%d from host #%d to host #%d is started",
				s.Clock(), d.Name(), m.Vm.ID, source.ID, m.Host.ID)
		} else {
			logrus.Infof("[%.2f] %s: migration of VM #%d to host #%d is started", s.Clock(), d.Name(), m.Vm.ID, m.Host.ID)
		}
		if d.trace.Enabled() {
			d.trace.RecordMigration(trace.MigrationRecord{
				Clock:      s.Clock(),
				Datacenter: d.Name(),
				VmID:       m.Vm.ID,
				SourceHost: sourceID,
				TargetHost: m.Host.ID,
				Delay:      delay,
			})
		}
		d.Send(s, d.ID(), delay, sim.TagVmMigrate, sim.MigrationPayload{Vm: m.Vm, Host: m.Host})
	}
}

// processVmMigrate lands a migration. Processing is brought up to date
// before the VM moves and, unless another migration lands at this instant,
// again right after.
func (d *PowerDatacenter) processVmMigrate(s *sim.Simulator, p sim.MigrationPayload) {
	d.updateProcessingIfAdvanced(s)

	vm, target := p.Vm, p.Host
	d.policy.DeallocateHostForVm(vm)
	target.RemoveMigratingInVm(vm)
	if !d.policy.AllocateHostForVmOn(vm, target) {
		logrus.Errorf("[%.2f] %s: allocation of VM #%d to destination host #%d failed", s.Clock(), d.Name(), vm.ID, target.ID)
		if !d.policy.AllocateHostForVm(vm) {
			logrus.Errorf("[%.2f] %s: VM #%d lost during migration", s.Clock(), d.Name(), vm.ID)
			d.removeVm(vm)
		}
	} else {
		logrus.Infof("[%.2f] %s: migration of VM #%d to host #%d is completed", s.Clock(), d.Name(), vm.ID, target.ID)
	}
	vm.SetInMigration(false)

	next := s.FindFirstDeferred(d.ID(), sim.TypeIs(sim.TagVmMigrate))
	if next == nil || next.Time() > s.Clock() {
		d.updateProcessingForce(s)
	}
}

func (d *PowerDatacenter) checkCloudletCompletion(s *sim.Simulator) {
	for _, vm := range d.vms {
		for _, cl := range vm.Scheduler().DrainFinished() {
			d.returnCloudlet(s, cl)
		}
	}
}

func (d *PowerDatacenter) returnCloudlet(s *sim.Simulator, cl *cloud.Cloudlet) {
	d.returned++
	d.metrics.IncCloudletsReturned(d.Name(), cl.Status().String())
	d.SendNow(s, cl.UserID, sim.TagCloudletReturn, sim.CloudletPayload{Cloudlet: cl})
}

func (d *PowerDatacenter) hasRunningCloudlets() bool {
	return slices.ContainsFunc(d.vms, func(vm *cloud.Vm) bool { return vm.Scheduler().HasRunning() })
}

func (d *PowerDatacenter) findVm(userID, vmID int) *cloud.Vm {
	idx := slices.IndexFunc(d.vms, func(vm *cloud.Vm) bool {
		return vm.ID == vmID && vm.UserID == userID
	})
	if idx < 0 {
		return nil
	}
	return d.vms[idx]
}

func (d *PowerDatacenter) removeVm(vm *cloud.Vm) bool {
	idx := slices.Index(d.vms, vm)
	if idx < 0 {
		return false
	}
	d.vms = slices.Delete(d.vms, idx, idx+1)
	return true
}
