// Package broker implements the tenant-side entity that discovers
// datacenters, negotiates VM placement across them and runs cloudlets on
// the VMs it obtains.
package broker

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/cloud-sim/cloud-sim/sim"
	"github.com/cloud-sim/cloud-sim/sim/cloud"
)

// DatacenterBroker acquires VMs on behalf of one tenant and submits the
// tenant's cloudlets to them.
//
// VM creation is tried one datacenter at a time, in directory order, until
// every VM exists or every datacenter has been asked. Cloudlets without a
// binding are spread round-robin over the created VMs; cloudlets bound to a
// VM that was never created stay pending. When only such cloudlets are left
// the broker releases its VMs and negotiates again from the first datacenter.
type DatacenterBroker struct {
	sim.BaseEntity

	state          State
	started        bool
	abortOnFailure bool

	vms       []*cloud.Vm
	created   []*cloud.Vm
	cloudlets []*cloud.Cloudlet // pending
	submitted []*cloud.Cloudlet
	received  []*cloud.Cloudlet

	datacenterIDs   []int
	characteristics map[int]*cloud.DatacenterCharacteristics
	tried           []int
	vmToDatacenter  map[int]int

	vmsRequested int
	vmsAcks      int
	creations    int
	outstanding  int
	rounds       []CreationRound
}

// Option customizes a broker at construction.
type Option func(*DatacenterBroker)

// WithAbortOnVmFailure makes any refused VM creation end the whole
// simulation instead of moving on to the next datacenter.
func WithAbortOnVmFailure() Option {
	return func(b *DatacenterBroker) { b.abortOnFailure = true }
}

// New creates a broker. Register it with a simulator before submitting lists.
func New(name string, opts ...Option) *DatacenterBroker {
	b := &DatacenterBroker{
		BaseEntity:      sim.NewBaseEntity(name),
		characteristics: make(map[int]*cloud.DatacenterCharacteristics),
		vmToDatacenter:  make(map[int]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SubmitVmList hands VMs to the broker, which becomes their owner.
func (b *DatacenterBroker) SubmitVmList(vms ...*cloud.Vm) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	for _, vm := range vms {
		vm.UserID = b.ID()
		b.vms = append(b.vms, vm)
	}
	return nil
}

// SubmitCloudletList hands cloudlets to the broker; they start pending.
func (b *DatacenterBroker) SubmitCloudletList(cloudlets ...*cloud.Cloudlet) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	for _, cl := range cloudlets {
		cl.UserID = b.ID()
		b.cloudlets = append(b.cloudlets, cl)
	}
	return nil
}

// BindCloudletToVm pins a pending cloudlet to one of the broker's VMs.
// Bindings are fixed once the broker has started.
func (b *DatacenterBroker) BindCloudletToVm(cloudletID, vmID int) error {
	if b.started {
		return errors.Wrapf(ErrNegotiationStarted, "binding cloudlet #%d", cloudletID)
	}
	idx := slices.IndexFunc(b.cloudlets, func(cl *cloud.Cloudlet) bool { return cl.ID == cloudletID })
	if idx < 0 {
		return errors.Wrapf(ErrUnknownCloudlet, "cloudlet #%d", cloudletID)
	}
	if b.findVm(vmID) == nil {
		return errors.Wrapf(ErrUnknownVm, "binding cloudlet #%d to VM #%d", cloudletID, vmID)
	}
	b.cloudlets[idx].SetVmID(vmID)
	return nil
}

func (b *DatacenterBroker) checkMutable() error {
	if b.started {
		return errors.Wrapf(ErrNegotiationStarted, "%s", b.Name())
	}
	if b.ID() < 0 {
		return errors.Wrapf(ErrNotRegistered, "%s", b.Name())
	}
	return nil
}

// State returns the current protocol step.
func (b *DatacenterBroker) State() State { return b.state }

// VmList returns every VM owned by the broker.
func (b *DatacenterBroker) VmList() []*cloud.Vm { return slices.Clone(b.vms) }

// CreatedVms returns the VMs currently created, in creation order.
func (b *DatacenterBroker) CreatedVms() []*cloud.Vm { return slices.Clone(b.created) }

// PendingCloudlets returns the cloudlets not yet submitted.
func (b *DatacenterBroker) PendingCloudlets() []*cloud.Cloudlet { return slices.Clone(b.cloudlets) }

// SubmittedCloudlets returns the cloudlets submitted so far, in submission order.
func (b *DatacenterBroker) SubmittedCloudlets() []*cloud.Cloudlet { return slices.Clone(b.submitted) }

// ReceivedCloudlets returns the cloudlets returned so far, in arrival order.
func (b *DatacenterBroker) ReceivedCloudlets() []*cloud.Cloudlet { return slices.Clone(b.received) }

// CreationRounds returns every VM creation batch sent so far.
func (b *DatacenterBroker) CreationRounds() []CreationRound { return slices.Clone(b.rounds) }

// VmCreations counts successful VM creations over the whole run, renegotiations included.
func (b *DatacenterBroker) VmCreations() int { return b.creations }

// DatacenterOf returns the datacenter hosting a created VM.
func (b *DatacenterBroker) DatacenterOf(vmID int) (int, bool) {
	id, ok := b.vmToDatacenter[vmID]
	return id, ok
}

// StartEntity asks for the list of datacenters.
func (b *DatacenterBroker) StartEntity(s *sim.Simulator) {
	b.started = true
	b.state = AwaitingResourceList
	logrus.Infof("[%.2f] %s is starting...", s.Clock(), b.Name())
	b.SendNow(s, b.ID(), sim.TagResourceListRequest, sim.RequesterPayload{ID: b.ID()})
}

// ShutdownEntity logs the final tallies.
func (b *DatacenterBroker) ShutdownEntity(s *sim.Simulator) {
	logrus.Infof("[%.2f] %s is shutting down: %d submitted, %d received, %d pending",
		s.Clock(), b.Name(), len(b.submitted), len(b.received), len(b.cloudlets))
}

// ProcessEvent dispatches on the event tag.
func (b *DatacenterBroker) ProcessEvent(s *sim.Simulator, ev *sim.Event) {
	switch ev.Tag() {
	case sim.TagResourceListRequest:
		b.processResourceList(s)
	case sim.TagCharacteristics:
		if p, ok := ev.Data().(sim.CharacteristicsPayload); ok {
			b.processCharacteristics(s, ev.Source(), p.Characteristics)
			return
		}
		b.ProcessOtherEvent(s, ev)
	case sim.TagVmCreateAck:
		if p, ok := ev.Data().(sim.VmAckPayload); ok {
			b.processVmCreateAck(s, p)
			return
		}
		b.ProcessOtherEvent(s, ev)
	case sim.TagCloudletReturn:
		if p, ok := ev.Data().(sim.CloudletPayload); ok {
			b.processCloudletReturn(s, p.Cloudlet)
			return
		}
		b.ProcessOtherEvent(s, ev)
	default:
		b.ProcessOtherEvent(s, ev)
	}
}

func (b *DatacenterBroker) processResourceList(s *sim.Simulator) {
	b.datacenterIDs = s.Directory().DatacenterIDs()
	clear(b.characteristics)
	logrus.Infof("[%.2f] %s: cloud resource list received with %d resource(s)", s.Clock(), b.Name(), len(b.datacenterIDs))
	if len(b.datacenterIDs) == 0 {
		b.abort(s)
		return
	}
	b.state = AwaitingCharacteristics
	for _, id := range b.datacenterIDs {
		b.SendNow(s, id, sim.TagCharacteristicsQuery, sim.RequesterPayload{ID: b.ID()})
	}
}

func (b *DatacenterBroker) processCharacteristics(s *sim.Simulator, from int, c *cloud.DatacenterCharacteristics) {
	if b.state != AwaitingCharacteristics {
		logrus.Warnf("[%.2f] %s: characteristics from #%d arrived in state %s, ignored", s.Clock(), b.Name(), from, b.state)
		return
	}
	b.characteristics[from] = c
	if len(b.characteristics) == len(b.datacenterIDs) {
		b.tried = b.tried[:0]
		b.createVmsInDatacenter(s, b.datacenterIDs[0])
	}
}

// createVmsInDatacenter sends one creation request per VM not yet mapped to
// a datacenter and opens a new acknowledgment round.
func (b *DatacenterBroker) createVmsInDatacenter(s *sim.Simulator, datacenterID int) {
	b.state = CreatingVMs
	name := s.Directory().EntityName(datacenterID)
	round := CreationRound{Clock: s.Clock(), DatacenterID: datacenterID}
	for _, vm := range b.vms {
		if _, mapped := b.vmToDatacenter[vm.ID]; mapped {
			continue
		}
		logrus.Infof("[%.2f] %s: trying to create VM #%d in %s", s.Clock(), b.Name(), vm.ID, name)
		b.SendNow(s, datacenterID, sim.TagVmCreate, sim.VmPayload{Vm: vm})
		round.VmIDs = append(round.VmIDs, vm.ID)
	}
	b.tried = append(b.tried, datacenterID)
	b.rounds = append(b.rounds, round)
	b.vmsRequested = len(round.VmIDs)
	b.vmsAcks = 0
	if b.vmsRequested == 0 {
		b.onCreationRoundComplete(s)
	}
}

func (b *DatacenterBroker) processVmCreateAck(s *sim.Simulator, ack sim.VmAckPayload) {
	if b.state != CreatingVMs {
		logrus.Warnf("[%.2f] %s: creation ack for VM #%d arrived in state %s, ignored", s.Clock(), b.Name(), ack.VmID, b.state)
		return
	}
	b.vmsAcks++
	if ack.Success {
		vm := b.findVm(ack.VmID)
		b.vmToDatacenter[ack.VmID] = ack.DatacenterID
		b.creations++
		if vm != nil && !slices.Contains(b.created, vm) {
			b.created = append(b.created, vm)
		}
		hostID := -1
		if vm != nil && vm.Host() != nil {
			hostID = vm.Host().ID
		}
		logrus.Infof("[%.2f] %s: VM #%d has been created in datacenter #%d, host #%d",
			s.Clock(), b.Name(), ack.VmID, ack.DatacenterID, hostID)
	} else if b.abortOnFailure {
		logrus.Errorf("[%.2f] %s: creation of VM #%d failed in datacenter #%d, simulation aborted",
			s.Clock(), b.Name(), ack.VmID, ack.DatacenterID)
		b.state = Terminated
		s.Terminate()
		return
	} else {
		logrus.Warnf("[%.2f] %s: creation of VM #%d failed in datacenter #%d", s.Clock(), b.Name(), ack.VmID, ack.DatacenterID)
	}
	if b.vmsAcks == b.vmsRequested {
		b.onCreationRoundComplete(s)
	}
}

// onCreationRoundComplete moves on once every request of the round was acknowledged.
func (b *DatacenterBroker) onCreationRoundComplete(s *sim.Simulator) {
	if len(b.vms) == 0 {
		b.abort(s)
		return
	}
	if len(b.created) == len(b.vms) {
		b.submitCloudlets(s)
		return
	}
	for _, id := range b.datacenterIDs {
		if !slices.Contains(b.tried, id) {
			b.createVmsInDatacenter(s, id)
			return
		}
	}
	if len(b.created) > 0 {
		b.submitCloudlets(s)
		return
	}
	b.abort(s)
}

// abort is the single exit for "no VM could be created", whether no
// datacenter exists or every one refused.
func (b *DatacenterBroker) abort(s *sim.Simulator) {
	logrus.Errorf("[%.2f] %s: none of the required VMs could be created. Aborting", s.Clock(), b.Name())
	b.finishExecution(s)
}

// submitCloudlets sends every pending cloudlet whose VM exists. Unbound
// cloudlets are assigned round-robin over the created VMs.
func (b *DatacenterBroker) submitCloudlets(s *sim.Simulator) {
	b.state = SubmittingTasks
	vmIndex := 0
	var postponed []*cloud.Cloudlet
	for _, cl := range b.cloudlets {
		var vm *cloud.Vm
		if !cl.IsBound() {
			if len(b.created) == 0 {
				postponed = append(postponed, cl)
				continue
			}
			vm = b.created[vmIndex]
			vmIndex = (vmIndex + 1) % len(b.created)
		} else if vm = b.findCreated(cl.VmID()); vm == nil {
			logrus.Warnf("[%.2f] %s: postponing execution of cloudlet #%d: bound VM #%d not available",
				s.Clock(), b.Name(), cl.ID, cl.VmID())
			postponed = append(postponed, cl)
			continue
		}
		logrus.Infof("[%.2f] %s: sending cloudlet #%d to VM #%d", s.Clock(), b.Name(), cl.ID, vm.ID)
		cl.SetVmID(vm.ID)
		b.SendNow(s, b.vmToDatacenter[vm.ID], sim.TagCloudletSubmit, sim.CloudletPayload{Cloudlet: cl})
		b.submitted = append(b.submitted, cl)
		b.outstanding++
	}
	b.cloudlets = postponed
	b.state = AwaitingTaskCompletion

	if b.outstanding == 0 {
		if len(b.cloudlets) > 0 {
			logrus.Errorf("[%.2f] %s: %d cloudlet(s) wait on VMs that could not be created", s.Clock(), b.Name(), len(b.cloudlets))
		}
		b.clearDatacenters(s)
		b.finishExecution(s)
	}
}

func (b *DatacenterBroker) processCloudletReturn(s *sim.Simulator, cl *cloud.Cloudlet) {
	if !slices.Contains(b.submitted, cl) || slices.Contains(b.received, cl) {
		logrus.Warnf("[%.2f] %s: unexpected return of cloudlet #%d, ignored", s.Clock(), b.Name(), cl.ID)
		return
	}
	b.received = append(b.received, cl)
	b.outstanding--
	logrus.Infof("[%.2f] %s: cloudlet #%d received (%s)", s.Clock(), b.Name(), cl.ID, cl.Status())

	if b.outstanding > 0 {
		return
	}
	if len(b.cloudlets) == 0 {
		logrus.Infof("[%.2f] %s: all cloudlets executed. Finishing...", s.Clock(), b.Name())
		b.clearDatacenters(s)
		b.finishExecution(s)
		return
	}
	// only cloudlets bound to never-created VMs remain: start over
	logrus.Infof("[%.2f] %s: %d cloudlet(s) still pending, renegotiating VMs", s.Clock(), b.Name(), len(b.cloudlets))
	b.clearDatacenters(s)
	clear(b.vmToDatacenter)
	b.tried = b.tried[:0]
	b.createVmsInDatacenter(s, b.datacenterIDs[0])
}

// clearDatacenters destroys every created VM.
func (b *DatacenterBroker) clearDatacenters(s *sim.Simulator) {
	b.state = Destroying
	for _, vm := range b.created {
		logrus.Infof("[%.2f] %s: destroying VM #%d", s.Clock(), b.Name(), vm.ID)
		b.SendNow(s, b.vmToDatacenter[vm.ID], sim.TagVmDestroy, sim.VmPayload{Vm: vm})
	}
	b.created = nil
}

func (b *DatacenterBroker) finishExecution(s *sim.Simulator) {
	b.state = Terminated
	b.SendNow(s, b.ID(), sim.TagEndOfSimulation, nil)
}

func (b *DatacenterBroker) findVm(id int) *cloud.Vm {
	idx := slices.IndexFunc(b.vms, func(vm *cloud.Vm) bool { return vm.ID == id })
	if idx < 0 {
		return nil
	}
	return b.vms[idx]
}

func (b *DatacenterBroker) findCreated(id int) *cloud.Vm {
	idx := slices.IndexFunc(b.created, func(vm *cloud.Vm) bool { return vm.ID == id })
	if idx < 0 {
		return nil
	}
	return b.created[idx]
}
