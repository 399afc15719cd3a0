package sim

import (
	"fmt"

	"github.com/cloud-sim/cloud-sim/sim/cloud"
)

// Tag identifies the kind of an Event. Entities dispatch on it in ProcessEvent.
type Tag int

const (
	// TagEndOfSimulation shuts the destination entity down. Consumed by the kernel.
	TagEndOfSimulation Tag = iota
	// TagResourceListRequest is the broker's self-addressed discovery request.
	TagResourceListRequest
	// TagCharacteristicsQuery asks a datacenter for its characteristics.
	TagCharacteristicsQuery
	// TagCharacteristics carries a datacenter's characteristics back to the requester.
	TagCharacteristics
	// TagVmCreate asks a datacenter to place a VM and acknowledge the outcome.
	TagVmCreate
	// TagVmCreateAck reports the success or failure of a TagVmCreate.
	TagVmCreateAck
	// TagVmDestroy removes a VM from its datacenter.
	TagVmDestroy
	// TagCloudletSubmit hands a cloudlet to the datacenter hosting its VM.
	TagCloudletSubmit
	// TagCloudletReturn returns a finished (or failed) cloudlet to its owner.
	TagCloudletReturn
	// TagVmMigrate completes a live migration started by the consolidation policy.
	TagVmMigrate
	// TagDatacenterTick is the datacenter's periodic self-scheduled wake-up.
	TagDatacenterTick
)

var tagNames = map[Tag]string{
	TagEndOfSimulation:      "EndOfSimulation",
	TagResourceListRequest:  "ResourceListRequest",
	TagCharacteristicsQuery: "CharacteristicsQuery",
	TagCharacteristics:      "Characteristics",
	TagVmCreate:             "VmCreate",
	TagVmCreateAck:          "VmCreateAck",
	TagVmDestroy:            "VmDestroy",
	TagCloudletSubmit:       "CloudletSubmit",
	TagCloudletReturn:       "CloudletReturn",
	TagVmMigrate:            "VmMigrate",
	TagDatacenterTick:       "DatacenterTick",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Payload is the typed body of an Event. The set of variants is closed:
// only types in this package implement it.
type Payload interface {
	payload()
}

// RequesterPayload names the entity that expects a reply.
type RequesterPayload struct {
	ID int
}

// CharacteristicsPayload carries a datacenter's static description.
type CharacteristicsPayload struct {
	Characteristics *cloud.DatacenterCharacteristics
}

// VmPayload carries a VM for creation or destruction.
type VmPayload struct {
	Vm *cloud.Vm
}

// VmAckPayload is the outcome of a VM creation request.
type VmAckPayload struct {
	DatacenterID int
	VmID         int
	Success      bool
}

// CloudletPayload carries a cloudlet for submission or return.
type CloudletPayload struct {
	Cloudlet *cloud.Cloudlet
}

// MigrationPayload is a migration directive: move Vm onto Host.
type MigrationPayload struct {
	Vm   *cloud.Vm
	Host *cloud.Host
}

func (RequesterPayload) payload()       {}
func (CharacteristicsPayload) payload() {}
func (VmPayload) payload()              {}
func (VmAckPayload) payload()           {}
func (CloudletPayload) payload()        {}
func (MigrationPayload) payload()       {}

// Event is a message between entities, fired at a point in simulated time.
// Events are immutable once created; all fields are read through accessors.
type Event struct {
	serial   int64
	time     float64
	enqueued float64
	src      int
	dst      int
	tag      Tag
	data     Payload
}

// Serial is the insertion order of the event, used to break fire-time ties.
func (e *Event) Serial() int64 { return e.serial }

// Time is the simulated time at which the event fires.
func (e *Event) Time() float64 { return e.time }

// EnqueueTime is the clock value when the event was scheduled.
func (e *Event) EnqueueTime() float64 { return e.enqueued }

// Source is the id of the sending entity.
func (e *Event) Source() int { return e.src }

// Destination is the id of the receiving entity.
func (e *Event) Destination() int { return e.dst }

// Tag is the kind of the event.
func (e *Event) Tag() Tag { return e.tag }

// Data is the event's payload; nil for events that carry none.
func (e *Event) Data() Payload { return e.data }

func (e *Event) String() string {
	return fmt.Sprintf("Event{#%d t=%.2f %d->%d %s}", e.serial, e.time, e.src, e.dst, e.tag)
}
