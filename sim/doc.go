// Package sim provides the discrete-event simulation kernel for cloud-sim.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event.go: Event, Tag and the closed set of typed payloads
//   - queue.go: the future queue (time, then insertion order) and per-entity deferred queues
//   - simulator.go: the clock tick, dispatch, cancellation and lifecycle handling
//   - entity.go: the Entity contract and the embeddable BaseEntity
//
// # Architecture
//
// The sim package owns no domain behavior. Entities live in sub-packages:
//   - sim/broker/: DatacenterBroker, the VM negotiation and cloudlet submission protocol
//   - sim/datacenter/: PowerDatacenter, the periodic tick, migration and energy accounting
//
// and are built from the domain model and pluggable strategies:
//   - sim/cloud/: cloudlets, VMs, hosts and the per-VM cloudlet scheduler
//   - sim/policy/: VM placement and consolidation (AllocationPolicy)
//   - sim/power/: host power models and energy interpolation
//   - sim/utilization/: demand over time (UtilizationModel)
//   - sim/metrics/, sim/trace/: observability only
//   - sim/scenario/: YAML scenarios wiring everything together
//
// There is no package-level state: the Simulator value is the simulation
// context and is handed to every entity call.
package sim
