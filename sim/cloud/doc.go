// Package cloud holds the passive resource model driven by the datacenter
// entity: cloudlets, virtual machines, hosts and the per-VM cloudlet
// scheduler. Nothing here is an entity; the datacenter advances it explicitly.
package cloud
