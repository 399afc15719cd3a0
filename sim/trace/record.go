// Package trace provides dispatch and migration recording for simulation analysis.
// This package has no dependencies on sim/ or its sub-packages; it stores pure data types.
package trace

// DispatchRecord captures a single event handed to an entity by the kernel.
type DispatchRecord struct {
	Serial      int64
	Clock       float64
	Source      int
	Destination int
	Tag         string
}

// MigrationRecord captures a single live migration started by a datacenter.
type MigrationRecord struct {
	Clock      float64
	Datacenter string
	VmID       int
	SourceHost int // -1 when the VM had no host
	TargetHost int
	Delay      float64 // simulated seconds until the migration completes
}
