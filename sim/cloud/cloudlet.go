package cloud

import (
	"fmt"

	"github.com/cloud-sim/cloud-sim/sim/utilization"
)

// Unbound is the VM id of a cloudlet not yet assigned to a VM.
const Unbound = -1

// CloudletStatus is the execution state of a cloudlet.
type CloudletStatus int

const (
	CloudletCreated CloudletStatus = iota
	CloudletInExec
	CloudletSuccess
	CloudletFailed
)

func (s CloudletStatus) String() string {
	switch s {
	case CloudletCreated:
		return "Created"
	case CloudletInExec:
		return "InExec"
	case CloudletSuccess:
		return "Success"
	case CloudletFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Cloudlet is a unit of work submitted to a VM. Length is in million
// instructions per PE; the total work is Length * Pes.
type Cloudlet struct {
	ID         int
	UserID     int
	Length     float64
	Pes        int
	FileSize   int64
	OutputSize int64

	UtilizationCPU utilization.Model
	UtilizationRAM utilization.Model
	UtilizationBW  utilization.Model

	vmID          int
	datacenterID  int
	status        CloudletStatus
	finishedSoFar float64
	rate          float64 // MIPS granted at the last allocation
	execStart     float64
	finishTime    float64
}

// NewCloudlet creates an unbound cloudlet. Nil models default to Full.
func NewCloudlet(id, userID int, length float64, pes int, cpu, ram, bw utilization.Model) *Cloudlet {
	if cpu == nil {
		cpu = utilization.Full{}
	}
	if ram == nil {
		ram = utilization.Full{}
	}
	if bw == nil {
		bw = utilization.Full{}
	}
	return &Cloudlet{
		ID:             id,
		UserID:         userID,
		Length:         length,
		Pes:            max(pes, 1),
		UtilizationCPU: cpu,
		UtilizationRAM: ram,
		UtilizationBW:  bw,
		vmID:           Unbound,
		datacenterID:   -1,
		execStart:      -1,
		finishTime:     -1,
	}
}

// VmID returns the bound VM id, or Unbound.
func (c *Cloudlet) VmID() int { return c.vmID }

// SetVmID binds the cloudlet to a VM.
func (c *Cloudlet) SetVmID(id int) { c.vmID = id }

// IsBound reports whether the cloudlet carries a VM binding.
func (c *Cloudlet) IsBound() bool { return c.vmID != Unbound }

// DatacenterID returns the datacenter the cloudlet was last submitted to, or -1.
func (c *Cloudlet) DatacenterID() int { return c.datacenterID }

// SetDatacenterID records the datacenter executing the cloudlet.
func (c *Cloudlet) SetDatacenterID(id int) { c.datacenterID = id }

func (c *Cloudlet) Status() CloudletStatus { return c.status }

// TotalLength is the work across all PEs, in MI.
func (c *Cloudlet) TotalLength() float64 { return c.Length * float64(c.Pes) }

// FinishedSoFar is the executed work, in MI.
func (c *Cloudlet) FinishedSoFar() float64 { return c.finishedSoFar }

// Remaining is the work still to execute, in MI.
func (c *Cloudlet) Remaining() float64 { return max(c.TotalLength()-c.finishedSoFar, 0) }

// ExecStartTime is the submission time, or -1 if never started.
func (c *Cloudlet) ExecStartTime() float64 { return c.execStart }

// FinishTime is the completion time, or -1 while unfinished.
func (c *Cloudlet) FinishTime() float64 { return c.finishTime }

// IsFinished reports whether the cloudlet reached a terminal status.
func (c *Cloudlet) IsFinished() bool {
	return c.status == CloudletSuccess || c.status == CloudletFailed
}

// MarkFailed terminates the cloudlet without executing it.
func (c *Cloudlet) MarkFailed(now float64) {
	c.status = CloudletFailed
	c.finishTime = now
	c.rate = 0
}

// demand is the MIPS the cloudlet asks for at time t on PEs of mipsPerPe.
func (c *Cloudlet) demand(t, mipsPerPe float64) float64 {
	return c.UtilizationCPU.Utilization(t) * float64(c.Pes) * mipsPerPe
}

func (c *Cloudlet) String() string {
	return fmt.Sprintf("Cloudlet #%d(user=%d, vm=%d, %s)", c.ID, c.UserID, c.vmID, c.status)
}
