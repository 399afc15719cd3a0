package cloud

import "fmt"

// Vm is a virtual machine owned by a broker and placed on at most one host.
// While migrating it stays resident on its source host and is reserved on the
// target host.
type Vm struct {
	ID     int
	UserID int
	Mips   float64 // per PE
	Pes    int
	Ram    int   // MB
	Bw     int64 // Mbit/s
	Size   int64 // MB
	Vmm    string

	host        *Host
	inMigration bool
	scheduler   *CloudletScheduler
}

// NewVm creates an unplaced VM with a dynamic-workload cloudlet scheduler.
func NewVm(id, userID int, mips float64, pes, ram int, bw, size int64) *Vm {
	return &Vm{
		ID:        id,
		UserID:    userID,
		Mips:      mips,
		Pes:       pes,
		Ram:       ram,
		Bw:        bw,
		Size:      size,
		Vmm:       "Xen",
		scheduler: NewCloudletScheduler(mips, pes),
	}
}

// TotalMips is Mips * Pes.
func (v *Vm) TotalMips() float64 { return v.Mips * float64(v.Pes) }

// Host returns the host the VM is resident on, or nil if unplaced.
func (v *Vm) Host() *Host { return v.host }

func (v *Vm) InMigration() bool { return v.inMigration }

// SetInMigration flags or clears the migration window.
func (v *Vm) SetInMigration(b bool) { v.inMigration = b }

// Scheduler returns the VM's cloudlet scheduler.
func (v *Vm) Scheduler() *CloudletScheduler { return v.scheduler }

// RequestedMips is the CPU demand of the VM's running cloudlets at time t,
// capped at the VM's capacity.
func (v *Vm) RequestedMips(t float64) float64 {
	return min(v.scheduler.TotalDemand(t), v.TotalMips())
}

func (v *Vm) String() string {
	return fmt.Sprintf("VM #%d(user=%d)", v.ID, v.UserID)
}
