package cloud

import (
	"math"

	"golang.org/x/exp/slices"
)

// finishEpsilon absorbs floating point residue when a cloudlet completes.
const finishEpsilon = 1e-6

// CloudletScheduler shares a VM's granted MIPS among its running cloudlets in
// proportion to their current CPU demand (dynamic workload). It is advanced in
// two steps by the host: Advance applies the rates granted at the previous
// update, then Allocate grants new rates for the next interval.
type CloudletScheduler struct {
	mipsPerPe    float64
	pes          int
	exec         []*Cloudlet
	finished     []*Cloudlet
	previousTime float64
	allocated    float64
	submitted    int
}

// NewCloudletScheduler creates a scheduler for a VM with pes PEs of mipsPerPe each.
func NewCloudletScheduler(mipsPerPe float64, pes int) *CloudletScheduler {
	return &CloudletScheduler{mipsPerPe: mipsPerPe, pes: pes}
}

// Submit starts a cloudlet. It earns no progress until the next Allocate.
func (s *CloudletScheduler) Submit(cl *Cloudlet, now float64) {
	cl.status = CloudletInExec
	cl.execStart = now
	cl.finishedSoFar = 0
	cl.rate = 0
	s.exec = append(s.exec, cl)
	s.submitted++
}

// Advance credits every running cloudlet with rate*(now - previous update)
// and moves the ones that completed to the finished list.
func (s *CloudletScheduler) Advance(now float64) {
	elapsed := now - s.previousTime
	if elapsed <= 0 {
		return
	}
	s.exec = slices.DeleteFunc(s.exec, func(cl *Cloudlet) bool {
		cl.finishedSoFar += cl.rate * elapsed
		if cl.Remaining() > finishEpsilon {
			return false
		}
		cl.finishedSoFar = cl.TotalLength()
		cl.status = CloudletSuccess
		cl.finishTime = now
		cl.rate = 0
		s.finished = append(s.finished, cl)
		return true
	})
}

// Allocate grants the VM allocated MIPS from now on, splits it among running
// cloudlets by their demand at now, and returns the earliest estimated finish
// time. It returns now when work remains but nothing can progress, and +Inf
// when no cloudlet is running.
func (s *CloudletScheduler) Allocate(allocated, now float64) float64 {
	s.previousTime = now
	s.allocated = allocated
	if len(s.exec) == 0 {
		return math.Inf(1)
	}
	total := s.TotalDemand(now)
	next := math.Inf(1)
	for _, cl := range s.exec {
		cl.rate = 0
		if total > 0 {
			cl.rate = allocated * cl.demand(now, s.mipsPerPe) / total
		}
		if cl.rate > 0 {
			next = min(next, now+cl.Remaining()/cl.rate)
		} else {
			next = min(next, now)
		}
	}
	return next
}

// TotalDemand is the summed CPU demand of running cloudlets at time t, in MIPS.
func (s *CloudletScheduler) TotalDemand(t float64) float64 {
	var total float64
	for _, cl := range s.exec {
		total += cl.demand(t, s.mipsPerPe)
	}
	return total
}

// DrainFinished returns and clears the cloudlets finished since the last call.
func (s *CloudletScheduler) DrainFinished() []*Cloudlet {
	out := s.finished
	s.finished = nil
	return out
}

// Running returns the cloudlets still executing.
func (s *CloudletScheduler) Running() []*Cloudlet { return slices.Clone(s.exec) }

// HasRunning reports whether any cloudlet is still executing.
func (s *CloudletScheduler) HasRunning() bool { return len(s.exec) > 0 }

// HasSubmitted reports whether any cloudlet was ever submitted.
func (s *CloudletScheduler) HasSubmitted() bool { return s.submitted > 0 }

// HasFinished reports whether finished cloudlets are waiting to be drained.
func (s *CloudletScheduler) HasFinished() bool { return len(s.finished) > 0 }

// Allocated returns the MIPS granted at the last update.
func (s *CloudletScheduler) Allocated() float64 { return s.allocated }

// PreviousTime returns the time of the last Allocate.
func (s *CloudletScheduler) PreviousTime() float64 { return s.previousTime }
