// sim/simulator.go
package sim

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cloud-sim/cloud-sim/sim/trace"
)

// kernelSource is the source id of events emitted by the kernel itself.
const kernelSource = -1

type entityRecord struct {
	ent      Entity
	state    EntityState
	deferred DeferredQueue
}

// Options configures a Simulator.
type Options struct {
	// Horizon stops the run before any event fires later than it. Zero means unbounded.
	Horizon float64
	// Trace, when enabled, receives a record for every dispatch.
	Trace *trace.SimulationTrace
	// OnDispatch, when set, is called before every dispatch.
	OnDispatch func(ev *Event)
}

// Simulator is the simulation context: it owns the virtual clock, the future
// queue, the per-entity deferred queues and the directory, and it is passed
// explicitly to every entity operation.
//
// Each clock tick lets every running entity drain its deferred queue, in id
// order, and then moves the next batch of equal-time events from the future
// queue into the deferred queues. Events sent with zero delay therefore fire
// in the following tick at the same clock value.
type Simulator struct {
	clock      float64
	horizon    float64
	future     *FutureQueue
	entities   []*entityRecord
	directory  *Directory
	trace      *trace.SimulationTrace
	onDispatch func(ev *Event)

	nextSerial         int64
	dispatched         int64
	hasRun             bool
	resourcesSignalled bool
	terminated         bool
}

// NewSimulator creates an empty simulation at clock 0.
func NewSimulator(opts Options) *Simulator {
	return &Simulator{
		horizon:    opts.Horizon,
		future:     NewFutureQueue(),
		directory:  newDirectory(),
		trace:      opts.Trace,
		onDispatch: opts.OnDispatch,
	}
}

// AddEntity registers an entity and assigns it the next id.
// Entities embedding BaseEntity are bound automatically.
func (s *Simulator) AddEntity(ent Entity) (int, error) {
	if s.hasRun {
		return -1, errors.Wrapf(ErrAlreadyRunning, "adding %s", ent.Name())
	}
	id := len(s.entities)
	if b, ok := ent.(binder); ok {
		b.Bind(id)
	}
	if ent.ID() != id {
		return -1, errors.Errorf("entity %s reports id %d, expected %d", ent.Name(), ent.ID(), id)
	}
	s.entities = append(s.entities, &entityRecord{ent: ent, state: StateCreated})
	s.directory.addName(id, ent.Name())
	return id, nil
}

// Clock returns the current simulated time.
func (s *Simulator) Clock() float64 { return s.clock }

// Directory returns the registry of resources and entity names.
func (s *Simulator) Directory() *Directory { return s.directory }

// Dispatched returns the number of events handed to entities so far.
func (s *Simulator) Dispatched() int64 { return s.dispatched }

// NumEntities returns the number of registered entities.
func (s *Simulator) NumEntities() int { return len(s.entities) }

// Entity returns the entity registered under id, or nil.
func (s *Simulator) Entity(id int) Entity {
	if id < 0 || id >= len(s.entities) {
		return nil
	}
	return s.entities[id].ent
}

// State returns the lifecycle state of an entity.
func (s *Simulator) State(id int) EntityState {
	if id < 0 || id >= len(s.entities) {
		return StateShutdown
	}
	return s.entities[id].state
}

// Schedule sends an event from src to dst that fires delay seconds from now.
// A negative delay is rejected because it would break the time ordering of the future queue.
func (s *Simulator) Schedule(src, dst int, delay float64, tag Tag, data Payload) error {
	if delay < 0 || math.IsNaN(delay) {
		return errors.Wrapf(ErrNegativeDelay, "%s from %d to %d: delay %v", tag, src, dst, delay)
	}
	if dst < 0 || dst >= len(s.entities) {
		return errors.Wrapf(ErrUnknownEntity, "%s from %d: destination %d", tag, src, dst)
	}
	if src >= 0 && src < len(s.entities) && s.entities[src].state == StateShutdown {
		return errors.Wrapf(ErrEntityShutdown, "%s from %s", tag, s.entities[src].ent.Name())
	}
	s.enqueue(src, dst, delay, tag, data)
	return nil
}

// SendNow is Schedule with zero delay.
func (s *Simulator) SendNow(src, dst int, tag Tag, data Payload) error {
	return s.Schedule(src, dst, 0, tag, data)
}

func (s *Simulator) enqueue(src, dst int, delay float64, tag Tag, data Payload) {
	s.nextSerial++
	s.future.Add(&Event{
		serial:   s.nextSerial,
		time:     s.clock + delay,
		enqueued: s.clock,
		src:      src,
		dst:      dst,
		tag:      tag,
		data:     data,
	})
}

// CancelAll removes every not-yet-processed event destined to entityID that
// matches p, from both the future and the deferred queues.
func (s *Simulator) CancelAll(entityID int, p Predicate) int {
	removed := s.future.RemoveAll(func(ev *Event) bool {
		return ev.dst == entityID && p.Match(ev)
	})
	if entityID >= 0 && entityID < len(s.entities) {
		removed += s.entities[entityID].deferred.RemoveAll(p)
	}
	return removed
}

// FindFirstDeferred returns the earliest deferred event for entityID matching p,
// without removing it. Returns nil when none match.
func (s *Simulator) FindFirstDeferred(entityID int, p Predicate) *Event {
	if entityID < 0 || entityID >= len(s.entities) {
		return nil
	}
	return s.entities[entityID].deferred.First(p)
}

// FutureEvents returns a snapshot of the future queue in dispatch order.
func (s *Simulator) FutureEvents() []*Event {
	return s.future.Sorted()
}

// Shutdown terminates an entity immediately: pending events for it are
// dropped and its ShutdownEntity hook runs once.
func (s *Simulator) Shutdown(id int) {
	if id < 0 || id >= len(s.entities) {
		return
	}
	s.shutdown(s.entities[id])
}

func (s *Simulator) shutdown(rec *entityRecord) {
	if rec.state == StateShutdown {
		return
	}
	rec.state = StateShutdown
	rec.deferred.Clear()
	id := rec.ent.ID()
	s.future.RemoveAll(func(ev *Event) bool { return ev.dst == id })
	rec.ent.ShutdownEntity(s)
}

// Terminate ends the run abruptly once the current round is over. Events
// still queued are discarded and every entity is shut down.
func (s *Simulator) Terminate() {
	if !s.terminated {
		logrus.Warnf("[%.2f] Simulation terminated abruptly", s.clock)
	}
	s.terminated = true
}

// Run starts every entity and advances the clock until the future queue is
// empty, every entity has shut down, or the horizon is passed. Entities still
// running at that point are shut down. Returns the final clock value.
// Panics if called more than once.
func (s *Simulator) Run() float64 {
	if s.hasRun {
		panic("Simulator.Run() called more than once")
	}
	s.hasRun = true

	logrus.Infof("[%.2f] Starting simulation with %d entities", s.clock, len(s.entities))
	for _, rec := range s.entities {
		rec.state = StateRunning
	}
	for _, rec := range s.entities {
		if rec.state == StateRunning {
			rec.ent.StartEntity(s)
		}
	}

	for !s.terminated {
		if s.runClockTick() {
			break
		}
		if s.allShutdown() {
			break
		}
	}

	for _, rec := range s.entities {
		s.shutdown(rec)
	}
	logrus.Infof("[%.2f] Simulation ended after %d dispatched events", s.clock, s.dispatched)
	return s.clock
}

// runClockTick performs one kernel round. It returns true when the run is over.
func (s *Simulator) runClockTick() bool {
	for _, rec := range s.entities {
		if rec.state == StateRunning {
			s.runEntity(rec)
		}
	}
	if s.terminated {
		return true
	}
	s.signalResources()

	head := s.future.Peek()
	if head == nil {
		return true
	}
	if s.horizon > 0 && head.time > s.horizon {
		logrus.Infof("[%.2f] Horizon %.2f reached", s.clock, s.horizon)
		return true
	}

	first := s.future.PopNext()
	s.advance(first.time)
	s.deliver(first)
	for next := s.future.Peek(); next != nil && next.time == first.time; next = s.future.Peek() {
		s.deliver(s.future.PopNext())
	}
	return false
}

func (s *Simulator) advance(t float64) {
	if t < s.clock {
		panic(fmt.Sprintf("Clock went backwards: %f < %f", t, s.clock))
	}
	s.clock = t
}

func (s *Simulator) deliver(ev *Event) {
	rec := s.entities[ev.dst]
	if rec.state == StateShutdown {
		logrus.Debugf("[%.2f] dropping %s for shut down entity %s", s.clock, ev, rec.ent.Name())
		return
	}
	rec.deferred.Add(ev)
}

func (s *Simulator) runEntity(rec *entityRecord) {
	for rec.state == StateRunning {
		ev := rec.deferred.PopFront()
		if ev == nil {
			return
		}
		if ev.time > s.clock {
			panic(fmt.Sprintf("event %s dispatched before its time (clock %f)", ev, s.clock))
		}
		s.dispatch(rec, ev)
	}
}

func (s *Simulator) dispatch(rec *entityRecord, ev *Event) {
	s.dispatched++
	if s.trace.Enabled() {
		s.trace.RecordDispatch(trace.DispatchRecord{
			Serial:      ev.serial,
			Clock:       s.clock,
			Source:      ev.src,
			Destination: ev.dst,
			Tag:         ev.tag.String(),
		})
	}
	if s.onDispatch != nil {
		s.onDispatch(ev)
	}
	if ev.tag == TagEndOfSimulation {
		s.shutdown(rec)
		return
	}
	rec.ent.ProcessEvent(s, ev)
}

// signalResources sends EndOfSimulation to every running resource once all
// user entities (everything not registered as a resource) have shut down.
func (s *Simulator) signalResources() {
	if s.resourcesSignalled {
		return
	}
	users := 0
	for id, rec := range s.entities {
		if s.directory.IsResource(id) {
			continue
		}
		users++
		if rec.state != StateShutdown {
			return
		}
	}
	if users == 0 {
		return
	}
	s.resourcesSignalled = true
	for id, rec := range s.entities {
		if rec.state == StateRunning && s.directory.IsResource(id) {
			s.enqueue(kernelSource, id, 0, TagEndOfSimulation, nil)
		}
	}
}

func (s *Simulator) allShutdown() bool {
	for _, rec := range s.entities {
		if rec.state != StateShutdown {
			return false
		}
	}
	return len(s.entities) > 0
}
