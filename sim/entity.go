package sim

import "github.com/sirupsen/logrus"

// EntityState is the lifecycle state of an entity.
type EntityState int

const (
	// StateCreated: registered, not yet started.
	StateCreated EntityState = iota
	// StateRunning: started and receiving events.
	StateRunning
	// StateShutdown: terminated; no further dispatches or emissions.
	StateShutdown
)

func (s EntityState) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateRunning:
		return "Running"
	case StateShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Entity is a schedulable actor. The kernel calls StartEntity once when the
// run begins, ProcessEvent for every dispatched event, and ShutdownEntity once
// on termination. All three receive the simulation context explicitly.
type Entity interface {
	ID() int
	Name() string
	StartEntity(s *Simulator)
	ProcessEvent(s *Simulator, ev *Event)
	ShutdownEntity(s *Simulator)
}

// BaseEntity holds the identity shared by all entities. Embed it and call
// Bind from the simulator's AddEntity callback.
type BaseEntity struct {
	id   int
	name string
}

// NewBaseEntity returns an unbound identity; the id is assigned on registration.
func NewBaseEntity(name string) BaseEntity {
	return BaseEntity{id: -1, name: name}
}

// ID returns the entity id assigned by the simulator, or -1 before registration.
func (b *BaseEntity) ID() int { return b.id }

// Name returns the entity name.
func (b *BaseEntity) Name() string { return b.name }

// Bind records the id assigned by the simulator.
func (b *BaseEntity) Bind(id int) { b.id = id }

// ProcessOtherEvent is the fallback for unrecognised tags. It only logs.
func (b *BaseEntity) ProcessOtherEvent(s *Simulator, ev *Event) {
	if ev == nil {
		logrus.Warnf("[%.2f] %s: received a nil event", s.Clock(), b.name)
		return
	}
	logrus.Warnf("[%.2f] %s: event %s unknown to this entity, dropped", s.Clock(), b.name, ev.Tag())
}

// Send schedules an event from this entity and logs, rather than returns, a rejected call.
func (b *BaseEntity) Send(s *Simulator, dst int, delay float64, tag Tag, data Payload) {
	if err := s.Schedule(b.id, dst, delay, tag, data); err != nil {
		logrus.Errorf("[%.2f] %s: %v", s.Clock(), b.name, err)
	}
}

// SendNow is Send with zero delay.
func (b *BaseEntity) SendNow(s *Simulator, dst int, tag Tag, data Payload) {
	b.Send(s, dst, 0, tag, data)
}

// binder is implemented by entities embedding BaseEntity.
type binder interface {
	Bind(id int)
}
