package sim

import "github.com/pkg/errors"

var (
	// ErrNegativeDelay is returned when an event is scheduled in the past.
	ErrNegativeDelay = errors.New("negative scheduling delay")
	// ErrUnknownEntity is returned when an event names an unregistered destination.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrEntityShutdown is returned when a shut-down entity tries to emit an event.
	ErrEntityShutdown = errors.New("entity already shut down")
	// ErrAlreadyRunning is returned when entities are added after Run started.
	ErrAlreadyRunning = errors.New("simulation already running")
)
