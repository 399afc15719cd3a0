package broker

import "github.com/pkg/errors"

var (
	// ErrNegotiationStarted is returned when the VM or cloudlet setup changes after the broker started.
	ErrNegotiationStarted = errors.New("negotiation already started")
	// ErrUnknownCloudlet is returned when a binding names a cloudlet the broker does not own.
	ErrUnknownCloudlet = errors.New("unknown cloudlet")
	// ErrUnknownVm is returned when a binding names a VM the broker does not own.
	ErrUnknownVm = errors.New("unknown VM")
	// ErrNotRegistered is returned when lists are submitted before the broker has an id.
	ErrNotRegistered = errors.New("broker not registered with a simulator")
)
