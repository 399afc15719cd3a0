package broker

// State is a step of the broker's negotiation protocol.
type State int

const (
	AwaitingResourceList State = iota
	AwaitingCharacteristics
	CreatingVMs
	SubmittingTasks
	AwaitingTaskCompletion
	Destroying
	Terminated
)

var stateNames = map[State]string{
	AwaitingResourceList:    "AwaitingResourceList",
	AwaitingCharacteristics: "AwaitingCharacteristics",
	CreatingVMs:             "CreatingVMs",
	SubmittingTasks:         "SubmittingTasks",
	AwaitingTaskCompletion:  "AwaitingTaskCompletion",
	Destroying:              "Destroying",
	Terminated:              "Terminated",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// CreationRound is one batch of VM creation requests sent to a datacenter.
type CreationRound struct {
	Clock        float64
	DatacenterID int
	VmIDs        []int
}
