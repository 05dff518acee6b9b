package upload

// State is the lifecycle state of an upload session.
//
// Transitions move strictly forward:
//
//	Idle → Starting → Transferring → Finalizing → Completed
//
// with Failed reachable from Starting, Transferring and Finalizing.
// Completed and Failed are terminal.
type State int32

const (
	// StateIdle is the initial state before Run is called.
	StateIdle State = iota

	// StateStarting covers session negotiation with the remote endpoint.
	StateStarting

	// StateTransferring covers chunk transfers, including retries.
	StateTransferring

	// StateFinalizing covers the single complete-session request.
	StateFinalizing

	// StateCompleted means every chunk succeeded and the session finalized.
	StateCompleted

	// StateFailed means the session ended with a terminal failure.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateTransferring:
		return "transferring"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state permits no further activity.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
