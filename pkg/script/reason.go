package script

// Reason records why the handler's Interrupt hook is being called, or, as the
// thread's rest state, that no run is active.
type Reason int32

const (
	// ReasonShutdown is the rest state: no script is executing.
	ReasonShutdown Reason = iota
	// ReasonDone means the script ran to normal completion.
	ReasonDone
	// ReasonStopped means the script was forcibly stopped.
	ReasonStopped
	// ReasonFailed means the script run terminated with an error, or the
	// thread was shut down while the script was active.
	ReasonFailed
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonShutdown:
		return "shutdown"
	case ReasonDone:
		return "done"
	case ReasonStopped:
		return "stopped"
	case ReasonFailed:
		return "failed"
	default:
		return "unknown"
	}
}
