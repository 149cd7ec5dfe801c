package script

import (
	"errors"
	"fmt"
)

// ErrStopScript is the distinguished stop signal. CheckStop and the waiting
// primitives return it when a stop has been requested; Run implementations
// must propagate it unchanged so the thread's supervision frame can record
// the stop and finalize the run.
var ErrStopScript = errors.New("script execution stopped")

// DuplicateMonitorError is returned when a monitor name is already
// registered.
type DuplicateMonitorError struct {
	Name string
}

func (e *DuplicateMonitorError) Error() string {
	return fmt.Sprintf("signal monitor %q already exists", e.Name)
}

// NoSuchMonitorError is returned when a monitor name is not registered.
type NoSuchMonitorError struct {
	Name string
}

func (e *NoSuchMonitorError) Error() string {
	return fmt.Sprintf("signal monitor %q does not exist", e.Name)
}

// ThreadClosedError is returned from suspension points when the thread is
// shut down while the script is still active. It is not ErrStopScript: a run
// terminated this way counts as failed, not stopped.
type ThreadClosedError struct {
	Name string
}

func (e *ThreadClosedError) Error() string {
	return fmt.Sprintf("script thread %q is closed", e.Name)
}
