package script

import "time"

// NoTimeout makes the waiting primitives block until their condition holds
// (or the run is stopped).
const NoTimeout time.Duration = 0

// WaitUntil blocks the script until pred returns true, servicing the
// thread's interrupt pump while waiting so that stop requests and monitor
// deliveries stay responsive. The predicate is re-evaluated after every
// pumped event; the wait never busy-spins.
//
// Returns (true, nil) once the predicate holds, (false, nil) when the
// timeout elapses first, ErrStopScript when a stop request is observed, and
// a ThreadClosedError when the thread is shut down mid-wait. Owner goroutine
// only.
func (t *Thread) WaitUntil(pred func() bool, timeout time.Duration) (bool, error) {
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	for {
		t.drainMailbox()
		if t.stopRequest {
			t.stopRequest = false
			return false, ErrStopScript
		}
		if pred() {
			return true, nil
		}

		select {
		case <-t.mbox.wakeup():
		case <-timeoutCh:
			// Pump once more so anything that arrived while the timer fired
			// still counts.
			t.drainMailbox()
			if t.stopRequest {
				t.stopRequest = false
				return false, ErrStopScript
			}
			return pred(), nil
		case <-t.closeCh:
			return false, &ThreadClosedError{Name: t.name}
		}
	}
}

// Sleep suspends the script cooperatively for d, keeping the pump serviced.
// Returns early with ErrStopScript when a stop request arrives.
func (t *Thread) Sleep(d time.Duration) error {
	_, err := t.WaitUntil(func() bool { return false }, d)
	return err
}
