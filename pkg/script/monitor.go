package script

import (
	"fmt"
	"time"

	"github.com/scriptd/scriptd/pkg/multicast"
)

// monitoredSignal is one named monitor. The queue and paused flag belong to
// the owning thread's goroutine; the pool only ever hands messages over by
// posting into the thread's mailbox.
type monitoredSignal struct {
	handle string
	queue  []multicast.Message
	paused bool
}

// WaitResult is the outcome of WaitForMonitor. OK is false when the wait
// timed out with no message available.
type WaitResult struct {
	Monitor string
	Message multicast.Message
	OK      bool
}

// AddMonitor registers a named monitor subscribed to pool messages matching
// the filter. The monitor starts paused: nothing is buffered until
// StartMonitoring is called, so messages arriving between subscription and
// the intended activation point are not collected. Owner goroutine only.
func (t *Thread) AddMonitor(name string, filter multicast.Filter) error {
	if t.pool == nil {
		return fmt.Errorf("script: thread %q has no multicast pool", t.name)
	}
	if _, ok := t.monitors[name]; ok {
		return &DuplicateMonitorError{Name: name}
	}

	handle, err := t.pool.Subscribe(filter, func(msg multicast.Message) {
		t.onMonitorMessage(name, msg)
	}, t)
	if err != nil {
		return fmt.Errorf("script: subscribe monitor %q: %w", name, err)
	}

	t.monitors[name] = &monitoredSignal{handle: handle, paused: true}
	return nil
}

// onMonitorMessage runs on the owning goroutine, delivered via the mailbox.
func (t *Thread) onMonitorMessage(name string, msg multicast.Message) {
	mon, ok := t.monitors[name]
	if !ok {
		// Monitor removed while the message was in flight.
		return
	}
	if mon.paused {
		metricsRecorder().RecordMonitorMessage("dropped_paused")
		return
	}
	mon.queue = append(mon.queue, msg)
	metricsRecorder().RecordMonitorMessage("buffered")
}

// RemoveMonitor unsubscribes and discards the named monitor along with any
// buffered messages. Owner goroutine only.
func (t *Thread) RemoveMonitor(name string) error {
	mon, ok := t.monitors[name]
	if !ok {
		return &NoSuchMonitorError{Name: name}
	}
	t.pool.Unsubscribe(mon.handle)
	delete(t.monitors, name)
	return nil
}

func (t *Thread) removeAllMonitors() {
	if t.pool == nil {
		return
	}
	for name, mon := range t.monitors {
		t.pool.Unsubscribe(mon.handle)
		delete(t.monitors, name)
	}
}

// StartMonitoring un-pauses the named monitor so matching messages are
// buffered. Owner goroutine only.
func (t *Thread) StartMonitoring(name string) error {
	return t.PauseMonitoring(name, false)
}

// PauseMonitoring pauses or un-pauses the named monitor. While paused,
// matching messages are dropped, not buffered. Owner goroutine only.
func (t *Thread) PauseMonitoring(name string, paused bool) error {
	mon, ok := t.monitors[name]
	if !ok {
		return &NoSuchMonitorError{Name: name}
	}
	mon.paused = paused
	return nil
}

// ResetMonitor clears the monitor's queue without touching its subscription
// or pause state. Owner goroutine only.
func (t *Thread) ResetMonitor(name string) error {
	mon, ok := t.monitors[name]
	if !ok {
		return &NoSuchMonitorError{Name: name}
	}
	mon.queue = nil
	return nil
}

// PendingCount returns the number of buffered messages on the named monitor.
// Owner goroutine only.
func (t *Thread) PendingCount(name string) (int, error) {
	mon, ok := t.monitors[name]
	if !ok {
		return 0, &NoSuchMonitorError{Name: name}
	}
	return len(mon.queue), nil
}

// PopMonitor removes and returns the oldest buffered message. The second
// return is false when the queue is empty; an empty queue is not an error.
// Owner goroutine only.
func (t *Thread) PopMonitor(name string) (multicast.Message, bool, error) {
	mon, ok := t.monitors[name]
	if !ok {
		return multicast.Message{}, false, &NoSuchMonitorError{Name: name}
	}
	if len(mon.queue) == 0 {
		return multicast.Message{}, false, nil
	}
	msg := mon.queue[0]
	mon.queue = mon.queue[1:]
	return msg, true, nil
}

// PopMonitorN removes and returns up to n buffered messages in arrival
// order. Owner goroutine only.
func (t *Thread) PopMonitorN(name string, n int) ([]multicast.Message, error) {
	mon, ok := t.monitors[name]
	if !ok {
		return nil, &NoSuchMonitorError{Name: name}
	}
	if n > len(mon.queue) {
		n = len(mon.queue)
	}
	if n <= 0 {
		return nil, nil
	}
	out := make([]multicast.Message, n)
	copy(out, mon.queue[:n])
	mon.queue = mon.queue[n:]
	return out, nil
}

// WaitForMonitor blocks until at least one of the named monitors has a
// buffered message, then pops and returns it. Already-buffered messages are
// returned immediately without suspending. When several monitors have data,
// the first name in the caller-supplied order wins. On timeout the result's
// OK field is false and the error is nil; a stop request surfaces as
// ErrStopScript. Owner goroutine only.
func (t *Thread) WaitForMonitor(names []string, timeout time.Duration) (WaitResult, error) {
	for _, name := range names {
		if _, ok := t.monitors[name]; !ok {
			return WaitResult{}, &NoSuchMonitorError{Name: name}
		}
	}

	pop := func() (WaitResult, bool) {
		for _, name := range names {
			mon := t.monitors[name]
			if len(mon.queue) == 0 {
				continue
			}
			msg := mon.queue[0]
			mon.queue = mon.queue[1:]
			return WaitResult{Monitor: name, Message: msg, OK: true}, true
		}
		return WaitResult{}, false
	}

	if res, ok := pop(); ok {
		return res, nil
	}

	ready := func() bool {
		for _, name := range names {
			if len(t.monitors[name].queue) > 0 {
				return true
			}
		}
		return false
	}
	ok, err := t.WaitUntil(ready, timeout)
	if err != nil {
		return WaitResult{}, err
	}
	if !ok {
		return WaitResult{}, nil
	}
	res, _ := pop()
	return res, nil
}
