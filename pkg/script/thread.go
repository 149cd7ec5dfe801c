// Package script provides the script-thread runtime: a task written as a
// linear, blocking-looking procedure that is internally event-driven,
// cross-thread-safe, and remotely stoppable and restartable.
//
// Each Thread owns one goroutine running an interrupt pump over an unbounded
// mailbox. Other threads interact with it only by posting interrupts
// (StartExecution, StopExecution) or closures (Exec); all script state,
// including the signal-monitor queues, is touched exclusively from the
// owning goroutine.
package script

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scriptd/scriptd/pkg/logger"
	"github.com/scriptd/scriptd/pkg/multicast"
)

// Thread runs a script Handler on its own goroutine.
type Thread struct {
	name    string
	handler Handler
	pool    *multicast.Pool
	log     logger.Logger

	mbox *mailbox

	// Owner-goroutine state. Never touched from other goroutines.
	monitors     map[string]*monitoredSignal
	stopRequest  bool
	pendingStart bool
	fatal        error

	// Cross-thread observable state, written only by the owner.
	executing atomic.Bool
	reason    atomic.Int32

	started   atomic.Bool
	closeCh   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
	err       error
}

// Option configures a Thread.
type Option func(*Thread)

// WithLogger sets the thread's logger.
func WithLogger(log logger.Logger) Option {
	return func(t *Thread) { t.log = log }
}

// New creates a script thread executing handler. The pool carries the
// thread's monitor subscriptions and may be nil when monitors are unused.
// The thread does not run until Start is called.
func New(name string, handler Handler, pool *multicast.Pool, opts ...Option) *Thread {
	t := &Thread{
		name:     name,
		handler:  handler,
		pool:     pool,
		log:      logger.Global(),
		mbox:     newMailbox(),
		monitors: make(map[string]*monitoredSignal),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	t.reason.Store(int32(ReasonShutdown))
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With("thread", name)
	return t
}

// Name returns the thread name.
func (t *Thread) Name() string { return t.name }

// Executing reports whether a script run is currently active. Safe from any
// goroutine.
func (t *Thread) Executing() bool { return t.executing.Load() }

// Reason returns the current interrupt reason. ReasonShutdown means no run
// is active. Safe from any goroutine.
func (t *Thread) Reason() Reason { return Reason(t.reason.Load()) }

// Running reports whether the thread goroutine has been started and has not
// yet finished. Safe from any goroutine.
func (t *Thread) Running() bool {
	if !t.started.Load() {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Done is closed once the thread goroutine has finished, after finalization.
func (t *Thread) Done() <-chan struct{} { return t.done }

// Err returns the fatal error that terminated the thread, if any. Valid only
// after Done is closed.
func (t *Thread) Err() error { return t.err }

// Start launches the thread goroutine.
func (t *Thread) Start() error {
	if !t.started.CompareAndSwap(false, true) {
		return fmt.Errorf("script: thread %q already started", t.name)
	}
	go t.loop()
	return nil
}

// Close requests thread teardown. A run in progress observes the shutdown at
// its next suspension point and terminates as failed; finalization runs on
// every path. Idempotent, callable from any goroutine.
func (t *Thread) Close() {
	t.closeOnce.Do(func() { close(t.closeCh) })
}

// StartExecution requests starting script execution. Callable from any
// goroutine; the request is acted upon inside the thread's own pump. If a run
// is already active it is first stopped, then started again.
func (t *Thread) StartExecution() {
	t.mbox.post(t.onStart)
}

// StopExecution requests stopping script execution. Callable from any
// goroutine. The running script observes the request at its next CheckStop
// or wait call.
func (t *Thread) StopExecution() {
	t.mbox.post(t.onStop)
}

// Exec implements multicast.Executor: fn is queued into the thread's mailbox
// and invoked on the owning goroutine.
func (t *Thread) Exec(fn func()) {
	t.mbox.post(fn)
}

func (t *Thread) onStart() {
	if t.executing.Load() {
		// Restart requested: the current run must stop before the pending
		// start is serviced.
		t.stopRequest = true
	}
	t.pendingStart = true
}

func (t *Thread) onStop() {
	t.stopRequest = true
}

func (t *Thread) loop() {
	defer close(t.done)
	defer t.finalize()

	if err := t.handler.Setup(t); err != nil {
		t.err = fmt.Errorf("script: setup %q: %w", t.name, err)
		t.log.Error("script setup failed", "error", err)
		return
	}

	for {
		t.drainMailbox()
		for t.pendingStart && t.fatal == nil {
			t.pendingStart = false
			t.startScript()
			t.drainMailbox()
		}
		if t.fatal != nil {
			t.err = t.fatal
			return
		}

		select {
		case <-t.closeCh:
			return
		case <-t.mbox.wakeup():
		}
	}
}

// drainMailbox dispatches every queued interrupt and closure. It is called
// from the idle loop and re-entrantly from CheckStop and the waiting
// primitives, so a concurrently issued stop is observed mid-run.
func (t *Thread) drainMailbox() {
	for {
		fn, ok := t.mbox.take()
		if !ok {
			return
		}
		fn()
	}
}

// startScript is the run-supervision frame: it brackets one Run invocation,
// maps its outcome to an interrupt reason, and keeps the executing/reason
// invariant intact on every exit path.
func (t *Thread) startScript() {
	t.executing.Store(true)
	t.stopRequest = false
	t.reason.Store(int32(ReasonDone))
	started := time.Now()
	t.log.Info("script run starting")

	err := t.handler.Run(t)

	switch {
	case err == nil:
		t.handler.Interrupt(t, ReasonDone)
		t.reason.Store(int32(ReasonShutdown))
		t.executing.Store(false)
		t.log.Info("script run done", "duration", time.Since(started))
		metricsRecorder().RecordRun(ReasonDone.String(), time.Since(started))
	case errors.Is(err, ErrStopScript):
		t.reason.Store(int32(ReasonStopped))
		t.handler.Interrupt(t, ReasonStopped)
		t.reason.Store(int32(ReasonShutdown))
		t.executing.Store(false)
		t.log.Info("script run stopped", "duration", time.Since(started))
		metricsRecorder().RecordRun(ReasonStopped.String(), time.Since(started))
	default:
		// Fatal to the thread. Interrupt is not called here; finalize runs
		// on teardown and calls it with the failed reason.
		t.reason.Store(int32(ReasonFailed))
		t.fatal = fmt.Errorf("script: run %q: %w", t.name, err)
		t.log.Error("script run failed", "error", err, "duration", time.Since(started))
		metricsRecorder().RecordRun(ReasonFailed.String(), time.Since(started))
	}
}

// finalize runs exactly once at teardown. Errors here are reported, never
// allowed to abort the teardown sequence.
func (t *Thread) finalize() {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("script finalization panicked", "panic", r)
		}
		t.removeAllMonitors()
		t.reason.Store(int32(ReasonShutdown))
		t.executing.Store(false)
		t.mbox.close()
	}()

	if f, ok := t.handler.(Finalizer); ok {
		f.Finalize(t)
		return
	}
	t.handler.Interrupt(t, t.Reason())
}

// CheckStop checks whether a stop has been requested and, if so, consumes
// the request and returns ErrStopScript. With processPending true it first
// drains the thread's mailbox so a concurrently issued stop is observed.
// Owner goroutine only; the script must call it periodically during long
// synchronous stretches.
func (t *Thread) CheckStop(processPending bool) error {
	if processPending {
		t.drainMailbox()
	}
	select {
	case <-t.closeCh:
		return &ThreadClosedError{Name: t.name}
	default:
	}
	if t.stopRequest {
		t.stopRequest = false
		return ErrStopScript
	}
	return nil
}

// ProcessPending drains and dispatches every queued cross-thread interrupt
// and message on the calling thread. Callable re-entrantly from within a
// wait. Owner goroutine only.
func (t *Thread) ProcessPending() {
	t.drainMailbox()
}

// StopRequested reports whether a stop is pending without consuming it.
// Owner goroutine only.
func (t *Thread) StopRequested() bool {
	return t.stopRequest
}

// Status is a cross-thread snapshot of a thread's lifecycle state.
type Status struct {
	Name      string `json:"name"`
	Executing bool   `json:"executing"`
	Reason    string `json:"reason"`
}

// Status returns a snapshot of the thread's lifecycle state.
func (t *Thread) Status() Status {
	return Status{
		Name:      t.name,
		Executing: t.Executing(),
		Reason:    t.Reason().String(),
	}
}
