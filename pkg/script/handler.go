package script

// Handler supplies the script body executed by a Thread. All hooks run on the
// thread's own goroutine.
//
// Run may be invoked several times over a thread's lifetime, once per
// serviced start request. It must return ErrStopScript unchanged when a
// CheckStop or wait call reports it; any other non-nil error is fatal to the
// thread.
type Handler interface {
	// Setup runs once at thread start, before the first Run.
	Setup(t *Thread) error

	// Run executes the script.
	Run(t *Thread) error

	// Interrupt runs at the end of every run (done or stopped) and once at
	// thread teardown via the default finalizer.
	Interrupt(t *Thread, reason Reason)
}

// Finalizer is optionally implemented by handlers that need their own
// teardown. When absent, teardown calls Interrupt with the current reason.
type Finalizer interface {
	Finalize(t *Thread)
}

// BaseHandler is a no-op Handler for embedding, so scripts only implement
// the hooks they care about.
type BaseHandler struct{}

// Setup implements Handler.
func (BaseHandler) Setup(*Thread) error { return nil }

// Run implements Handler.
func (BaseHandler) Run(*Thread) error { return nil }

// Interrupt implements Handler.
func (BaseHandler) Interrupt(*Thread, Reason) {}

// RunFunc adapts a plain function to a Handler with no-op Setup and
// Interrupt.
type RunFunc func(t *Thread) error

// Setup implements Handler.
func (RunFunc) Setup(*Thread) error { return nil }

// Run implements Handler.
func (f RunFunc) Run(t *Thread) error { return f(t) }

// Interrupt implements Handler.
func (RunFunc) Interrupt(*Thread, Reason) {}
