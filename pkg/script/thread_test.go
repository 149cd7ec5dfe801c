package script_test

import (
	"errors"
	"testing"
	"time"

	"github.com/scriptd/scriptd/pkg/script"
)

const testTimeout = 2 * time.Second

// probe is the shared test handler: the run body is pluggable and every
// Interrupt hook invocation is recorded on a channel.
type probe struct {
	setup      func(th *script.Thread) error
	run        func(th *script.Thread) error
	interrupts chan script.Reason
}

func newProbe(run func(th *script.Thread) error) *probe {
	return &probe{run: run, interrupts: make(chan script.Reason, 8)}
}

func (p *probe) Setup(th *script.Thread) error {
	if p.setup != nil {
		return p.setup(th)
	}
	return nil
}

func (p *probe) Run(th *script.Thread) error { return p.run(th) }

func (p *probe) Interrupt(th *script.Thread, reason script.Reason) {
	select {
	case p.interrupts <- reason:
	default:
	}
}

func (p *probe) nextInterrupt(t *testing.T) script.Reason {
	t.Helper()
	select {
	case r := <-p.interrupts:
		return r
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for interrupt hook")
		return 0
	}
}

func waitDone(t *testing.T, th *script.Thread) {
	t.Helper()
	select {
	case <-th.Done():
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for thread teardown")
	}
}

func TestThread_RunCompletes(t *testing.T) {
	ran := make(chan struct{})
	p := newProbe(func(th *script.Thread) error {
		close(ran)
		return nil
	})
	th := script.New("runner", p, nil)
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}
	th.StartExecution()

	select {
	case <-ran:
	case <-time.After(testTimeout):
		t.Fatal("run never executed")
	}
	if got := p.nextInterrupt(t); got != script.ReasonDone {
		t.Errorf("interrupt reason = %v, want done", got)
	}
	if !th.Running() {
		t.Error("thread should report running before Close")
	}

	th.Close()
	waitDone(t, th)

	if th.Running() {
		t.Error("thread still reports running after teardown")
	}
	if th.Executing() {
		t.Error("thread still reports executing after teardown")
	}
	if th.Reason() != script.ReasonShutdown {
		t.Errorf("reason = %v, want shutdown", th.Reason())
	}
	if th.Err() != nil {
		t.Errorf("unexpected thread error: %v", th.Err())
	}
	// Teardown with no run active fires the hook once more with shutdown.
	if got := p.nextInterrupt(t); got != script.ReasonShutdown {
		t.Errorf("teardown interrupt reason = %v, want shutdown", got)
	}
}

func TestThread_StartAlreadyStarted(t *testing.T) {
	th := script.New("dup", newProbe(func(*script.Thread) error { return nil }), nil)
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}
	if err := th.Start(); err == nil {
		t.Error("expected error on second Start")
	}
	th.Close()
	waitDone(t, th)
}

func TestThread_StopObservedAtCheckStop(t *testing.T) {
	running := make(chan struct{})
	stopPosted := make(chan struct{})
	p := newProbe(func(th *script.Thread) error {
		close(running)
		<-stopPosted
		return th.CheckStop(true)
	})
	th := script.New("stoppable", p, nil)
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() { th.Close(); waitDone(t, th) }()

	th.StartExecution()
	<-running
	th.StopExecution()
	close(stopPosted)

	if got := p.nextInterrupt(t); got != script.ReasonStopped {
		t.Errorf("interrupt reason = %v, want stopped", got)
	}
	if th.Err() != nil {
		t.Errorf("a stopped run must not be fatal: %v", th.Err())
	}
}

func TestThread_StopRequestClearedAtRunStart(t *testing.T) {
	p := newProbe(func(th *script.Thread) error {
		// A stop issued before this run began must not leak into it.
		return th.CheckStop(false)
	})
	th := script.New("fresh", p, nil)
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() { th.Close(); waitDone(t, th) }()

	th.StopExecution()
	th.StartExecution()

	if got := p.nextInterrupt(t); got != script.ReasonDone {
		t.Errorf("interrupt reason = %v, want done", got)
	}
}

func TestThread_RestartWhileRunning(t *testing.T) {
	runs := 0
	entered := make(chan struct{})
	proceed := make(chan struct{})
	p := newProbe(nil)
	p.run = func(th *script.Thread) error {
		runs++
		if runs == 1 {
			close(entered)
			<-proceed
			return th.CheckStop(true)
		}
		return nil
	}
	th := script.New("restart", p, nil)
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}

	th.StartExecution()
	<-entered
	th.StartExecution() // restart request: stop current run, then run again
	close(proceed)

	if got := p.nextInterrupt(t); got != script.ReasonStopped {
		t.Errorf("first interrupt = %v, want stopped", got)
	}
	if got := p.nextInterrupt(t); got != script.ReasonDone {
		t.Errorf("second interrupt = %v, want done", got)
	}

	th.Close()
	waitDone(t, th)
	if runs != 2 {
		t.Errorf("run count = %d, want 2", runs)
	}
}

func TestThread_FatalRunError(t *testing.T) {
	boom := errors.New("boom")
	p := newProbe(func(th *script.Thread) error { return boom })
	th := script.New("fatal", p, nil)
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}
	th.StartExecution()
	waitDone(t, th)

	if !errors.Is(th.Err(), boom) {
		t.Errorf("thread error = %v, want wrapped boom", th.Err())
	}
	if got := p.nextInterrupt(t); got != script.ReasonFailed {
		t.Errorf("interrupt reason = %v, want failed", got)
	}
	if th.Executing() {
		t.Error("thread still reports executing after fatal error")
	}
	if th.Reason() != script.ReasonShutdown {
		t.Errorf("reason = %v, want shutdown", th.Reason())
	}
}

func TestThread_SetupFailure(t *testing.T) {
	boom := errors.New("no device")
	p := newProbe(func(th *script.Thread) error { return nil })
	p.setup = func(th *script.Thread) error { return boom }
	th := script.New("nosetup", p, nil)
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, th)
	if !errors.Is(th.Err(), boom) {
		t.Errorf("thread error = %v, want wrapped setup error", th.Err())
	}
}

func TestThread_CloseDuringRun(t *testing.T) {
	running := make(chan struct{})
	var runErr error
	p := newProbe(nil)
	p.run = func(th *script.Thread) error {
		close(running)
		_, err := th.WaitUntil(func() bool { return false }, script.NoTimeout)
		runErr = err
		return err
	}
	th := script.New("closing", p, nil)
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}
	th.StartExecution()
	<-running
	th.Close()
	waitDone(t, th)

	var closed *script.ThreadClosedError
	if !errors.As(runErr, &closed) {
		t.Fatalf("wait returned %v, want ThreadClosedError", runErr)
	}
	if th.Err() == nil {
		t.Error("a run cut short by shutdown must surface as a thread error")
	}
	if got := p.nextInterrupt(t); got != script.ReasonFailed {
		t.Errorf("interrupt reason = %v, want failed", got)
	}
}

// finalizedProbe exercises the optional Finalize hook.
type finalizedProbe struct {
	probe
	finalized chan struct{}
}

func (f *finalizedProbe) Finalize(th *script.Thread) { close(f.finalized) }

func TestThread_FinalizerPreferred(t *testing.T) {
	f := &finalizedProbe{
		probe:     *newProbe(func(th *script.Thread) error { return nil }),
		finalized: make(chan struct{}),
	}
	th := script.New("finalized", f, nil)
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}
	th.Close()
	waitDone(t, th)

	select {
	case <-f.finalized:
	case <-time.After(testTimeout):
		t.Fatal("Finalize hook never ran")
	}
	select {
	case r := <-f.interrupts:
		t.Errorf("Interrupt(%v) fired at teardown despite Finalize", r)
	default:
	}
}

func TestThread_ExecRunsOnOwner(t *testing.T) {
	th := script.New("exec", newProbe(func(*script.Thread) error { return nil }), nil)
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}

	ran := make(chan struct{})
	th.Exec(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(testTimeout):
		t.Fatal("posted closure never ran")
	}

	th.Close()
	waitDone(t, th)
}

func TestThread_Status(t *testing.T) {
	running := make(chan struct{})
	proceed := make(chan struct{})
	p := newProbe(func(th *script.Thread) error {
		close(running)
		<-proceed
		return nil
	})
	th := script.New("stage-sweep", p, nil)
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}

	st := th.Status()
	if st.Name != "stage-sweep" || st.Executing || st.Reason != "shutdown" {
		t.Errorf("idle status = %+v", st)
	}

	th.StartExecution()
	<-running
	st = th.Status()
	if !st.Executing || st.Reason != "done" {
		t.Errorf("running status = %+v", st)
	}
	close(proceed)

	th.Close()
	waitDone(t, th)
}

func TestRegistry(t *testing.T) {
	reg := script.NewRegistry()
	a := script.New("a", newProbe(func(*script.Thread) error { return nil }), nil)
	b := script.New("b", newProbe(func(*script.Thread) error { return nil }), nil)
	if err := reg.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(b); err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(script.New("a", newProbe(func(*script.Thread) error { return nil }), nil)); err == nil {
		t.Error("expected duplicate-name error")
	}

	if _, ok := reg.Get("a"); !ok {
		t.Error("thread a not found")
	}
	list := reg.List()
	if len(list) != 2 || list[0].Name != "a" || list[1].Name != "b" {
		t.Errorf("list = %+v", list)
	}

	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	reg.CloseAll()
	waitDone(t, a)
	waitDone(t, b)

	reg.Remove("a")
	if _, ok := reg.Get("a"); ok {
		t.Error("thread a still present after removal")
	}
}
