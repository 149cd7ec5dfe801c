package multicast

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Executor marshals a closure onto a subscriber's own execution context.
// Implementations must be safe to call from any goroutine and must preserve
// the order of submitted closures.
type Executor interface {
	Exec(fn func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(fn func())

// Exec implements Executor.
func (f ExecutorFunc) Exec(fn func()) { f(fn) }

type subscription struct {
	id       string
	filter   Filter
	callback func(Message)
	exec     Executor
}

// Pool is an in-memory publish/subscribe channel shared by all threads of a
// process. The host creates one instance at startup and passes it to each
// task thread; Close tears down every remaining subscription.
type Pool struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	order  []string
	closed bool

	dispatch *dispatcher
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{
		subs:     make(map[string]*subscription),
		dispatch: newDispatcher(),
	}
}

// Subscribe registers a callback for messages matching the filter and returns
// an opaque subscription handle. The callback is invoked through exec, never
// inline with the publisher. A nil exec uses the pool's own serial dispatch
// goroutine, which still keeps delivery asynchronous and ordered.
func (p *Pool) Subscribe(filter Filter, callback func(Message), exec Executor) (string, error) {
	if callback == nil {
		return "", fmt.Errorf("multicast: subscription callback cannot be nil")
	}
	if exec == nil {
		exec = p.dispatch
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return "", fmt.Errorf("multicast: pool is closed")
	}

	id := uuid.NewString()
	p.subs[id] = &subscription{id: id, filter: filter, callback: callback, exec: exec}
	p.order = append(p.order, id)
	metricsRecorder().SetSubscriptions(len(p.subs))
	return id, nil
}

// Unsubscribe removes the subscription with the given handle. Unknown handles
// are ignored.
func (p *Pool) Unsubscribe(handle string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.subs[handle]; !ok {
		return
	}
	delete(p.subs, handle)
	for i, id := range p.order {
		if id == handle {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	metricsRecorder().SetSubscriptions(len(p.subs))
}

// Publish delivers the message to every matching subscription. Fire and
// forget: there is no delivery acknowledgment, and publishing to a closed
// pool is a no-op.
func (p *Pool) Publish(msg Message) {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		metricsRecorder().RecordDropped(payloadKind(msg.Payload), "pool_closed")
		return
	}
	targets := make([]*subscription, 0, len(p.order))
	for _, id := range p.order {
		sub := p.subs[id]
		if sub.filter.Matches(msg) {
			targets = append(targets, sub)
		}
	}
	p.mu.RUnlock()

	metricsRecorder().RecordPublished(payloadKind(msg.Payload))
	for _, sub := range targets {
		cb := sub.callback
		sub.exec.Exec(func() { cb(msg) })
		metricsRecorder().RecordDelivered(payloadKind(msg.Payload))
	}
}

// Subscriptions returns the number of active subscriptions.
func (p *Pool) Subscriptions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// Healthy reports whether the pool accepts publishes.
func (p *Pool) Healthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed
}

// Close unregisters all subscriptions and stops the internal dispatcher.
// Idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.subs = make(map[string]*subscription)
	p.order = nil
	p.mu.Unlock()

	metricsRecorder().SetSubscriptions(0)
	p.dispatch.stop()
}

// dispatcher is the fallback serial executor for subscriptions created
// without one. A single goroutine keeps delivery ordered.
type dispatcher struct {
	ch       chan func()
	done     chan struct{}
	stopOnce sync.Once
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		ch:   make(chan func(), 256),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	for {
		select {
		case fn := <-d.ch:
			fn()
		case <-d.done:
			// Drain what is already queued, then exit.
			for {
				select {
				case fn := <-d.ch:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Exec implements Executor. Closures submitted after stop are dropped.
func (d *dispatcher) Exec(fn func()) {
	select {
	case d.ch <- fn:
	case <-d.done:
	}
}

func (d *dispatcher) stop() {
	d.stopOnce.Do(func() { close(d.done) })
}
