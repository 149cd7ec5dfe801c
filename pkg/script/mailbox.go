package script

import "sync"

// mailbox is the thread's unbounded cross-thread run queue. Producers append
// from any goroutine; only the owning goroutine takes. The notify channel
// holds at most one token, so a consumer that drains the queue after every
// wakeup never misses a post.
type mailbox struct {
	mu     sync.Mutex
	items  []func()
	notify chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

// post enqueues fn and wakes the owner. Returns false if the mailbox has been
// closed, in which case fn is dropped.
func (m *mailbox) post(fn func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, fn)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// take removes the oldest queued closure, if any. Owner goroutine only.
func (m *mailbox) take() (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return nil, false
	}
	fn := m.items[0]
	m.items = m.items[1:]
	return fn, true
}

// wakeup returns the channel signalled on post.
func (m *mailbox) wakeup() <-chan struct{} {
	return m.notify
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.items = nil
	m.mu.Unlock()
}
