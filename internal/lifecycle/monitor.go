// Package lifecycle dispatches connection lifecycle events to persistent
// observers.
//
// The driver reports events from its own goroutines, possibly before anyone
// is listening. Observers are attached once after connecting and stay
// attached for the life of the process. Events with no observer are dropped.
package lifecycle

import "sync"

// Monitor holds error, open and close observers.
//
// Thread-safety: all methods are safe for concurrent use.
type Monitor struct {
	mu      sync.RWMutex
	onError []func(error)
	onOpen  []func()
	onClose []func(reason string)
}

// NewMonitor returns a Monitor with no observers.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// OnError attaches an observer for runtime connection errors.
func (m *Monitor) OnError(fn func(error)) {
	m.mu.Lock()
	m.onError = append(m.onError, fn)
	m.mu.Unlock()
}

// OnOpen attaches an observer for connection open events.
func (m *Monitor) OnOpen(fn func()) {
	m.mu.Lock()
	m.onOpen = append(m.onOpen, fn)
	m.mu.Unlock()
}

// OnClose attaches an observer for connection close events.
func (m *Monitor) OnClose(fn func(reason string)) {
	m.mu.Lock()
	m.onClose = append(m.onClose, fn)
	m.mu.Unlock()
}

// Error dispatches err to every error observer.
func (m *Monitor) Error(err error) {
	m.mu.RLock()
	fns := m.onError
	m.mu.RUnlock()
	for _, fn := range fns {
		fn(err)
	}
}

// Open dispatches an open event.
func (m *Monitor) Open() {
	m.mu.RLock()
	fns := m.onOpen
	m.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// Close dispatches a close event with reason.
func (m *Monitor) Close(reason string) {
	m.mu.RLock()
	fns := m.onClose
	m.mu.RUnlock()
	for _, fn := range fns {
		fn(reason)
	}
}
