package web3

import (
	"sync"

	"moff.io/moff-wallet/pkg/errors"
	"moff.io/moff-wallet/pkg/log"
)

// Listener receives adapter events.
type Listener func(args ...interface{})

// ListenerHandle identifies one registration, it is what RemoveListener takes.
type ListenerHandle struct {
	event Event
	fn    Listener
}

func (h *ListenerHandle) Event() Event {
	return h.event
}

// ListenersMap keeps listeners per event in registration order.
type ListenersMap struct {
	mu        sync.RWMutex
	listeners map[Event][]*ListenerHandle
}

func NewListenersMap() *ListenersMap {
	return &ListenersMap{listeners: map[Event][]*ListenerHandle{}}
}

func (m *ListenersMap) AddListener(event Event, fn Listener) *ListenerHandle {
	h := &ListenerHandle{event: event, fn: fn}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners[event] = append(m.listeners[event], h)
	return h
}

// RemoveListener drops the registration wherever it is, false when unknown.
func (m *ListenersMap) RemoveListener(handle *ListenerHandle) bool {
	if handle == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := false
	for event, hs := range m.listeners {
		kept := hs[:0]
		for _, h := range hs {
			if h == handle {
				removed = true
				continue
			}
			kept = append(kept, h)
		}
		if len(kept) == 0 {
			delete(m.listeners, event)
		} else {
			m.listeners[event] = kept
		}
	}
	return removed
}

// FireEvent calls the listeners of event in order. A panicking listener is
// reported and does not stop the others.
func (m *ListenersMap) FireEvent(event Event, args ...interface{}) {
	m.mu.RLock()
	hs := append([]*ListenerHandle(nil), m.listeners[event]...)
	m.mu.RUnlock()
	for _, h := range hs {
		m.call(h, args)
	}
}

func (m *ListenersMap) call(h *ListenerHandle, args []interface{}) {
	defer func() {
		if i := recover(); i != nil {
			log.Error(errors.ErrorfAndReport("%s listener panic: %v", h.event, i))
		}
	}()
	h.fn(args...)
}
