package session

import (
	"context"
)

type eventKind int

const (
	eventActiveChanged = eventKind(iota)
	eventDeleted
)

type event struct {
	kind      eventKind
	previous  string
	next      string
	sessionID string
}

func activeChanged(previous string, next string) event {
	return event{kind: eventActiveChanged, previous: previous, next: next}
}

func deleted(sessionID string) event {
	return event{kind: eventDeleted, sessionID: sessionID}
}

type subscription struct {
	id       int
	listener Listener
}

// Subscribe registers a listener and returns a function removing it.
func (m *Manager) Subscribe(listener Listener) func() {
	m.mut.Lock()
	defer m.mut.Unlock()

	m.lastSubID += 1
	id := m.lastSubID
	m.subscriptions = append(m.subscriptions, subscription{id: id, listener: listener})

	return func() {
		m.mut.Lock()
		defer m.mut.Unlock()

		for i, sub := range m.subscriptions {
			if sub.id == id {
				m.subscriptions = append(m.subscriptions[:i], m.subscriptions[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) emit(ctx context.Context, events []event) {
	if len(events) == 0 {
		return
	}

	m.mut.Lock()
	listeners := make([]Listener, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		listeners = append(listeners, sub.listener)
	}
	m.mut.Unlock()

	for _, ev := range events {
		for _, l := range listeners {
			switch ev.kind {
			case eventActiveChanged:
				l.ActiveSessionChanged(ctx, ev.previous, ev.next)
			case eventDeleted:
				l.SessionDeleted(ctx, ev.sessionID)
			}
		}
	}
}
