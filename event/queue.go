// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package event

import (
	"errors"
	"sync"

	"mellium.im/xmpp/jid"
)

// ErrDuplicate is returned by Add when the same event is queued twice.
// Comparison is by identity, not by content: two distinct events with equal
// payloads are not duplicates.
var ErrDuplicate = errors.New("event: already queued")

// Queue is an ordered collection of pending events.
//
// Events are kept in insertion order and are never reordered; concluding an
// event leaves it in place.
// Every mutation invokes the length-change callback exactly once with the new
// number of active events.
type Queue struct {
	mu       sync.Mutex
	events   []*Event
	active   int
	onChange func(active int)
}

// NewQueue returns an empty queue.
// The callback may be nil; it is invoked, outside the queue's lock, with the
// active count after every mutation.
func NewQueue(onChange func(active int)) *Queue {
	return &Queue{onChange: onChange}
}

func (q *Queue) notify(active int) {
	if q.onChange != nil {
		q.onChange(active)
	}
}

// Add appends an active event to the queue.
func (q *Queue) Add(e *Event) error {
	q.mu.Lock()
	for _, have := range q.events {
		if have == e {
			q.mu.Unlock()
			return ErrDuplicate
		}
	}
	q.events = append(q.events, e)
	// Re-queueing an already concluded event (eg. after a purge) keeps it
	// concluded: the transition is one way.
	if !e.concluded {
		q.active++
	}
	active := q.active
	q.mu.Unlock()

	q.notify(active)
	return nil
}

// Conclude marks the event as no longer demanding attention.
// It has no effect on an event that has already been concluded; an event
// never becomes active again.
// Concluding an event that is not queued (or no longer queued, eg. a
// retained pointer after a purge) flips the flag but leaves the active count
// and the callback alone.
func (q *Queue) Conclude(e *Event) {
	q.mu.Lock()
	if e.concluded {
		q.mu.Unlock()
		return
	}
	e.concluded = true
	queued := false
	for _, have := range q.events {
		if have == e {
			queued = true
			break
		}
	}
	if !queued {
		q.mu.Unlock()
		return
	}
	q.active--
	active := q.active
	q.mu.Unlock()

	q.notify(active)
}

// ConcludeAddr concludes every active event whose originating address has the
// same bare form as addr.
// Events for other addresses are untouched.
// A single length-change notification is emitted if anything changed.
func (q *Queue) ConcludeAddr(addr jid.JID) {
	bare := addr.Bare()
	q.mu.Lock()
	n := 0
	for _, e := range q.events {
		if e.concluded || !e.from.Bare().Equal(bare) {
			continue
		}
		e.concluded = true
		n++
	}
	q.active -= n
	active := q.active
	q.mu.Unlock()

	if n > 0 {
		q.notify(active)
	}
}

// Active returns the number of events still demanding attention.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Len returns the total number of queued events, concluded ones included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// All returns a snapshot of the queue in insertion order.
// The slice is a copy and may be kept by the caller; the events themselves
// are shared and may conclude after the snapshot is taken.
func (q *Queue) All() []*Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := make([]*Event, len(q.events))
	copy(events, q.events)
	return events
}

// Purge removes every event from the queue, used on session teardown.
func (q *Queue) Purge() {
	q.mu.Lock()
	if len(q.events) == 0 {
		q.mu.Unlock()
		return
	}
	q.events = nil
	q.active = 0
	q.mu.Unlock()

	q.notify(0)
}
