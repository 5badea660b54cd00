// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package conv

import (
	"errors"
	"fmt"
	"sync"

	"mellium.im/xmpp/jid"

	"mellium.im/converse/event"
)

// ErrNoConversation is returned by non-creating accessors when no
// conversation exists for the peer.
var ErrNoConversation = errors.New("conv: no such conversation")

// RoomSource reports whether an address belongs to a chat room; it decides
// the kind of newly created conversations.
type RoomSource interface {
	Contains(addr jid.JID) bool
}

// Dispatcher owns the conversation table.
//
// Conversations are keyed by bare peer address and created lazily on first
// use; closing one concludes the peer's still-active events as a side effect,
// so a closed conversation leaves no pending notifications behind, only
// history.
type Dispatcher struct {
	factory Factory
	rooms   RoomSource
	queue   *event.Queue

	mu      sync.Mutex
	table   map[string]*Conversation
	focused string
}

// NewDispatcher returns an empty dispatcher.
// The queue may be nil, in which case closing a conversation concludes
// nothing.
func NewDispatcher(factory Factory, rooms RoomSource, queue *event.Queue) *Dispatcher {
	return &Dispatcher{
		factory: factory,
		rooms:   rooms,
		queue:   queue,
		table:   make(map[string]*Conversation),
	}
}

// Get returns the conversation for the bare form of peer, creating it if none
// exists.
// The kind is decided by room membership at creation time and is immutable
// for the life of the handle.
func (d *Dispatcher) Get(peer jid.JID) (*Conversation, error) {
	bare := peer.Bare()

	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.table[bare.String()]; ok {
		return c, nil
	}

	kind := OneToOne
	if d.rooms != nil && d.rooms.Contains(bare) {
		kind = Room
	}
	surface, err := d.factory.NewSurface(kind, bare)
	if err != nil {
		return nil, fmt.Errorf("conv: creating surface for %s: %w", bare, err)
	}
	c := &Conversation{peer: bare, kind: kind, surface: surface}
	d.table[bare.String()] = c
	return c, nil
}

// Lookup returns the conversation for the bare form of peer without creating
// one.
func (d *Dispatcher) Lookup(peer jid.JID) (*Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.table[peer.Bare().String()]
	if !ok {
		return nil, ErrNoConversation
	}
	return c, nil
}

// Close destroys the conversation for the bare form of peer, releasing its
// surface and concluding every still-active event originating from that
// address.
func (d *Dispatcher) Close(peer jid.JID) error {
	bare := peer.Bare()

	d.mu.Lock()
	c, ok := d.table[bare.String()]
	if !ok {
		d.mu.Unlock()
		return ErrNoConversation
	}
	delete(d.table, bare.String())
	if d.focused == bare.String() {
		d.focused = ""
	}
	d.mu.Unlock()

	if d.queue != nil {
		d.queue.ConcludeAddr(bare)
	}
	return c.surface.Close()
}

// CloseAll destroys every conversation, used on logout.
// The order is unspecified; conversations never reference each other so no
// cross-handle ordering is needed.
func (d *Dispatcher) CloseAll() error {
	d.mu.Lock()
	table := d.table
	d.table = make(map[string]*Conversation)
	d.focused = ""
	d.mu.Unlock()

	var err error
	for _, c := range table {
		if d.queue != nil {
			d.queue.ConcludeAddr(c.peer)
		}
		if e := c.surface.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// Focus marks the conversation for the bare form of peer as the one the user
// is looking at.
// Messages delivered to a focused conversation do not raise notifications.
func (d *Dispatcher) Focus(peer jid.JID) error {
	bare := peer.Bare()

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.table[bare.String()]; !ok {
		return ErrNoConversation
	}
	d.focused = bare.String()
	return nil
}

// Blur clears the focused conversation.
func (d *Dispatcher) Blur() {
	d.mu.Lock()
	d.focused = ""
	d.mu.Unlock()
}

// Focused reports whether the conversation for the bare form of peer exists
// and is currently focused.
func (d *Dispatcher) Focused(peer jid.JID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focused != "" && d.focused == peer.Bare().String()
}

// Len returns the number of open conversations.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.table)
}
