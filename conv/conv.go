// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package conv owns the table of open conversations.
package conv // import "mellium.im/converse/conv"

import (
	"mellium.im/xmpp/jid"
)

// Kind distinguishes one-to-one chats from multi-user rooms.
// The kind of a conversation is decided when it is created and never changes
// for the life of the handle.
type Kind uint8

const (
	// OneToOne is a direct chat with a single peer.
	OneToOne Kind = iota

	// Room is a multi-user chat room.
	Room
)

// String satisfies fmt.Stringer.
func (k Kind) String() string {
	if k == Room {
		return "room"
	}
	return "chat"
}

// Surface is the user-visible rendering of one conversation.
// It is created by the UI's Factory on demand and closed exactly once when
// the conversation is torn down; the core never draws on it beyond these
// calls.
type Surface interface {
	// Message displays an incoming message.
	Message(from jid.JID, body string)

	// Presence displays an availability change for the peer or, in a room,
	// for one of its occupants.
	Presence(from jid.JID, available bool, status string)

	// Close releases the surface.
	Close() error
}

// Factory creates conversation surfaces on behalf of the UI layer.
type Factory interface {
	NewSurface(kind Kind, peer jid.JID) (Surface, error)
}

// FactoryFunc is an adapter to allow the use of ordinary functions as
// surface factories.
type FactoryFunc func(kind Kind, peer jid.JID) (Surface, error)

// NewSurface calls f(kind, peer).
func (f FactoryFunc) NewSurface(kind Kind, peer jid.JID) (Surface, error) {
	return f(kind, peer)
}

// Conversation is the live, exclusive handle for one peer's ongoing
// interaction.
// At most one conversation exists per bare peer address at any time; it is
// owned by the Dispatcher that created it.
type Conversation struct {
	peer    jid.JID
	kind    Kind
	surface Surface
}

// Peer returns the bare address the conversation is keyed by.
func (c *Conversation) Peer() jid.JID { return c.peer }

// Kind returns the conversation kind fixed at creation.
func (c *Conversation) Kind() Kind { return c.kind }

// Surface returns the UI surface attached to the conversation.
func (c *Conversation) Surface() Surface { return c.surface }
