// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package event implements the queue of occurrences that demand the user's
// attention.
//
// An event is created active and stays in the queue until the session is torn
// down or the queue is purged.
// Concluding an event (because its conversation was closed, the user acted on
// it, or it was dismissed outright) only changes its visibility class: the
// event remains available as history but no longer counts toward the number
// of pending notifications.
package event // import "mellium.im/converse/event"

import (
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/muc"
	"mellium.im/xmpp/oob"
	"mellium.im/xmpp/stanza"
)

// Kind distinguishes the closed set of occurrences that can be queued.
type Kind uint8

const (
	// Message is an incoming chat or groupchat message.
	Message Kind = iota

	// Subscription is a request by a remote contact to subscribe to our
	// presence.
	Subscription

	// Error is an error stanza or stream failure reported to the user.
	Error

	// RoomInvite is a mediated invitation to join a chat room.
	RoomInvite

	// FileTransfer is an offer of an out-of-band file URL.
	FileTransfer
)

// String satisfies fmt.Stringer for debugging output.
func (k Kind) String() string {
	switch k {
	case Message:
		return "message"
	case Subscription:
		return "subscription"
	case Error:
		return "error"
	case RoomInvite:
		return "invite"
	case FileTransfer:
		return "filetransfer"
	}
	return "unknown"
}

// Payload is the kind-specific data carried by an event.
// Exactly one payload type exists per kind and the set is closed: consumers
// dispatch with a type switch over Body, Subscribe, Failure, Invitation, and
// Offer and do not need a default case for unknown payloads.
type Payload interface {
	kind() Kind
}

// Body is the payload of a Message event.
type Body struct {
	Msg  stanza.Message
	Text string
}

func (Body) kind() Kind { return Message }

// Subscribe is the payload of a Subscription event.
type Subscribe struct {
	Presence stanza.Presence
}

func (Subscribe) kind() Kind { return Subscription }

// Failure is the payload of an Error event.
// Stanza is the zero value when the error did not originate from an error
// stanza (eg. a stream failure), in which case Err carries the cause.
type Failure struct {
	Stanza stanza.Error
	Err    error
}

func (Failure) kind() Kind { return Error }

// Invitation is the payload of a RoomInvite event.
type Invitation struct {
	Invite muc.Invitation
}

func (Invitation) kind() Kind { return RoomInvite }

// Offer is the payload of a FileTransfer event.
type Offer struct {
	Data oob.Data
}

func (Offer) kind() Kind { return FileTransfer }

// Event is a single notification-worthy occurrence.
//
// Events have identity: the same *Event may not be queued twice, and
// concluding is an in-place, one-way transition observed by everyone holding
// the pointer.
type Event struct {
	from      jid.JID
	payload   Payload
	concluded bool
}

// New creates an unqueued, active event originating from the given address.
func New(from jid.JID, payload Payload) *Event {
	return &Event{from: from, payload: payload}
}

// Kind returns the kind of the event's payload.
func (e *Event) Kind() Kind { return e.payload.kind() }

// From returns the address the event originated from.
func (e *Event) From() jid.JID { return e.from }

// Payload returns the kind-specific payload.
func (e *Event) Payload() Payload { return e.payload }

// Active reports whether the event still demands attention.
func (e *Event) Active() bool { return !e.concluded }
