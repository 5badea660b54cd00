// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package converse implements the session core of an instant messaging
// client.
//
// The package ties a negotiated XMPP stream to the pieces a client needs to
// keep straight while a user is logged in: the contact list and joined rooms
// (package contact), the table of open conversations (package conv), the
// queue of pending notifications (package event), and nickname resolution
// (package nick).
// It owns none of the wire protocol: transports are consumed through the
// Stream interface, normally by wrapping a mellium.im/xmpp session with
// BindSession, and the user interface is consumed through the conv.Factory
// and notification callbacks.
//
// A Client is a state machine over one login at a time:
//
//	Disconnected → Connecting → Connected → LoggingOut → Disconnected
//
// Logins are asynchronous.
// Every attempt is tagged with a generation; completions and inbound stanza
// callbacks from a superseded generation are discarded silently, so a logout
// racing a slow login can never corrupt the newer session's state.
package converse // import "mellium.im/converse"
