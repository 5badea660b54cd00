// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"io"
	"log"
	"sync"

	"mellium.im/xmpp/jid"

	"mellium.im/converse/contact"
	"mellium.im/converse/conv"
	"mellium.im/converse/event"
	"mellium.im/converse/nick"
)

// State is the lifecycle state of the client's session.
type State uint8

const (
	// Disconnected means no session exists and a login may be attempted.
	Disconnected State = iota

	// Connecting means a login attempt is in flight.
	Connecting

	// Connected means a session is established and stanzas flow.
	Connected

	// LoggingOut means the session is being torn down in an orderly fashion.
	LoggingOut
)

// String satisfies fmt.Stringer.
func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case LoggingOut:
		return "logging out"
	}
	return "disconnected"
}

// Client is the session controller: the single entry point through which the
// user interface and the protocol layer drive one authenticated session.
type Client struct {
	addr     jid.JID
	dialer   Dialer
	settings Settings
	logger   *log.Logger
	onState  func(State)
	onActive func(int)
	initial  *Status

	queue    *event.Queue
	contacts *contact.List
	rooms    *contact.RoomSet
	convs    *conv.Dispatcher
	resolver *nick.Resolver

	mu     sync.Mutex
	state  State
	gen    uint64
	stream Stream
	status Status
}

// New returns a client for the given identity.
// The factory is used to create conversation surfaces on demand and must not
// be nil; everything else is configured through options.
//
// All collaborator callbacks (state changes, active-count changes, surface
// creation) are registered here and torn down along with the session; no
// registration survives a superseded login.
func New(addr jid.JID, factory conv.Factory, opts ...Option) *Client {
	c := &Client{
		addr:   addr.Bare(),
		logger: log.New(io.Discard, "", log.LstdFlags),
	}
	for _, o := range opts {
		o(c)
	}

	c.queue = event.NewQueue(c.activeChanged)
	c.contacts = contact.NewList(c.invalidate)
	c.rooms = contact.NewRoomSet(c.invalidate)
	c.resolver = nick.New(c.rooms, c.contacts)
	c.convs = conv.NewDispatcher(factory, c.rooms, c.queue)
	return c
}

// invalidate is wired as the change callback of both the contact list and the
// room set.
func (c *Client) invalidate(addr jid.JID) {
	c.resolver.Invalidate(addr)
}

func (c *Client) activeChanged(active int) {
	if c.onActive != nil {
		c.onActive(active)
	}
}

func (c *Client) notifyState(s State) {
	c.logger.Printf("session state: %s", s)
	if c.onState != nil {
		c.onState(s)
	}
}

// Addr returns the identity the client was created for.
func (c *Client) Addr() jid.JID {
	return c.addr
}

// State returns the current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Queue returns the pending notification queue.
func (c *Client) Queue() *event.Queue {
	return c.queue
}

// Contacts returns the contact list.
func (c *Client) Contacts() *contact.List {
	return c.contacts
}

// Rooms returns the set of joined rooms.
func (c *Client) Rooms() *contact.RoomSet {
	return c.rooms
}

// Conversations returns the conversation dispatcher.
func (c *Client) Conversations() *conv.Dispatcher {
	return c.convs
}

// Resolver returns the nickname resolver.
func (c *Client) Resolver() *nick.Resolver {
	return c.resolver
}

// Option configures a Client.
type Option func(*Client)

// WithDialer sets the collaborator that establishes sessions.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithSettings sets the persistence collaborator used for cached credentials.
func WithSettings(s Settings) Option {
	return func(c *Client) {
		c.settings = s
	}
}

// Logger has the client log debug messages and other helpful info to the
// given logger.
func Logger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// HandleState registers a callback invoked after every session state change.
func HandleState(f func(State)) Option {
	return func(c *Client) {
		c.onState = f
	}
}

// HandleActive registers a callback invoked with the number of active events
// after every notification queue change, normally wired to a tray badge.
func HandleActive(f func(int)) Option {
	return func(c *Client) {
		c.onActive = f
	}
}

// InitialStatus sets a presence to broadcast as soon as a login completes.
// A status set this way is queued: it is flushed by the first successful
// connect and discarded by logout.
func InitialStatus(s Status) Option {
	return func(c *Client) {
		c.initial = &s
	}
}
