// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package contact tracks the contact list and the set of joined chat rooms.
//
// The two collections never share an address: a bare address registered as a
// room is not a contact, and room membership always wins when a display name
// is resolved for it.
package contact // import "mellium.im/converse/contact"

import (
	"sort"
	"sync"

	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/roster"
)

// Sub is the presence subscription state of a contact.
type Sub uint8

const (
	// SubNone means neither side receives the other's presence.
	SubNone Sub = iota

	// SubTo means we receive the contact's presence.
	SubTo

	// SubFrom means the contact receives our presence.
	SubFrom

	// SubBoth means presence flows both ways.
	SubBoth

	// SubPending means we have asked for a subscription and are waiting for
	// the contact to approve it.
	SubPending
)

// ParseSub maps a roster item subscription attribute onto a Sub.
// Unknown values (including "remove", which never reaches a stored entry) map
// to SubNone.
func ParseSub(s string) Sub {
	switch s {
	case "to":
		return SubTo
	case "from":
		return SubFrom
	case "both":
		return SubBoth
	}
	return SubNone
}

// String satisfies fmt.Stringer.
func (s Sub) String() string {
	switch s {
	case SubTo:
		return "to"
	case SubFrom:
		return "from"
	case SubBoth:
		return "both"
	case SubPending:
		return "pending"
	}
	return "none"
}

// Contact is a single entry in the contact list.
type Contact struct {
	JID    jid.JID
	Name   string
	Groups []string
	Sub    Sub

	// Presence state for the contact, fed by incoming presence rather than
	// roster pushes.
	Online bool
	Status string
}

// List is the contact list, keyed by bare address.
// It is fed by the initial roster fetch and kept current by roster pushes.
type List struct {
	mu       sync.Mutex
	contacts map[string]*Contact
	onChange func(jid.JID)
}

// NewList returns an empty contact list.
// The callback may be nil; it is invoked, outside the list's lock, with the
// bare address of every entry that changes.
func NewList(onChange func(jid.JID)) *List {
	return &List{
		contacts: make(map[string]*Contact),
		onChange: onChange,
	}
}

func (l *List) notify(addr jid.JID) {
	if l.onChange != nil {
		l.onChange(addr)
	}
}

// Apply folds a single roster push into the list.
// A push with subscription "remove" deletes the entry; any other push creates
// or updates it, preserving presence state across updates.
func (l *List) Apply(item roster.Item) {
	bare := item.JID.Bare()
	key := bare.String()

	l.mu.Lock()
	if item.Subscription == "remove" {
		delete(l.contacts, key)
		l.mu.Unlock()
		l.notify(bare)
		return
	}
	c, ok := l.contacts[key]
	if !ok {
		c = &Contact{JID: bare}
		l.contacts[key] = c
	}
	c.Name = item.Name
	c.Groups = item.Group
	c.Sub = ParseSub(item.Subscription)
	l.mu.Unlock()

	l.notify(bare)
}

// Replace discards every entry and installs the given items, as after a full
// roster fetch.
// It emits one change notification per installed item and one for every
// previous entry that did not survive the replacement, so caches keyed on the
// old entries can drop them.
func (l *List) Replace(items []roster.Item) {
	l.mu.Lock()
	old := l.contacts
	l.contacts = make(map[string]*Contact, len(items))
	l.mu.Unlock()

	for _, item := range items {
		l.Apply(item)
		delete(old, item.JID.Bare().String())
	}
	for _, c := range old {
		l.notify(c.JID)
	}
}

// Get looks up the entry for the bare form of addr.
// The returned contact is a copy.
func (l *List) Get(addr jid.JID) (Contact, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.contacts[addr.Bare().String()]
	if !ok {
		return Contact{}, false
	}
	return *c, true
}

// Name returns the display name hint for the bare form of addr, if the entry
// exists and carries one.
func (l *List) Name(addr jid.JID) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.contacts[addr.Bare().String()]
	if !ok {
		return "", false
	}
	return c.Name, c.Name != ""
}

// SetPresence records the availability of a contact.
// It is a no-op for addresses not on the list: presence from strangers does
// not create roster entries.
func (l *List) SetPresence(addr jid.JID, online bool, status string) {
	bare := addr.Bare()

	l.mu.Lock()
	c, ok := l.contacts[bare.String()]
	if !ok {
		l.mu.Unlock()
		return
	}
	c.Online = online
	c.Status = status
	l.mu.Unlock()

	l.notify(bare)
}

// SetPending marks the contact's subscription as awaiting remote approval,
// creating the entry if it does not exist yet.
func (l *List) SetPending(addr jid.JID) {
	bare := addr.Bare()
	key := bare.String()

	l.mu.Lock()
	c, ok := l.contacts[key]
	if !ok {
		c = &Contact{JID: bare}
		l.contacts[key] = c
	}
	c.Sub = SubPending
	l.mu.Unlock()

	l.notify(bare)
}

// Len returns the number of entries.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.contacts)
}

// Contacts returns a copy of the list sorted by bare address.
func (l *List) Contacts() []Contact {
	l.mu.Lock()
	contacts := make([]Contact, 0, len(l.contacts))
	for _, c := range l.contacts {
		contacts = append(contacts, *c)
	}
	l.mu.Unlock()

	sort.Slice(contacts, func(i, j int) bool {
		return contacts[i].JID.String() < contacts[j].JID.String()
	})
	return contacts
}
