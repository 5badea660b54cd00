// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package nick resolves display nicknames for peer addresses.
package nick // import "mellium.im/converse/nick"

import (
	"sync"

	"mellium.im/xmpp/jid"
)

// RoomSource reports whether an address (or its bare form) identifies a chat
// room the user has joined.
type RoomSource interface {
	Contains(addr jid.JID) bool
}

// NameSource provides display name hints for bare addresses, normally backed
// by the contact list.
type NameSource interface {
	Name(addr jid.JID) (string, bool)
}

type cached struct {
	bare string
	name string
}

// Resolver maps peer addresses to display nicknames.
//
// Room membership shadows the contact list: for an occupant address the
// room-local nickname is always returned, regardless of any roster entry at
// the same bare address.
// Results are cached per address; the caller is responsible for invalidating
// the cache when the underlying sources change (see Invalidate).
type Resolver struct {
	rooms RoomSource
	names NameSource

	mu    sync.Mutex
	cache map[string]cached
}

// New returns a resolver backed by the given sources.
// Either source may be nil, in which case the corresponding resolution step
// is skipped.
func New(rooms RoomSource, names NameSource) *Resolver {
	return &Resolver{
		rooms: rooms,
		names: names,
		cache: make(map[string]cached),
	}
}

// Resolve returns the display nickname for addr.
//
// For room occupants the room-local nickname (the resourcepart) is returned,
// or the room's localpart for the room itself.
// Otherwise the contact list name hint is used if one exists, and finally the
// localpart of the address.
// Resolution never performs a network round trip.
func (r *Resolver) Resolve(addr jid.JID) string {
	key := addr.String()

	r.mu.Lock()
	if c, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return c.name
	}
	r.mu.Unlock()

	name := r.resolve(addr)

	r.mu.Lock()
	r.cache[key] = cached{bare: addr.Bare().String(), name: name}
	r.mu.Unlock()
	return name
}

func (r *Resolver) resolve(addr jid.JID) string {
	if r.rooms != nil && r.rooms.Contains(addr) {
		if nick := addr.Resourcepart(); nick != "" {
			return nick
		}
		return fallback(addr)
	}
	if r.names != nil {
		if name, ok := r.names.Name(addr.Bare()); ok && name != "" {
			return name
		}
	}
	return fallback(addr)
}

// Invalidate drops every cached resolution whose bare address matches addr.
// It is normally wired to the change callbacks of the underlying sources.
func (r *Resolver) Invalidate(addr jid.JID) {
	bare := addr.Bare().String()

	r.mu.Lock()
	for key, c := range r.cache {
		if c.bare == bare {
			delete(r.cache, key)
		}
	}
	r.mu.Unlock()
}

func fallback(addr jid.JID) string {
	if local := addr.Localpart(); local != "" {
		return local
	}
	return addr.String()
}
