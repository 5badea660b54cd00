// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package contact

import (
	"sort"
	"sync"

	"mellium.im/xmpp/jid"
)

// RoomSet is the set of bare addresses currently known to be multi-user chat
// rooms.
// Addresses are added on join and removed on leave or kick; an occupant
// address (room with a nickname resourcepart) is considered part of its room.
type RoomSet struct {
	mu       sync.Mutex
	rooms    map[string]jid.JID
	onChange func(jid.JID)
}

// NewRoomSet returns an empty room set.
// The callback may be nil; it is invoked, outside the set's lock, with the
// bare address of every room added or removed.
func NewRoomSet(onChange func(jid.JID)) *RoomSet {
	return &RoomSet{
		rooms:    make(map[string]jid.JID),
		onChange: onChange,
	}
}

func (r *RoomSet) notify(addr jid.JID) {
	if r.onChange != nil {
		r.onChange(addr)
	}
}

// Add registers the bare form of addr as a room.
func (r *RoomSet) Add(addr jid.JID) {
	bare := addr.Bare()

	r.mu.Lock()
	r.rooms[bare.String()] = bare
	r.mu.Unlock()

	r.notify(bare)
}

// Remove forgets the bare form of addr.
// Removing an unknown address has no effect.
func (r *RoomSet) Remove(addr jid.JID) {
	bare := addr.Bare()

	r.mu.Lock()
	_, ok := r.rooms[bare.String()]
	if ok {
		delete(r.rooms, bare.String())
	}
	r.mu.Unlock()

	if ok {
		r.notify(bare)
	}
}

// Contains reports whether the bare form of addr is a known room.
// It is true both for the room itself and for its occupant addresses.
func (r *RoomSet) Contains(addr jid.JID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[addr.Bare().String()]
	return ok
}

// Rooms returns the known rooms sorted by address.
func (r *RoomSet) Rooms() []jid.JID {
	r.mu.Lock()
	rooms := make([]jid.JID, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.Unlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].String() < rooms[j].String()
	})
	return rooms
}
