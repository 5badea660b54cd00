// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package nick_test

import (
	"testing"

	"mellium.im/converse/contact"
	"mellium.im/converse/nick"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/roster"
)

type roomSet map[string]bool

func (r roomSet) Contains(addr jid.JID) bool { return r[addr.Bare().String()] }

type nameMap map[string]string

func (n nameMap) Name(addr jid.JID) (string, bool) {
	name, ok := n[addr.Bare().String()]
	return name, ok
}

func TestResolve(t *testing.T) {
	rooms := roomSet{"commons@chat.example.net": true}
	names := nameMap{
		"alice@example.net":        "Alice",
		"commons@chat.example.net": "Misfiled Room Entry",
	}

	tests := []struct {
		addr string
		want string
	}{
		// Room occupants resolve to the room-local nickname.
		{"commons@chat.example.net/daisy", "daisy"},
		// The room itself resolves to its localpart.
		{"commons@chat.example.net", "commons"},
		// Contacts resolve to their roster name hint.
		{"alice@example.net", "Alice"},
		{"alice@example.net/phone", "Alice"},
		// Unknown addresses fall back to the localpart.
		{"stranger@example.net", "stranger"},
		// Domain-only addresses have no localpart to fall back on.
		{"example.net", "example.net"},
	}

	r := nick.New(rooms, names)
	for _, tc := range tests {
		if got := r.Resolve(jid.MustParse(tc.addr)); got != tc.want {
			t.Errorf("wrong nickname for %s: got %q, want %q", tc.addr, got, tc.want)
		}
	}
}

func TestRoomShadowsContact(t *testing.T) {
	// A roster entry at the room's own address never shadows the room-local
	// nickname of its occupants.
	rooms := roomSet{"commons@chat.example.net": true}
	names := nameMap{"commons@chat.example.net": "Bookmarked Room"}

	r := nick.New(rooms, names)
	if got := r.Resolve(jid.MustParse("commons@chat.example.net/daisy")); got != "daisy" {
		t.Errorf("roster hint shadowed the occupant nickname: got %q, want %q", got, "daisy")
	}
}

func TestNilSources(t *testing.T) {
	r := nick.New(nil, nil)
	if got := r.Resolve(jid.MustParse("alice@example.net/phone")); got != "alice" {
		t.Errorf("wrong fallback nickname: got %q, want %q", got, "alice")
	}
}

func TestInvalidate(t *testing.T) {
	rooms := roomSet{}
	names := nameMap{"alice@example.net": "Alice"}
	r := nick.New(rooms, names)

	if got := r.Resolve(jid.MustParse("alice@example.net/phone")); got != "Alice" {
		t.Fatalf("wrong nickname: got %q, want %q", got, "Alice")
	}
	if got := r.Resolve(jid.MustParse("bob@example.net")); got != "bob" {
		t.Fatalf("wrong nickname: got %q, want %q", got, "bob")
	}

	// Source changes are not observed until the cache entry is dropped.
	names["alice@example.net"] = "Alice Renamed"
	if got := r.Resolve(jid.MustParse("alice@example.net/phone")); got != "Alice" {
		t.Errorf("cache missed: got %q, want %q", got, "Alice")
	}

	r.Invalidate(jid.MustParse("alice@example.net/laptop"))
	if got := r.Resolve(jid.MustParse("alice@example.net/phone")); got != "Alice Renamed" {
		t.Errorf("stale nickname after invalidation: got %q, want %q", got, "Alice Renamed")
	}
	// Other peers' cache entries survive.
	names["bob@example.net"] = "Robert"
	if got := r.Resolve(jid.MustParse("bob@example.net")); got != "bob" {
		t.Errorf("unrelated cache entry dropped: got %q, want %q", got, "bob")
	}
}

func TestRosterReplaceInvalidates(t *testing.T) {
	var r *nick.Resolver
	l := contact.NewList(func(addr jid.JID) {
		r.Invalidate(addr)
	})
	r = nick.New(roomSet{}, l)

	l.Apply(roster.Item{JID: jid.MustParse("alice@example.net"), Name: "Alice", Subscription: "both"})
	if got := r.Resolve(jid.MustParse("alice@example.net")); got != "Alice" {
		t.Fatalf("wrong nickname: got %q, want %q", got, "Alice")
	}

	// A full roster replace that drops the contact must also drop the
	// cached name, as after logging back in with a trimmed roster.
	l.Replace(nil)
	if got := r.Resolve(jid.MustParse("alice@example.net")); got != "alice" {
		t.Errorf("stale nickname after roster replace: got %q, want %q", got, "alice")
	}
}
