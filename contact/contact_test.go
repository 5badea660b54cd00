// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package contact_test

import (
	"testing"

	"mellium.im/converse/contact"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/roster"
)

var (
	alice = jid.MustParse("alice@example.net")
	bob   = jid.MustParse("bob@example.net")
)

func TestParseSub(t *testing.T) {
	tests := []struct {
		in   string
		want contact.Sub
	}{
		{"none", contact.SubNone},
		{"to", contact.SubTo},
		{"from", contact.SubFrom},
		{"both", contact.SubBoth},
		{"remove", contact.SubNone},
		{"", contact.SubNone},
	}
	for _, tc := range tests {
		if got := contact.ParseSub(tc.in); got != tc.want {
			t.Errorf("wrong subscription for %q: got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestApply(t *testing.T) {
	var changed []string
	l := contact.NewList(func(addr jid.JID) {
		changed = append(changed, addr.String())
	})

	l.Apply(roster.Item{JID: alice, Name: "Alice", Subscription: "to", Group: []string{"Friends"}})
	if l.Len() != 1 {
		t.Fatalf("wrong list length: got %d, want 1", l.Len())
	}
	c, ok := l.Get(jid.MustParse("alice@example.net/phone"))
	if !ok {
		t.Fatalf("entry not found by full address")
	}
	if c.Name != "Alice" || c.Sub != contact.SubTo {
		t.Errorf("wrong entry: got %q/%v, want %q/%v", c.Name, c.Sub, "Alice", contact.SubTo)
	}
	if len(c.Groups) != 1 || c.Groups[0] != "Friends" {
		t.Errorf("wrong groups: got %v, want [Friends]", c.Groups)
	}

	// Updates keep presence state.
	l.SetPresence(alice, true, "around")
	l.Apply(roster.Item{JID: alice, Name: "Alice A.", Subscription: "both"})
	c, _ = l.Get(alice)
	if c.Name != "Alice A." || c.Sub != contact.SubBoth {
		t.Errorf("update not applied: got %q/%v", c.Name, c.Sub)
	}
	if !c.Online || c.Status != "around" {
		t.Errorf("update discarded presence: online=%v, status=%q", c.Online, c.Status)
	}

	// A remove push deletes the entry.
	l.Apply(roster.Item{JID: alice, Subscription: "remove"})
	if _, ok := l.Get(alice); ok {
		t.Errorf("entry survived a remove push")
	}
	if l.Len() != 0 {
		t.Errorf("wrong list length after remove: got %d, want 0", l.Len())
	}

	want := []string{
		"alice@example.net",
		"alice@example.net",
		"alice@example.net",
		"alice@example.net",
	}
	if len(changed) != len(want) {
		t.Errorf("wrong number of change notifications: got %d, want %d", len(changed), len(want))
	}
}

func TestReplace(t *testing.T) {
	changed := make(map[string]int)
	l := contact.NewList(func(addr jid.JID) {
		changed[addr.String()]++
	})
	l.Apply(roster.Item{JID: jid.MustParse("stale@example.net"), Subscription: "both"})

	l.Replace([]roster.Item{
		{JID: bob, Name: "Bob", Subscription: "from"},
		{JID: alice, Name: "Alice", Subscription: "both"},
	})
	if l.Len() != 2 {
		t.Fatalf("wrong list length: got %d, want 2", l.Len())
	}
	if _, ok := l.Get(jid.MustParse("stale@example.net")); ok {
		t.Errorf("replace kept a stale entry")
	}
	// Entries dropped by the replacement are notified too so stale cached
	// names get invalidated.
	if changed["stale@example.net"] != 2 {
		t.Errorf("wrong number of notifications for the dropped entry: got %d, want 2", changed["stale@example.net"])
	}
	if changed[alice.String()] != 1 || changed[bob.String()] != 1 {
		t.Errorf("wrong notifications for installed entries: %v", changed)
	}

	contacts := l.Contacts()
	if !contacts[0].JID.Equal(alice) || !contacts[1].JID.Equal(bob) {
		t.Errorf("contacts not sorted by address: got %v, %v", contacts[0].JID, contacts[1].JID)
	}
}

func TestSetPresenceStranger(t *testing.T) {
	notified := false
	l := contact.NewList(func(jid.JID) {
		notified = true
	})
	l.SetPresence(jid.MustParse("stranger@example.net"), true, "hi")
	if l.Len() != 0 {
		t.Errorf("presence from a stranger created an entry")
	}
	if notified {
		t.Errorf("no-op presence update notified")
	}
}

func TestSetPending(t *testing.T) {
	l := contact.NewList(nil)
	l.SetPending(jid.MustParse("carol@example.net/phone"))
	c, ok := l.Get(jid.MustParse("carol@example.net"))
	if !ok {
		t.Fatalf("pending subscription did not create an entry")
	}
	if c.Sub != contact.SubPending {
		t.Errorf("wrong subscription: got %v, want %v", c.Sub, contact.SubPending)
	}

	// The authoritative roster push later overrides the local guess.
	l.Apply(roster.Item{JID: jid.MustParse("carol@example.net"), Subscription: "to"})
	c, _ = l.Get(jid.MustParse("carol@example.net"))
	if c.Sub != contact.SubTo {
		t.Errorf("wrong subscription after push: got %v, want %v", c.Sub, contact.SubTo)
	}
}

func TestName(t *testing.T) {
	l := contact.NewList(nil)
	l.Apply(roster.Item{JID: alice, Name: "Alice", Subscription: "both"})
	l.Apply(roster.Item{JID: bob, Subscription: "both"})

	if name, ok := l.Name(jid.MustParse("alice@example.net/phone")); !ok || name != "Alice" {
		t.Errorf("wrong name hint: got %q, %v", name, ok)
	}
	// An entry without a name provides no hint.
	if name, ok := l.Name(bob); ok {
		t.Errorf("nameless entry produced a hint: %q", name)
	}
	if _, ok := l.Name(jid.MustParse("stranger@example.net")); ok {
		t.Errorf("missing entry produced a hint")
	}
}

func TestRoomSet(t *testing.T) {
	var changed []string
	r := contact.NewRoomSet(func(addr jid.JID) {
		changed = append(changed, addr.String())
	})

	occupant := jid.MustParse("commons@chat.example.net/daisy")
	r.Add(occupant)
	if !r.Contains(jid.MustParse("commons@chat.example.net")) {
		t.Errorf("room not registered by bare address")
	}
	if !r.Contains(jid.MustParse("commons@chat.example.net/other")) {
		t.Errorf("occupant address not part of its room")
	}
	if r.Contains(alice) {
		t.Errorf("unrelated address reported as room")
	}

	r.Add(jid.MustParse("z@chat.example.net"))
	r.Add(jid.MustParse("a@chat.example.net"))
	rooms := r.Rooms()
	if len(rooms) != 3 {
		t.Fatalf("wrong number of rooms: got %d, want 3", len(rooms))
	}
	if rooms[0].String() != "a@chat.example.net" || rooms[2].String() != "z@chat.example.net" {
		t.Errorf("rooms not sorted: got %v", rooms)
	}

	r.Remove(occupant)
	if r.Contains(occupant) {
		t.Errorf("room still registered after remove")
	}
	changed = changed[:0]
	r.Remove(occupant)
	if len(changed) != 0 {
		t.Errorf("removing an unknown room notified")
	}
}
