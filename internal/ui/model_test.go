// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package ui

import (
	"testing"

	"mellium.im/xmpp/jid"

	"mellium.im/converse"
	"mellium.im/converse/conv"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want converse.Status
	}{
		{"", converse.Status{}},
		{"away", converse.Status{Availability: converse.Away}},
		{"away grabbing lunch", converse.Status{Availability: converse.Away, Text: "grabbing lunch"}},
		{"dnd", converse.Status{Availability: converse.DoNotDisturb}},
		{"xa gone fishing", converse.Status{Availability: converse.ExtendedAway, Text: "gone fishing"}},
		{"chat", converse.Status{Availability: converse.FreeToChat}},
		{"back later", converse.Status{Text: "back later"}},
	}
	for _, tc := range tests {
		if got := parseStatus(tc.in); got != tc.want {
			t.Errorf("wrong status for %q: got %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestDropConversation(t *testing.T) {
	client := converse.New(jid.MustParse("me@example.net"), conv.FactoryFunc(
		func(conv.Kind, jid.JID) (conv.Surface, error) {
			return nil, nil
		},
	))
	m := newModel(client)
	m.logs["alice@example.net"] = []string{"hi"}
	m.logs["bob@example.net"] = nil
	m.order = []string{"alice@example.net", "bob@example.net"}
	m.current = "alice@example.net"

	m.drop("alice@example.net")
	if _, ok := m.logs["alice@example.net"]; ok {
		t.Errorf("transcript survived the drop")
	}
	if len(m.order) != 1 || m.order[0] != "bob@example.net" {
		t.Errorf("wrong tab order after drop: %v", m.order)
	}
	if m.current != systemLog {
		t.Errorf("focus did not fall back to the log: %q", m.current)
	}

	// Dropping an unfocused conversation leaves focus alone.
	m.current = systemLog
	m.drop("bob@example.net")
	if m.current != systemLog {
		t.Errorf("focus moved on unrelated drop: %q", m.current)
	}
	if len(m.order) != 0 {
		t.Errorf("wrong tab order after drop: %v", m.order)
	}
}
