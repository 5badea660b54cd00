// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package event_test

import (
	"errors"
	"testing"

	"mellium.im/converse/event"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

var (
	alice = jid.MustParse("alice@example.net")
	bob   = jid.MustParse("bob@example.net")
)

func newBody(from jid.JID, text string) *event.Event {
	return event.New(from, event.Body{
		Msg:  stanza.Message{From: from, Type: stanza.ChatMessage},
		Text: text,
	})
}

func TestAddConclude(t *testing.T) {
	var calls []int
	q := event.NewQueue(func(active int) {
		calls = append(calls, active)
	})

	first := newBody(alice, "one")
	second := newBody(bob, "two")
	if err := q.Add(first); err != nil {
		t.Fatalf("unexpected error adding event: %v", err)
	}
	if err := q.Add(second); err != nil {
		t.Fatalf("unexpected error adding event: %v", err)
	}
	if q.Active() != 2 || q.Len() != 2 {
		t.Errorf("wrong counts after add: active=%d, len=%d, want 2, 2", q.Active(), q.Len())
	}

	q.Conclude(first)
	if first.Active() {
		t.Errorf("concluded event still reports active")
	}
	if q.Active() != 1 {
		t.Errorf("wrong active count after conclude: got %d, want 1", q.Active())
	}
	if q.Len() != 2 {
		t.Errorf("conclude removed the event: len=%d, want 2", q.Len())
	}

	// Concluding again is a no-op and must not notify.
	q.Conclude(first)
	if q.Active() != 1 {
		t.Errorf("double conclude changed active count: got %d, want 1", q.Active())
	}

	want := []int{1, 2, 1}
	if len(calls) != len(want) {
		t.Fatalf("wrong number of notifications: got %d (%v), want %d", len(calls), calls, len(want))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("wrong notification %d: got %d, want %d", i, calls[i], want[i])
		}
	}
}

func TestAddDuplicate(t *testing.T) {
	notifications := 0
	q := event.NewQueue(func(int) {
		notifications++
	})
	e := newBody(alice, "hi")
	if err := q.Add(e); err != nil {
		t.Fatalf("unexpected error adding event: %v", err)
	}
	if err := q.Add(e); !errors.Is(err, event.ErrDuplicate) {
		t.Errorf("wrong error re-adding event: got %v, want %v", err, event.ErrDuplicate)
	}
	if notifications != 1 {
		t.Errorf("rejected add notified: got %d notifications, want 1", notifications)
	}

	// Two distinct events with equal payloads are not duplicates.
	if err := q.Add(newBody(alice, "hi")); err != nil {
		t.Errorf("unexpected error adding equal but distinct event: %v", err)
	}
}

func TestOrderStable(t *testing.T) {
	q := event.NewQueue(nil)
	events := []*event.Event{
		newBody(alice, "one"),
		newBody(bob, "two"),
		newBody(alice, "three"),
	}
	for _, e := range events {
		if err := q.Add(e); err != nil {
			t.Fatalf("unexpected error adding event: %v", err)
		}
	}
	q.Conclude(events[0])

	all := q.All()
	if len(all) != len(events) {
		t.Fatalf("wrong snapshot length: got %d, want %d", len(all), len(events))
	}
	for i, e := range events {
		if all[i] != e {
			t.Errorf("event %d out of order after conclude", i)
		}
	}
}

func TestConcludeAddr(t *testing.T) {
	notifications := 0
	q := event.NewQueue(func(int) {
		notifications++
	})
	fromBob := []*event.Event{
		newBody(jid.MustParse("bob@example.net/phone"), "one"),
		newBody(jid.MustParse("bob@example.net/laptop"), "two"),
	}
	fromAlice := newBody(alice, "three")
	for _, e := range append(fromBob, fromAlice) {
		if err := q.Add(e); err != nil {
			t.Fatalf("unexpected error adding event: %v", err)
		}
	}
	q.Conclude(fromBob[0])
	notifications = 0

	// Matching is on the bare form of the address.
	q.ConcludeAddr(jid.MustParse("bob@example.net/tablet"))
	for i, e := range fromBob {
		if e.Active() {
			t.Errorf("event %d from bob still active", i)
		}
	}
	if !fromAlice.Active() {
		t.Errorf("event from alice concluded")
	}
	if notifications != 1 {
		t.Errorf("wrong number of notifications: got %d, want 1", notifications)
	}

	// Nothing left to conclude, so nothing to notify about.
	q.ConcludeAddr(bob)
	if notifications != 1 {
		t.Errorf("no-op conclude notified: got %d notifications, want 1", notifications)
	}
}

func TestPurge(t *testing.T) {
	var last = -1
	q := event.NewQueue(func(active int) {
		last = active
	})
	if err := q.Add(newBody(alice, "one")); err != nil {
		t.Fatalf("unexpected error adding event: %v", err)
	}
	if err := q.Add(newBody(bob, "two")); err != nil {
		t.Fatalf("unexpected error adding event: %v", err)
	}

	q.Purge()
	if q.Len() != 0 || q.Active() != 0 {
		t.Errorf("queue not empty after purge: active=%d, len=%d", q.Active(), q.Len())
	}
	if last != 0 {
		t.Errorf("wrong final notification: got %d, want 0", last)
	}

	last = -1
	q.Purge()
	if last != -1 {
		t.Errorf("purging an empty queue notified with %d", last)
	}
}

func TestConcludedNeverReactivates(t *testing.T) {
	q := event.NewQueue(nil)
	e := newBody(alice, "one")
	if err := q.Add(e); err != nil {
		t.Fatalf("unexpected error adding event: %v", err)
	}
	q.Conclude(e)
	q.Purge()

	// Queueing a previously concluded event again does not make it active.
	if err := q.Add(e); err != nil {
		t.Fatalf("unexpected error re-adding event: %v", err)
	}
	if e.Active() {
		t.Errorf("concluded event became active again")
	}
	if q.Active() != 0 {
		t.Errorf("wrong active count: got %d, want 0", q.Active())
	}
}

func TestConcludeUnqueued(t *testing.T) {
	var calls []int
	q := event.NewQueue(func(active int) {
		calls = append(calls, active)
	})

	// Concluding an event that was never queued flips its flag but does
	// not drive the active count below zero or fire the callback.
	stray := newBody(alice, "stray")
	q.Conclude(stray)
	if stray.Active() {
		t.Errorf("concluded event still active")
	}
	if q.Active() != 0 {
		t.Errorf("wrong active count: got %d, want 0", q.Active())
	}
	if len(calls) != 0 {
		t.Errorf("unexpected notifications: %v", calls)
	}

	// Same for a pointer retained across a purge.
	kept := newBody(bob, "kept")
	if err := q.Add(kept); err != nil {
		t.Fatalf("unexpected error adding event: %v", err)
	}
	q.Purge()
	q.Conclude(kept)
	if q.Active() != 0 {
		t.Errorf("wrong active count after purge: got %d, want 0", q.Active())
	}
	want := []int{1, 0}
	if len(calls) != len(want) || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("wrong notifications: got %v, want %v", calls, want)
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind event.Kind
		want string
	}{
		{event.Message, "message"},
		{event.Subscription, "subscription"},
		{event.Error, "error"},
		{event.RoomInvite, "invite"},
		{event.FileTransfer, "filetransfer"},
		{event.Kind(200), "unknown"},
	}
	for _, tc := range tests {
		if s := tc.kind.String(); s != tc.want {
			t.Errorf("wrong string for kind %d: got %q, want %q", tc.kind, s, tc.want)
		}
	}
}
