// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"context"
	"encoding/xml"
	"fmt"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"mellium.im/converse/conv"
	"mellium.im/converse/event"
)

// liveStream returns the current stream or ErrNotConnected.
func (c *Client) liveStream() (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Connected {
		return nil, ErrNotConnected
	}
	return c.stream, nil
}

// OpenChat returns the conversation for peer, creating it (and its surface)
// if none is open.
func (c *Client) OpenChat(peer jid.JID) (*conv.Conversation, error) {
	if _, err := c.liveStream(); err != nil {
		return nil, err
	}
	return c.convs.Get(peer)
}

// CloseConversation destroys the conversation for peer.
// Its still-active notifications are concluded but stay visible as history.
func (c *Client) CloseConversation(peer jid.JID) error {
	return c.convs.Close(peer)
}

// JoinRoom enters a chat room under the given nickname.
// The room is registered as a multi-user chat before its conversation handle
// is created, so the handle always has the Room kind.
func (c *Client) JoinRoom(ctx context.Context, room jid.JID, nickname string) error {
	st, err := c.liveStream()
	if err != nil {
		return err
	}
	occupant, err := room.Bare().WithResource(nickname)
	if err != nil {
		return fmt.Errorf("converse: bad nickname %q: %w", nickname, err)
	}

	c.rooms.Add(room)
	if _, err := c.convs.Get(room); err != nil {
		c.rooms.Remove(room)
		return err
	}
	if err := st.JoinRoom(ctx, occupant); err != nil {
		// Roll back so a failed join leaves no half-open room behind.
		_ = c.convs.Close(room)
		c.rooms.Remove(room)
		return err
	}
	return nil
}

// LeaveRoom exits a chat room, closes its conversation, and forgets its room
// registration.
func (c *Client) LeaveRoom(ctx context.Context, room jid.JID) error {
	st, err := c.liveStream()
	if err != nil {
		return err
	}
	err = st.LeaveRoom(ctx, room)
	if cerr := c.convs.Close(room); cerr != nil && cerr != conv.ErrNoConversation && err == nil {
		err = cerr
	}
	c.rooms.Remove(room)
	return err
}

// SendMessage delivers body to peer, opening a conversation if none exists.
// The message type follows the conversation kind: groupchat for rooms, chat
// otherwise.
func (c *Client) SendMessage(ctx context.Context, peer jid.JID, body string) error {
	st, err := c.liveStream()
	if err != nil {
		return err
	}
	conversation, err := c.convs.Get(peer)
	if err != nil {
		return err
	}

	typ := stanza.ChatMessage
	if conversation.Kind() == conv.Room {
		typ = stanza.GroupChatMessage
	}
	msg := stanza.Message{
		To:   conversation.Peer(),
		Type: typ,
	}
	err = st.Send(ctx, msg.Wrap(xmlstream.Wrap(
		xmlstream.Token(xml.CharData(body)),
		xml.StartElement{Name: xml.Name{Local: "body"}},
	)))
	if err != nil {
		return err
	}

	// Rooms echo our own messages back; everything else is echoed locally.
	if conversation.Kind() == conv.OneToOne {
		conversation.Surface().Message(c.addr, body)
	}
	return nil
}

// Subscribe asks peer for a presence subscription and marks the contact as
// pending until the peer answers.
func (c *Client) Subscribe(ctx context.Context, peer jid.JID) error {
	st, err := c.liveStream()
	if err != nil {
		return err
	}
	p := stanza.Presence{To: peer.Bare(), Type: stanza.SubscribePresence}
	if err := st.Send(ctx, p.Wrap(nil)); err != nil {
		return err
	}
	c.contacts.SetPending(peer)
	return nil
}

// ApproveSubscription answers a pending Subscription event by granting the
// request, then concludes the event.
func (c *Client) ApproveSubscription(ctx context.Context, ev *event.Event) error {
	return c.answerSubscription(ctx, ev, stanza.SubscribedPresence)
}

// DeclineSubscription answers a pending Subscription event by refusing the
// request, then concludes the event.
func (c *Client) DeclineSubscription(ctx context.Context, ev *event.Event) error {
	return c.answerSubscription(ctx, ev, stanza.UnsubscribedPresence)
}

func (c *Client) answerSubscription(ctx context.Context, ev *event.Event, typ stanza.PresenceType) error {
	if _, ok := ev.Payload().(event.Subscribe); !ok {
		return fmt.Errorf("converse: cannot answer %s event as a subscription", ev.Kind())
	}
	st, err := c.liveStream()
	if err != nil {
		return err
	}
	p := stanza.Presence{To: ev.From().Bare(), Type: typ}
	if err := st.Send(ctx, p.Wrap(nil)); err != nil {
		return err
	}
	c.queue.Conclude(ev)
	return nil
}

// AcceptInvite joins the room a RoomInvite event points at under the given
// nickname, then concludes the event.
func (c *Client) AcceptInvite(ctx context.Context, ev *event.Event, nickname string) error {
	payload, ok := ev.Payload().(event.Invitation)
	if !ok {
		return fmt.Errorf("converse: cannot accept %s event as an invite", ev.Kind())
	}
	if err := c.JoinRoom(ctx, payload.Invite.JID, nickname); err != nil {
		return err
	}
	c.queue.Conclude(ev)
	return nil
}

// Dismiss concludes an event without acting on it.
func (c *Client) Dismiss(ev *event.Event) {
	c.queue.Conclude(ev)
}
