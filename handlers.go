// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"encoding/xml"
	"io"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/muc"
	"mellium.im/xmpp/mux"
	"mellium.im/xmpp/oob"
	"mellium.im/xmpp/roster"
	"mellium.im/xmpp/stanza"

	"mellium.im/converse/event"
)

// muxOptions returns the stanza handler registrations for one session
// generation.
// Every handler drops stanzas delivered under a superseded generation, so a
// stream that lingers past its logout cannot mutate newer session state.
func (c *Client) muxOptions(gen uint64) []mux.Option {
	msg := messageHandler{c: c, gen: gen}
	pres := presenceHandler{c: c, gen: gen}
	return []mux.Option{
		mux.Message(stanza.ChatMessage, xml.Name{Local: "body"}, msg),
		mux.Message(stanza.GroupChatMessage, xml.Name{Local: "body"}, msg),
		mux.Message(stanza.ErrorMessage, xml.Name{}, errorHandler{c: c, gen: gen}),
		mux.Message(stanza.ChatMessage, xml.Name{Space: oob.NS, Local: "x"}, oobHandler{c: c, gen: gen}),
		mux.Message(stanza.NormalMessage, xml.Name{Space: oob.NS, Local: "x"}, oobHandler{c: c, gen: gen}),
		mux.Presence(stanza.AvailablePresence, xml.Name{}, pres),
		mux.Presence(stanza.UnavailablePresence, xml.Name{}, pres),
		mux.Presence(stanza.SubscribePresence, xml.Name{}, subscribeHandler{c: c, gen: gen}),
		mux.IQ(stanza.SetIQ, xml.Name{Space: roster.NS, Local: "query"}, rosterPushHandler{c: c, gen: gen}),
		muc.HandleInvite(func(invite muc.Invitation) {
			c.handleInvite(gen, invite)
		}),
	}
}

type messageBody struct {
	stanza.Message
	Body string `xml:"body"`
}

type messageHandler struct {
	c   *Client
	gen uint64
}

func (h messageHandler) HandleMessage(msg stanza.Message, t xmlstream.TokenReadEncoder) error {
	if !h.c.current(h.gen) {
		return nil
	}
	d := xml.NewTokenDecoder(t)
	body := messageBody{}
	err := d.Decode(&body)
	if err != nil && err != io.EOF {
		return err
	}
	if body.Body == "" {
		// Chat state notifications and other bodiless chaff.
		return nil
	}
	return h.c.handleMessage(msg, body.Body)
}

// handleMessage routes an inbound message to its conversation, creating one
// if none is open, and queues a notification unless the conversation is the
// focused one.
func (c *Client) handleMessage(msg stanza.Message, body string) error {
	conversation, err := c.convs.Get(msg.From)
	if err != nil {
		return err
	}
	conversation.Surface().Message(msg.From, body)

	if c.convs.Focused(msg.From) {
		return nil
	}
	err = c.queue.Add(event.New(msg.From, event.Body{Msg: msg, Text: body}))
	if err != nil {
		c.logger.Printf("error queuing message event: %v", err)
	}
	return nil
}

type presenceStatus struct {
	stanza.Presence
	Show   string `xml:"show"`
	Status string `xml:"status"`
}

type presenceHandler struct {
	c   *Client
	gen uint64
}

func (h presenceHandler) HandlePresence(p stanza.Presence, t xmlstream.TokenReadEncoder) error {
	if !h.c.current(h.gen) {
		return nil
	}
	d := xml.NewTokenDecoder(t)
	decoded := presenceStatus{}
	err := d.Decode(&decoded)
	if err != nil && err != io.EOF {
		return err
	}
	return h.c.handlePresence(p, decoded.Status)
}

// handlePresence applies an availability change.
// Presence from a room occupant belongs to the room's conversation; room
// identity shadows any roster entry at the same address.
// Anything else updates the contact list.
func (c *Client) handlePresence(p stanza.Presence, status string) error {
	available := p.Type != stanza.UnavailablePresence
	if c.rooms.Contains(p.From) {
		conversation, err := c.convs.Lookup(p.From)
		if err != nil {
			// Not an open room; stale occupant presence after a leave.
			return nil
		}
		conversation.Surface().Presence(p.From, available, status)
		return nil
	}
	c.contacts.SetPresence(p.From, available, status)
	return nil
}

type subscribeHandler struct {
	c   *Client
	gen uint64
}

func (h subscribeHandler) HandlePresence(p stanza.Presence, t xmlstream.TokenReadEncoder) error {
	if !h.c.current(h.gen) {
		return nil
	}
	err := h.c.queue.Add(event.New(p.From, event.Subscribe{Presence: p}))
	if err != nil {
		h.c.logger.Printf("error queuing subscription request: %v", err)
	}
	return nil
}

type errorHandler struct {
	c   *Client
	gen uint64
}

func (h errorHandler) HandleMessage(msg stanza.Message, t xmlstream.TokenReadEncoder) error {
	if !h.c.current(h.gen) {
		return nil
	}
	d := xml.NewTokenDecoder(t)
	decoded := struct {
		stanza.Message
		Error stanza.Error `xml:"error"`
	}{}
	err := d.Decode(&decoded)
	if err != nil && err != io.EOF {
		return err
	}
	// Error stanzas are recoverable: report and carry on.
	err = h.c.queue.Add(event.New(msg.From, event.Failure{Stanza: decoded.Error}))
	if err != nil {
		h.c.logger.Printf("error queuing error event: %v", err)
	}
	return nil
}

type oobHandler struct {
	c   *Client
	gen uint64
}

func (h oobHandler) HandleMessage(msg stanza.Message, t xmlstream.TokenReadEncoder) error {
	if !h.c.current(h.gen) {
		return nil
	}
	d := xml.NewTokenDecoder(t)
	decoded := struct {
		stanza.Message
		Data oob.Data `xml:"jabber:x:oob x"`
	}{}
	err := d.Decode(&decoded)
	if err != nil && err != io.EOF {
		return err
	}
	if decoded.Data.URL == "" {
		return nil
	}
	err = h.c.queue.Add(event.New(msg.From, event.Offer{Data: decoded.Data}))
	if err != nil {
		h.c.logger.Printf("error queuing file offer: %v", err)
	}
	return nil
}

type rosterPushHandler struct {
	c   *Client
	gen uint64
}

func (h rosterPushHandler) HandleIQ(iq stanza.IQ, t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	if !h.c.current(h.gen) {
		return nil
	}
	// Per RFC 6121 pushes come from the user's own bare address or the
	// server itself; anything else is a spoof.
	if !iq.From.Equal(jid.JID{}) && !iq.From.Equal(h.c.addr) && !iq.From.Equal(h.c.addr.Domain()) {
		return nil
	}
	d := xml.NewTokenDecoder(xmlstream.MultiReader(xmlstream.Token(*start), t))
	query := struct {
		XMLName xml.Name      `xml:"jabber:iq:roster query"`
		Item    []roster.Item `xml:"item"`
	}{}
	err := d.Decode(&query)
	if err != nil && err != io.EOF {
		return err
	}
	for _, item := range query.Item {
		h.c.contacts.Apply(item)
	}
	_, err = xmlstream.Copy(t, iq.Result(nil))
	return err
}

func (c *Client) handleInvite(gen uint64, invite muc.Invitation) {
	if !c.current(gen) {
		return
	}
	err := c.queue.Add(event.New(invite.JID, event.Invitation{Invite: invite}))
	if err != nil {
		c.logger.Printf("error queuing room invite: %v", err)
	}
}

// Focus marks the conversation for peer as the one the user is looking at
// and concludes its pending notifications.
func (c *Client) Focus(peer jid.JID) error {
	err := c.convs.Focus(peer)
	if err != nil {
		return err
	}
	c.queue.ConcludeAddr(peer)
	return nil
}

// Blur clears the focused conversation.
func (c *Client) Blur() {
	c.convs.Blur()
}
