// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"context"
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/stanza"
)

// Availability is the broadcast presence "show" value.
type Availability uint8

const (
	// Available is the default availability; it has no wire representation.
	Available Availability = iota

	// Away marks the user temporarily away.
	Away

	// ExtendedAway marks the user away for an extended period.
	ExtendedAway

	// DoNotDisturb asks peers not to interrupt.
	DoNotDisturb

	// FreeToChat advertises the user as actively interested in chatting.
	FreeToChat
)

func (a Availability) show() string {
	switch a {
	case Away:
		return "away"
	case ExtendedAway:
		return "xa"
	case DoNotDisturb:
		return "dnd"
	case FreeToChat:
		return "chat"
	}
	return ""
}

// String satisfies fmt.Stringer.
func (a Availability) String() string {
	if s := a.show(); s != "" {
		return s
	}
	return "available"
}

// ParseAvailability maps a presence show value onto an Availability.
// Unknown values, including the empty string, map to Available.
func ParseAvailability(s string) Availability {
	switch s {
	case "away":
		return Away
	case "xa":
		return ExtendedAway
	case "dnd":
		return DoNotDisturb
	case "chat":
		return FreeToChat
	}
	return Available
}

// Status is an availability plus free-form status text, broadcast to
// subscribed peers as presence.
type Status struct {
	Availability Availability
	Text         string
}

// tokenReader returns the presence payload for the status: a show element if
// the availability has one, and a status element if text is set.
func (s Status) tokenReader() xml.TokenReader {
	var payloads []xml.TokenReader
	if show := s.Availability.show(); show != "" {
		payloads = append(payloads, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(show)),
			xml.StartElement{Name: xml.Name{Local: "show"}},
		))
	}
	if s.Text != "" {
		payloads = append(payloads, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(s.Text)),
			xml.StartElement{Name: xml.Name{Local: "status"}},
		))
	}
	return xmlstream.MultiReader(payloads...)
}

// ChangeStatus broadcasts a new presence and records it as the last presence
// sent.
// It returns ErrNotConnected, with nothing sent, unless a session is
// established: this is the only path that mutates outbound presence.
func (c *Client) ChangeStatus(ctx context.Context, s Status) error {
	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	st := c.stream
	c.mu.Unlock()

	err := st.Send(ctx, stanza.Presence{}.Wrap(s.tokenReader()))
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	return nil
}

// Status returns the last presence sent on the current session.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
