// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"context"
	"encoding/xml"
	"sync"

	"mellium.im/xmpp"
	"mellium.im/xmpp/disco"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/muc"
	"mellium.im/xmpp/mux"
	"mellium.im/xmpp/roster"
	"mellium.im/xmpp/stanza"
)

// Stream is the negotiated protocol stream a Client drives.
//
// It is the client's only view of the transport: no wire format, TLS, or DNS
// detail leaks through it.
// BindSession adapts a mellium.im/xmpp session to this interface; tests
// substitute fakes.
type Stream interface {
	// Send transmits an outbound element.
	Send(ctx context.Context, r xml.TokenReader) error

	// Serve delivers inbound stanzas to the given handlers, in the order the
	// transport received them, until the stream ends.
	Serve(opt ...mux.Option) error

	// FetchRoster retrieves the full contact list.
	FetchRoster(ctx context.Context) ([]roster.Item, error)

	// ServerInfo queries the server's advertised identities and features.
	ServerInfo(ctx context.Context) (disco.Info, error)

	// JoinRoom enters the chat room identified by the bare address of room,
	// using its resourcepart as the requested nickname.
	JoinRoom(ctx context.Context, room jid.JID) error

	// LeaveRoom exits a previously joined room.
	LeaveRoom(ctx context.Context, room jid.JID) error

	// LocalAddr returns the address the stream was negotiated for.
	LocalAddr() jid.JID

	// Close ends the stream.
	Close() error
}

// Dialer establishes and negotiates a stream on behalf of an identity.
// The credential is opaque to the client core; its meaning belongs to the
// dialer (normally a SASL password).
type Dialer interface {
	Dial(ctx context.Context, addr jid.JID, secret string) (Stream, error)
}

// DialerFunc is an adapter to allow the use of ordinary functions as dialers.
type DialerFunc func(ctx context.Context, addr jid.JID, secret string) (Stream, error)

// Dial calls f(ctx, addr, secret).
func (f DialerFunc) Dial(ctx context.Context, addr jid.JID, secret string) (Stream, error) {
	return f(ctx, addr, secret)
}

// BindSession adapts a negotiated XMPP session to the Stream interface.
//
// The returned stream registers multi-user chat and service discovery
// handling alongside the handlers passed to Serve, and tracks joined channels
// so that LeaveRoom can exit them.
func BindSession(s *xmpp.Session) Stream {
	return &boundSession{
		s:     s,
		muc:   &muc.Client{},
		rooms: make(map[string]*muc.Channel),
	}
}

type boundSession struct {
	s   *xmpp.Session
	muc *muc.Client

	mu    sync.Mutex
	rooms map[string]*muc.Channel
}

func (b *boundSession) Send(ctx context.Context, r xml.TokenReader) error {
	return b.s.Send(ctx, r)
}

func (b *boundSession) Serve(opt ...mux.Option) error {
	opt = append([]mux.Option{
		muc.HandleClient(b.muc),
		disco.Handle(),
	}, opt...)
	return b.s.Serve(mux.New(stanza.NSClient, opt...))
}

func (b *boundSession) FetchRoster(ctx context.Context) ([]roster.Item, error) {
	iter := roster.Fetch(ctx, b.s)
	/* #nosec */
	defer iter.Close()

	var items []roster.Item
	for iter.Next() {
		items = append(items, iter.Item())
	}
	return items, iter.Err()
}

func (b *boundSession) ServerInfo(ctx context.Context) (disco.Info, error) {
	return disco.GetInfo(ctx, "", b.s.LocalAddr().Domain(), b.s)
}

func (b *boundSession) JoinRoom(ctx context.Context, room jid.JID) error {
	channel, err := b.muc.Join(ctx, room, b.s)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.rooms[room.Bare().String()] = channel
	b.mu.Unlock()
	return nil
}

func (b *boundSession) LeaveRoom(ctx context.Context, room jid.JID) error {
	b.mu.Lock()
	channel, ok := b.rooms[room.Bare().String()]
	delete(b.rooms, room.Bare().String())
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return channel.Leave(ctx, "")
}

func (b *boundSession) LocalAddr() jid.JID {
	return b.s.LocalAddr()
}

func (b *boundSession) Close() error {
	return b.s.Close()
}
