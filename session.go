// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"context"

	"mellium.im/xmpp/stanza"

	"mellium.im/converse/event"
)

// Login starts establishing a session for the client's identity.
//
// It returns ErrAlreadyConnected unless the client is disconnected.
// The attempt itself is asynchronous: Login returns as soon as the client is
// in the Connecting state and progress is reported through the state
// callback.
// Before the session is declared connected the client queries the server's
// capabilities and fetches the contact list; a failure anywhere along the way
// queues a ConnectError and returns the client to Disconnected.
func (c *Client) Login(ctx context.Context, secret string) error {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	if c.dialer == nil {
		c.mu.Unlock()
		return ErrNoDialer
	}
	c.gen++
	gen := c.gen
	c.state = Connecting
	c.mu.Unlock()

	c.notifyState(Connecting)
	go c.connect(ctx, gen, secret)
	return nil
}

// LoginCached is like Login but reads the credential from the settings
// collaborator.
func (c *Client) LoginCached(ctx context.Context) error {
	if c.settings == nil {
		return ErrNoCredential
	}
	secret, ok := c.settings.Credential(c.addr)
	if !ok {
		return ErrNoCredential
	}
	return c.Login(ctx, secret)
}

// current reports whether gen identifies the live session.
// Completions and stanza callbacks carrying a stale generation are discarded
// by their callers without touching client state.
func (c *Client) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

func (c *Client) connect(ctx context.Context, gen uint64, secret string) {
	st, err := c.dialer.Dial(ctx, c.addr, secret)
	if err != nil {
		c.connectFailed(gen, nil, err)
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		// Superseded by a logout while dialing; nobody owns this stream.
		if err := st.Close(); err != nil {
			c.logger.Printf("error closing superseded stream: %v", err)
		}
		return
	}
	c.stream = st
	c.mu.Unlock()

	// The serve loop must be running before any synchronous query: responses
	// are routed by it.
	go c.serve(gen, st)

	if _, err := st.ServerInfo(ctx); err != nil {
		c.connectFailed(gen, st, err)
		return
	}
	items, err := st.FetchRoster(ctx)
	if err != nil {
		c.connectFailed(gen, st, err)
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = Connected
	initial := c.initial
	c.initial = nil
	c.mu.Unlock()

	c.contacts.Replace(items)
	c.notifyState(Connected)

	// Flush any presence that was requested before the connect completed.
	if initial != nil {
		if err := c.ChangeStatus(ctx, *initial); err != nil {
			c.logger.Printf("error sending initial presence: %v", err)
		}
	}
}

// connectFailed reports a failed login attempt and returns the client to
// Disconnected.
// st is the stream to discard, if one was already established.
func (c *Client) connectFailed(gen uint64, st Stream, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if st != nil {
			if err := st.Close(); err != nil {
				c.logger.Printf("error closing superseded stream: %v", err)
			}
		}
		return
	}
	c.gen++
	c.state = Disconnected
	c.stream = nil
	c.mu.Unlock()

	if st != nil {
		if err := st.Close(); err != nil {
			c.logger.Printf("error closing stream after failed login: %v", err)
		}
	}
	c.logger.Printf("login failed: %v", err)
	if err := c.queue.Add(event.New(c.addr, event.Failure{Err: &ConnectError{Err: err}})); err != nil {
		c.logger.Printf("error queuing connect failure: %v", err)
	}
	c.notifyState(Disconnected)
}

// serve runs the inbound stanza loop for one session generation and performs
// the fatal-error teardown if the stream fails underneath a live session.
func (c *Client) serve(gen uint64, st Stream) {
	err := st.Serve(c.muxOptions(gen)...)

	c.mu.Lock()
	if gen != c.gen {
		// The stream was closed deliberately; teardown already happened or is
		// the closer's responsibility.
		c.mu.Unlock()
		return
	}
	c.gen++
	c.state = LoggingOut
	c.stream = nil
	c.mu.Unlock()

	c.notifyState(LoggingOut)
	if cerr := st.Close(); cerr != nil {
		c.logger.Printf("error closing failed stream: %v", cerr)
	}
	c.teardown()

	if err != nil {
		c.logger.Printf("stream failed: %v", err)
		if qerr := c.queue.Add(event.New(c.addr, event.Failure{Err: err})); qerr != nil {
			c.logger.Printf("error queuing stream failure: %v", qerr)
		}
	}

	c.mu.Lock()
	c.state = Disconnected
	c.mu.Unlock()
	c.notifyState(Disconnected)
}

// Logout ends the current session.
//
// A connected session sends unavailable presence, closes every open
// conversation, and transitions through LoggingOut to Disconnected once the
// transport confirms the close.
// A login still in flight is superseded: its completion will be discarded.
// Logout of a disconnected client is a no-op.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Disconnected, LoggingOut:
		c.mu.Unlock()
		return nil
	case Connecting:
		c.gen++
		st := c.stream
		c.state = Disconnected
		c.stream = nil
		c.mu.Unlock()

		if st != nil {
			if err := st.Close(); err != nil {
				c.logger.Printf("error closing half-established stream: %v", err)
			}
		}
		c.notifyState(Disconnected)
		return nil
	}

	st := c.stream
	c.gen++
	c.state = LoggingOut
	c.stream = nil
	c.status = Status{}
	c.mu.Unlock()
	c.notifyState(LoggingOut)

	// Best effort: the stream is going away either way.
	err := st.Send(ctx, stanza.Presence{Type: stanza.UnavailablePresence}.Wrap(nil))
	if err != nil {
		c.logger.Printf("error sending unavailable presence: %v", err)
	}
	err = st.Close()
	c.teardown()

	c.mu.Lock()
	c.state = Disconnected
	c.mu.Unlock()
	c.notifyState(Disconnected)
	return err
}

// teardown closes every conversation, concluding their pending events, and
// then clears the per-session notification queue.
func (c *Client) teardown() {
	if err := c.convs.CloseAll(); err != nil {
		c.logger.Printf("error closing conversations: %v", err)
	}
	c.queue.Purge()
}
