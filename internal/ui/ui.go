// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ui renders the terminal interface.
//
// The UI type bridges the client core and the bubbletea event loop: it is the
// surface factory handed to the client, and the state and badge callbacks it
// exposes forward into the running program as messages.
package ui // import "mellium.im/converse/internal/ui"

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"mellium.im/xmpp/jid"

	"mellium.im/converse"
	"mellium.im/converse/conv"
)

// UI owns the terminal program.
type UI struct {
	mu      sync.Mutex
	client  *converse.Client
	program *tea.Program
}

// New returns a UI with no client attached.
// SetClient must be called before Run.
func New() *UI {
	return &UI{}
}

// SetClient attaches the session controller the interface drives.
// The two are constructed in a cycle (the client needs the surface factory,
// the interface needs the client for user actions) so attachment is a second
// step.
func (u *UI) SetClient(c *converse.Client) {
	u.mu.Lock()
	u.client = c
	u.mu.Unlock()
}

// Run blocks running the terminal program until the user quits.
func (u *UI) Run() error {
	u.mu.Lock()
	m := newModel(u.client)
	u.program = tea.NewProgram(m, tea.WithAltScreen())
	p := u.program
	u.mu.Unlock()

	_, err := p.Run()
	return err
}

func (u *UI) send(msg tea.Msg) {
	u.mu.Lock()
	p := u.program
	u.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// SetState forwards a session state change into the event loop.
// It is wired to converse.HandleState.
func (u *UI) SetState(s converse.State) {
	u.send(stateMsg(s))
}

// SetActive forwards the pending notification count into the event loop.
// It is wired to converse.HandleActive.
func (u *UI) SetActive(n int) {
	u.send(activeMsg(n))
}

// NewSurface satisfies conv.Factory.
// Each surface forwards its conversation's traffic into the event loop; the
// rendering itself happens in the model.
func (u *UI) NewSurface(kind conv.Kind, peer jid.JID) (conv.Surface, error) {
	u.send(openedMsg{peer: peer, kind: kind})
	return &surface{ui: u, peer: peer}, nil
}

type surface struct {
	ui   *UI
	peer jid.JID
}

func (s *surface) Message(from jid.JID, body string) {
	s.ui.send(lineMsg{peer: s.peer, from: from, body: body})
}

func (s *surface) Presence(from jid.JID, available bool, status string) {
	s.ui.send(presenceMsg{peer: s.peer, from: from, available: available, status: status})
}

func (s *surface) Close() error {
	s.ui.send(closedMsg{peer: s.peer})
	return nil
}
