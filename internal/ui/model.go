// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"mellium.im/xmpp/jid"

	"mellium.im/converse"
	"mellium.im/converse/conv"
)

const requestTimeout = 30 * time.Second

// Messages forwarded into the event loop by the UI bridge.
type (
	stateMsg  converse.State
	activeMsg int

	openedMsg struct {
		peer jid.JID
		kind conv.Kind
	}
	closedMsg struct {
		peer jid.JID
	}
	lineMsg struct {
		peer jid.JID
		from jid.JID
		body string
	}
	presenceMsg struct {
		peer      jid.JID
		from      jid.JID
		available bool
		status    string
	}
	errMsg struct {
		err error
	}
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	nickStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("74"))

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// systemLog is the pseudo conversation that collects session notices.
const systemLog = ""

type model struct {
	client *converse.Client

	input textinput.Model
	view  viewport.Model
	ready bool

	state   converse.State
	badge   int
	order   []string
	logs    map[string][]string
	current string
}

func newModel(client *converse.Client) model {
	input := textinput.New()
	input.Placeholder = "message or /command"
	input.Focus()

	return model{
		client: client,
		input:  input,
		logs:   map[string][]string{systemLog: nil},
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 1
		if !m.ready {
			m.view = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 3
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, m.quit()
		case tea.KeyTab:
			return m, m.cycle()
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line == "" {
				return m, nil
			}
			return m, m.submit(line)
		}

	case stateMsg:
		m.state = converse.State(msg)
		m.append(systemLog, systemStyle.Render(fmt.Sprintf("session %s", m.state)))
		return m, nil

	case activeMsg:
		m.badge = int(msg)
		return m, nil

	case openedMsg:
		key := msg.peer.String()
		if _, ok := m.logs[key]; !ok {
			m.logs[key] = nil
			m.order = append(m.order, key)
		}
		return m, nil

	case closedMsg:
		m.drop(msg.peer.String())
		return m, nil

	case lineMsg:
		nick := m.client.Resolver().Resolve(msg.from)
		m.append(msg.peer.String(), fmt.Sprintf("%s %s", nickStyle.Render(nick+":"), msg.body))
		return m, nil

	case presenceMsg:
		nick := m.client.Resolver().Resolve(msg.from)
		verb := "is online"
		if !msg.available {
			verb = "went offline"
		}
		note := fmt.Sprintf("%s %s", nick, verb)
		if msg.status != "" {
			note += " (" + msg.status + ")"
		}
		m.append(msg.peer.String(), systemStyle.Render(note))
		return m, nil

	case errMsg:
		if msg.err != nil {
			m.append(m.current, errorStyle.Render(msg.err.Error()))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := headerStyle.Render(m.client.Addr().String()) + " " + systemStyle.Render("["+m.state.String()+"]")
	if m.badge > 0 {
		header += " " + badgeStyle.Render(fmt.Sprintf("(%d)", m.badge))
	}

	tabs := []string{m.renderTab(systemLog)}
	for _, key := range m.order {
		tabs = append(tabs, m.renderTab(key))
	}

	return header + "\n" +
		strings.Join(tabs, " ") + "\n" +
		m.view.View() + "\n" +
		m.input.View()
}

func (m model) renderTab(key string) string {
	label := "log"
	if key != systemLog {
		label = m.client.Resolver().Resolve(jid.MustParse(key))
	}
	if key == m.current {
		return activeTabStyle.Render("[" + label + "]")
	}
	return tabStyle.Render(label)
}

// append adds one line to a transcript and repaints if it is the visible one.
func (m *model) append(key, line string) {
	m.logs[key] = append(m.logs[key], line)
	if key == m.current {
		m.refresh()
	}
}

func (m *model) refresh() {
	if !m.ready {
		return
	}
	m.view.SetContent(strings.Join(m.logs[m.current], "\n"))
	m.view.GotoBottom()
}

func (m *model) drop(key string) {
	delete(m.logs, key)
	for i, have := range m.order {
		if have == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.current == key {
		m.current = systemLog
		m.client.Blur()
		m.refresh()
	}
}

// cycle moves focus to the next conversation tab.
func (m *model) cycle() tea.Cmd {
	if len(m.order) == 0 {
		return nil
	}
	next := 0
	for i, key := range m.order {
		if key == m.current {
			next = i + 1
			break
		}
	}
	if next == len(m.order) {
		m.current = systemLog
		m.refresh()
		client := m.client
		return func() tea.Msg {
			client.Blur()
			return nil
		}
	}
	m.current = m.order[next]
	m.refresh()
	peer := jid.MustParse(m.current)
	client := m.client
	return func() tea.Msg {
		if err := client.Focus(peer); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

// submit interprets one input line: a command if it starts with a slash, a
// message to the focused conversation otherwise.
func (m *model) submit(line string) tea.Cmd {
	if !strings.HasPrefix(line, "/") {
		if m.current == systemLog {
			m.append(systemLog, errorStyle.Render("no conversation focused; use /msg or tab"))
			return nil
		}
		return m.sendMessage(jid.MustParse(m.current), line)
	}

	cmd, rest, _ := strings.Cut(line[1:], " ")
	client := m.client
	switch cmd {
	case "quit":
		return m.quit()

	case "login":
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return errMsg{err: client.LoginCached(ctx)}
		}

	case "logout":
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return errMsg{err: client.Logout(ctx)}
		}

	case "msg":
		peerArg, body, ok := strings.Cut(rest, " ")
		if !ok || body == "" {
			m.append(m.current, errorStyle.Render("usage: /msg <address> <text>"))
			return nil
		}
		peer, err := jid.Parse(peerArg)
		if err != nil {
			m.append(m.current, errorStyle.Render(err.Error()))
			return nil
		}
		return m.sendMessage(peer, body)

	case "join":
		roomArg, nickname, ok := strings.Cut(rest, " ")
		if !ok {
			m.append(m.current, errorStyle.Render("usage: /join <room> <nickname>"))
			return nil
		}
		room, err := jid.Parse(roomArg)
		if err != nil {
			m.append(m.current, errorStyle.Render(err.Error()))
			return nil
		}
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return errMsg{err: client.JoinRoom(ctx, room, nickname)}
		}

	case "leave":
		if m.current == systemLog {
			m.append(systemLog, errorStyle.Render("no room focused"))
			return nil
		}
		room := jid.MustParse(m.current)
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return errMsg{err: client.LeaveRoom(ctx, room)}
		}

	case "close":
		if m.current == systemLog {
			return nil
		}
		peer := jid.MustParse(m.current)
		return func() tea.Msg {
			return errMsg{err: client.CloseConversation(peer)}
		}

	case "status":
		status := parseStatus(rest)
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return errMsg{err: client.ChangeStatus(ctx, status)}
		}

	case "roster":
		for _, c := range client.Contacts().Contacts() {
			mark := " "
			if c.Online {
				mark = "*"
			}
			m.append(systemLog, fmt.Sprintf("%s %s (%s, %s)", mark, c.JID, c.Name, c.Sub))
		}
		return nil
	}

	m.append(m.current, errorStyle.Render("unknown command: /"+cmd))
	return nil
}

func (m *model) sendMessage(peer jid.JID, body string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return errMsg{err: client.SendMessage(ctx, peer, body)}
	}
}

// quit stops the program; the session itself is torn down by the caller of
// Run so the last status can be persisted first.
func (m *model) quit() tea.Cmd {
	return tea.Quit
}

// parseStatus splits "/status away some text" into an availability and the
// free-form text after it.
func parseStatus(rest string) converse.Status {
	show, text, _ := strings.Cut(rest, " ")
	s := converse.Status{Text: text}
	switch show {
	case "away":
		s.Availability = converse.Away
	case "xa":
		s.Availability = converse.ExtendedAway
	case "dnd":
		s.Availability = converse.DoNotDisturb
	case "chat":
		s.Availability = converse.FreeToChat
	default:
		// Not a recognized availability, treat the whole line as text.
		s.Text = strings.TrimSpace(rest)
	}
	return s
}
