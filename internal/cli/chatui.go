package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/nwerner/talentline/internal/api"
	"github.com/nwerner/talentline/internal/cache"
	"github.com/nwerner/talentline/internal/chat"
	"github.com/nwerner/talentline/internal/models"
	"github.com/nwerner/talentline/internal/notify"
)

const (
	statusInterval = time.Second
	fetchTimeout   = 10 * time.Second
	historyLines   = 200
)

// Theme holds the color scheme for the chat view.
type Theme struct {
	Header  lipgloss.Color
	Mine    lipgloss.Color
	Theirs  lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Offline lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Header:  lipgloss.Color("#5FAFD7"), // light blue
	Mine:    lipgloss.Color("#00D787"), // green
	Theirs:  lipgloss.Color("#D7AF5F"), // amber
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Offline: lipgloss.Color("#FF875F"), // orange
}

func (t Theme) headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Header).Bold(true)
}

func (t Theme) mineStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Mine)
}

func (t Theme) theirsStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Theirs)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) offlineStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Offline)
}

// statusTickMsg refreshes the connection status line.
type statusTickMsg time.Time

// messagesMsg carries a fetched message history for the room.
type messagesMsg struct {
	messages []models.Message
	stored   bool
	err      error
}

// chatEventMsg carries one dispatched inbound event.
type chatEventMsg struct {
	event chat.Event
	ok    bool
}

// badgeMsg carries an updated unread notification count.
type badgeMsg struct {
	count int
	ok    bool
}

// sendResultMsg carries the outcome of an outbound send.
type sendResultMsg struct {
	messageID int64
	err       error
}

// chatModel is the bubbletea model for an interactive chat session.
type chatModel struct {
	client *api.Client
	store  *cache.Cache
	conn   *chat.Conn
	poller *notify.Poller
	events <-chan chat.Event
	cancel func()

	room   models.ChatRoom
	userID string

	input    textinput.Model
	theme    Theme
	messages []models.Message
	unread   int
	status   chat.Status
	sending  bool
	pendBody string
	errLine  string
	quitting bool
}

// newChatModel creates the chat model for one room.
func newChatModel(client *api.Client, store *cache.Cache, conn *chat.Conn, poller *notify.Poller, dispatcher *chat.Dispatcher, room models.ChatRoom, userID string) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message, Enter to send, Esc to leave"
	ti.Focus()

	events, cancel := dispatcher.Subscribe()

	return chatModel{
		client: client,
		store:  store,
		conn:   conn,
		poller: poller,
		events: events,
		cancel: cancel,
		room:   room,
		userID: userID,
		input:  ti,
		theme:  defaultTheme,
		status: conn.Status(),
	}
}

// Init starts the history fetch and the event and badge pumps.
func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchMessages(),
		m.waitEvent(),
		m.waitBadge(),
		statusTickCmd(),
	)
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		case "enter":
			return m.startSend()
		}

	case statusTickMsg:
		m.status = m.conn.Status()
		return m, statusTickCmd()

	case messagesMsg:
		if msg.err != nil {
			m.errLine = fmt.Sprintf("loading messages: %v", msg.err)
			return m, nil
		}
		if !msg.stored {
			// The cache moved on while the request was in flight;
			// the response is stale, fetch again.
			return m, m.fetchMessages()
		}
		m.errLine = ""
		m.messages = msg.messages
		return m, nil

	case chatEventMsg:
		if !msg.ok {
			return m, nil
		}
		cmds := []tea.Cmd{m.waitEvent()}
		if msg.event.Kind == chat.KindNewMessage && msg.event.RoomID == m.room.ID {
			cmds = append(cmds, m.fetchMessages())
		}
		return m, tea.Batch(cmds...)

	case badgeMsg:
		if !msg.ok {
			return m, nil
		}
		m.unread = msg.count
		return m, m.waitBadge()

	case sendResultMsg:
		return m.finishSend(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startSend validates the composer and hands the body to the
// connection. The composer keeps its text until delivery is confirmed.
func (m chatModel) startSend() (tea.Model, tea.Cmd) {
	if m.sending {
		return m, nil
	}

	body := strings.TrimSpace(m.input.Value())
	if body == "" {
		return m, nil
	}

	m.sending = true
	m.pendBody = body
	m.errLine = ""
	return m, m.sendCmd(body)
}

// finishSend applies the outcome of a send. Only a confirmed delivery
// clears the composer; a timed-out send keeps the text for retry.
func (m chatModel) finishSend(msg sendResultMsg) (tea.Model, tea.Cmd) {
	m.sending = false
	m.pendBody = ""

	if msg.err != nil {
		if errors.Is(msg.err, chat.ErrSendTimeout) {
			m.errLine = "delivery not confirmed, press Enter to retry"
		} else {
			m.errLine = fmt.Sprintf("send failed: %v", msg.err)
		}
		return m, nil
	}

	m.input.Reset()
	return m, m.fetchMessages()
}

// View renders the chat screen.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m chatModel) renderContent() string {
	if m.quitting {
		return m.theme.hintStyle().Render("Leaving room...\n")
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.renderMessages())
	b.WriteString("\n")

	if m.errLine != "" {
		b.WriteString(m.theme.errorStyle().Render(m.errLine))
		b.WriteString("\n")
	}

	if m.sending {
		b.WriteString(m.theme.hintStyle().Render("sending..."))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")

	return b.String()
}

func (m chatModel) renderHeader() string {
	title := m.room.JobTitle
	if title == "" {
		title = fmt.Sprintf("Room #%d", m.room.ID)
	}
	header := fmt.Sprintf("%s (with %s)", title, m.room.Other(m.userID))

	badge := notify.FormatBadge(m.unread)
	if badge != "" {
		header += fmt.Sprintf("  [%s unread]", badge)
	}

	return m.theme.headerStyle().Render(header)
}

func (m chatModel) renderStatus() string {
	if m.status.Connected() {
		return m.theme.hintStyle().Render("connected")
	}

	line := m.status.State.String()
	if m.status.Reconnects > 0 {
		line += fmt.Sprintf(" (reconnects: %d)", m.status.Reconnects)
	}
	if m.status.LastError != nil {
		line += fmt.Sprintf(": %v", m.status.LastError)
	}
	return m.theme.offlineStyle().Render(line)
}

func (m chatModel) renderMessages() string {
	if len(m.messages) == 0 {
		return m.theme.hintStyle().Render("No messages yet.")
	}

	// Show the tail of the history; the list arrives oldest first.
	visible := m.messages
	if len(visible) > historyLines {
		visible = visible[len(visible)-historyLines:]
	}

	var b strings.Builder
	for i, msg := range visible {
		if i > 0 {
			b.WriteString("\n")
		}
		when := msg.CreatedAt.Local().Format("15:04")
		if msg.SenderID == m.userID {
			b.WriteString(m.theme.mineStyle().Render(fmt.Sprintf("%s you: %s", when, msg.Body)))
		} else {
			b.WriteString(m.theme.theirsStyle().Render(fmt.Sprintf("%s %s: %s", when, msg.SenderID, msg.Body)))
		}
	}
	return b.String()
}

// fetchMessages loads the room history through the versioned cache.
// The version is read before the request so a response that raced an
// invalidation is recognized as stale and refetched.
func (m chatModel) fetchMessages() tea.Cmd {
	key := cache.RoomMessagesKey(m.room.ID)
	version := m.store.Version(key)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		messages, err := m.client.Messages(ctx, m.room.ID)
		if err != nil {
			return messagesMsg{err: err}
		}

		stored := m.store.Store(key, version, messages)
		return messagesMsg{messages: messages, stored: stored}
	}
}

// waitEvent blocks on the dispatcher subscription from a command
// goroutine so Update never blocks.
func (m chatModel) waitEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		return chatEventMsg{event: ev, ok: ok}
	}
}

// waitBadge blocks on unread-count updates from the poller.
func (m chatModel) waitBadge() tea.Cmd {
	return func() tea.Msg {
		count, ok := <-m.poller.Updates()
		return badgeMsg{count: count, ok: ok}
	}
}

func (m chatModel) sendCmd(body string) tea.Cmd {
	return func() tea.Msg {
		id, err := m.conn.Send(context.Background(), m.room.ID, body)
		return sendResultMsg{messageID: id, err: err}
	}
}

// statusTickCmd refreshes the connection status line once a second.
func statusTickCmd() tea.Cmd {
	return tea.Tick(statusInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}
