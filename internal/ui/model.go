// Package ui is the terminal chat widget: a launcher in the bottom-right
// corner that opens into a chat panel.
package ui

import (
	"errors"
	"strconv"
	"strings"

	"chat-widget/internal/render"
	"chat-widget/internal/session"
	"chat-widget/internal/timeline"
	"chat-widget/internal/widget"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	title        = "AI Assistant"
	emptyText    = "How can I assist you today?"
	thinkingText = "Thinking..."
	busyText     = "Please wait for the current reply."

	maxPanelWidth  = 64
	maxPanelHeight = 28
	previewWidth   = 32
	typingCursor   = "▌"
)

// Options configures the widget.
type Options struct {
	GlamourStyle string
	StartOpen    bool
}

type Model struct {
	session  *session.Session
	vis      *widget.Visibility
	opts     Options
	renderer *render.Terminal

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	width  int
	height int

	// rendered caches glamour output of final messages by ID.
	rendered map[string]string
	status   string
}

// NewModel builds the widget around sess and subscribes to its hooks.
func NewModel(sess *session.Session, opts Options) Model {
	vis := widget.NewVisibility(opts.StartOpen)
	sess.OnAssistantMessage(func(timeline.Message) { vis.NoteAssistantMessage() })
	sess.OnCleared(vis.ResetUnread)

	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	h := help.New()
	h.ShowAll = false

	return Model{
		session:  sess,
		vis:      vis,
		opts:     opts,
		renderer: render.NewTerminal(opts.GlamourStyle, maxPanelWidth-4),
		viewport: viewport.New(maxPanelWidth-4, maxPanelHeight-6),
		input:    ti,
		spinner:  sp,
		help:     h,
		keys:     defaultKeys(),
		rendered: make(map[string]string),
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	cmds = append(cmds, m.session.Update(msg))

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
			break
		}
		if m.vis.IsOpen() {
			m.vis.HandlePointer(msg.X, msg.Y, m.panelRect())
		} else if m.launcherRect().Contains(msg.X, msg.Y) {
			m.vis.Open()
		}

	case spinner.TickMsg:
		if m.session.State() == session.AwaitingResponse {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.session.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.vis.Toggle()
			m.status = ""
		case key.Matches(msg, m.keys.Clear):
			m.status = ""
			cmds = append(cmds, m.session.ClearHistory())
		case !m.vis.IsOpen():
			if key.Matches(msg, m.keys.Submit) {
				m.vis.Open()
			}
		case key.Matches(msg, m.keys.Close):
			m.vis.Close()
		case key.Matches(msg, m.keys.Submit):
			cmds = append(cmds, m.submit())
		case key.Matches(msg, m.keys.PageUp):
			m.viewport.HalfViewUp()
		case key.Matches(msg, m.keys.PageDown):
			m.viewport.HalfViewDown()
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.refreshTranscript()
	return m, tea.Batch(cmds...)
}

func (m *Model) submit() tea.Cmd {
	cmd, err := m.session.Submit(m.input.Value())
	switch {
	case errors.Is(err, session.ErrBlankInput):
		return nil
	case errors.Is(err, session.ErrBusy):
		m.status = busyText
		return nil
	case err != nil:
		m.status = err.Error()
		return nil
	}
	m.status = ""
	m.input.Reset()
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) resize() {
	r := m.panelRect()
	innerW := r.Width - 4
	if innerW < 10 {
		innerW = 10
	}
	vpH := r.Height - 6
	if vpH < 1 {
		vpH = 1
	}
	if innerW != m.viewport.Width {
		m.renderer = render.NewTerminal(m.opts.GlamourStyle, innerW)
		m.rendered = make(map[string]string)
	}
	m.viewport.Width = innerW
	m.viewport.Height = vpH
	m.input.Width = innerW - lipgloss.Width(m.input.Prompt) - 1
	m.help.Width = innerW
}

// refreshTranscript rebuilds the viewport content from the timeline.
func (m *Model) refreshTranscript() {
	msgs := m.session.Timeline().Messages()
	if len(msgs) == 0 {
		m.viewport.SetContent(emptyStyle.Render(emptyText))
		return
	}

	atBottom := m.viewport.AtBottom()
	var blocks []string
	for _, msg := range msgs {
		blocks = append(blocks, m.renderMessage(msg))
	}
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	if atBottom || m.session.Busy() {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderMessage(msg timeline.Message) string {
	if msg.Role == timeline.RoleUser {
		body := lipgloss.NewStyle().Width(m.viewport.Width).Render(msg.Content.PlainText())
		return userLabelStyle.Render("You") + "\n" + body
	}

	label := assistantLabelStyle.Render("Assistant")
	if msg.IsTyping() {
		body := lipgloss.NewStyle().Width(m.viewport.Width).Render(m.session.Typing() + typingCursor)
		return label + "\n" + body
	}
	out, ok := m.rendered[msg.ID]
	if !ok {
		out = m.renderer.Render(msg.Content)
		m.rendered[msg.ID] = out
	}
	return label + "\n" + out
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}
	box := m.launcherView()
	if m.vis.IsOpen() {
		box = m.panelView()
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Bottom, box)
}

func (m Model) panelView() string {
	r := m.panelRect()
	innerW := r.Width - 4

	header := headerStyle.Render(title)
	hint := statusStyle.Render("esc to close")
	gap := innerW - lipgloss.Width(header) - lipgloss.Width(hint)
	if gap > 0 {
		header += strings.Repeat(" ", gap) + hint
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.statusLine(),
		m.input.View(),
		m.help.View(m.keys),
	)
	return panelStyle.
		Width(r.Width - 2).
		Height(r.Height - 2).
		MaxWidth(r.Width).
		MaxHeight(r.Height).
		Render(body)
}

func (m Model) statusLine() string {
	switch {
	case m.session.State() == session.AwaitingResponse:
		return m.spinner.View() + " " + statusStyle.Render(thinkingText)
	case m.status != "":
		return statusStyle.Render(ansi.Truncate(m.status, m.viewport.Width, "…"))
	default:
		return ""
	}
}

func (m Model) launcherView() string {
	button := launcherStyle.Render("💬")
	unread := m.vis.Unread()
	if unread == 0 {
		return button
	}
	button = lipgloss.JoinHorizontal(lipgloss.Center, button, badgeStyle.Render(badge(unread)))
	preview := m.lastAssistantPreview()
	if preview == "" {
		return button
	}
	return lipgloss.JoinVertical(lipgloss.Right, previewStyle.Render(preview), button)
}

func (m Model) lastAssistantPreview() string {
	msgs := m.session.Timeline().Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != timeline.RoleAssistant {
			continue
		}
		text := msgs[i].Content.PlainText()
		if msgs[i].IsTyping() {
			text = m.session.Typing()
		}
		text = strings.Join(strings.Fields(text), " ")
		return ansi.Truncate(text, previewWidth, "…")
	}
	return ""
}

func badge(n int) string {
	if n > 99 {
		return "99+"
	}
	return strconv.Itoa(n)
}

// panelRect is where the open panel sits: anchored bottom-right.
func (m Model) panelRect() widget.Rect {
	w := min(m.width, maxPanelWidth)
	h := min(m.height, maxPanelHeight)
	return widget.Rect{X: m.width - w, Y: m.height - h, Width: w, Height: h}
}

func (m Model) launcherRect() widget.Rect {
	view := m.launcherView()
	w, h := lipgloss.Width(view), lipgloss.Height(view)
	return widget.Rect{X: m.width - w, Y: m.height - h, Width: w, Height: h}
}
