package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/client"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/peer"
	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/room"
)

// typingExpiry is how long a typing indicator stays visible after the
// last notice; applied purely on the receiving side.
const typingExpiry = 2 * time.Second

type sessionEventMsg struct{ ev client.Event }
type tickMsg time.Time

// RoomModel is the live collaborative view: the shared buffer in a
// textarea, the member roster, the video call roster and the execution
// output pane.
type RoomModel struct {
	session  *client.Session
	language string
	version  string

	editor textarea.Model

	members     []room.Participant
	typingName  string
	typingUntil time.Time
	links       map[string]client.LinkEvent
	videoOn     bool
	camOn       bool
	micOn       bool

	output    string
	outputErr string
	notice    string

	width  int
	height int

	// exit stats for the summary table
	start       time.Time
	peersLinked int

	quitting bool
}

// NewRoomModel builds the view for a joined session.
func NewRoomModel(session *client.Session, language, version string) *RoomModel {
	ta := textarea.New()
	ta.Placeholder = "// start typing, everyone in the room sees it"
	ta.ShowLineNumbers = true
	ta.Focus()

	return &RoomModel{
		session:  session,
		language: language,
		version:  version,
		editor:   ta,
		links:    make(map[string]client.LinkEvent),
		camOn:    true,
		micOn:    true,
		start:    time.Now(),
	}
}

func (m *RoomModel) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.tick())
}

func (m *RoomModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.session.Events()
		if !ok {
			return sessionEventMsg{ev: client.DisconnectedEvent{}}
		}
		return sessionEventMsg{ev: ev}
	}
}

func (m *RoomModel) tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *RoomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(msg.Width - 30)
		m.editor.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "ctrl+r":
			m.notice = "running…"
			m.session.Compile(m.editor.Value(), m.language, m.version, "")
			return m, nil

		case "ctrl+v":
			if m.videoOn {
				m.session.DisableVideo()
				m.videoOn = false
				m.links = make(map[string]client.LinkEvent)
				m.notice = "video off"
			} else if err := m.session.EnableVideo(); err != nil {
				m.notice = err.Error()
			} else {
				m.videoOn = true
				m.notice = "video on"
			}
			return m, nil

		case "ctrl+b":
			if m.videoOn {
				m.camOn = !m.camOn
				m.session.ToggleCamera(m.camOn)
			}
			return m, nil

		case "ctrl+u":
			if m.videoOn {
				m.micOn = !m.micOn
				m.session.ToggleMic(m.micOn)
			}
			return m, nil
		}

		before := m.editor.Value()
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		if after := m.editor.Value(); after != before {
			m.session.Bridge.HandleLocalEdit(after)
		}
		return m, cmd

	case sessionEventMsg:
		return m.handleSessionEvent(msg.ev)

	case tickMsg:
		return m, m.tick()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *RoomModel) handleSessionEvent(ev client.Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {

	case client.MembersEvent:
		m.members = ev.Members

	case client.SetTextEvent:
		m.editor.SetValue(ev.Text)

	case client.TypingEvent:
		m.typingName = ev.DisplayName
		m.typingUntil = time.Now().Add(typingExpiry)

	case client.LanguageEvent:
		m.language = ev.Language
		m.notice = "language: " + ev.Language

	case client.OutputEvent:
		m.output = ev.Output
		m.outputErr = ev.Err
		m.notice = ""

	case client.LinkEvent:
		if ev.State == peer.StateClosed {
			delete(m.links, ev.RemoteID)
		} else {
			if ev.State == peer.StateConnected {
				m.peersLinked++
			}
			m.links[ev.RemoteID] = ev
		}

	case client.DisconnectedEvent:
		m.quitting = true
		return m, tea.Quit
	}

	return m, m.waitForEvent()
}

func (m *RoomModel) View() string {
	if m.quitting {
		return ""
	}

	var side strings.Builder
	side.WriteString(TitleStyle.Render("Room "+m.session.RoomID) + "\n")
	for _, p := range m.members {
		name := p.DisplayName
		if p.ID == m.session.SelfID {
			name += " (you)"
		}
		marker := "  "
		if link, ok := m.links[p.ID]; ok {
			switch link.State {
			case peer.StateConnected:
				marker = SuccessStyle.Render(IconVideo) + " "
			case peer.StateFailed:
				marker = ErrorStyle.Render(IconMuted) + " "
			default:
				marker = WarningStyle.Render(IconMuted) + " "
			}
		}
		side.WriteString(marker + name + "\n")
	}
	if m.typingName != "" && time.Now().Before(m.typingUntil) {
		side.WriteString(MutedStyle.Render(m.typingName+" is typing"+IconTyping) + "\n")
	}
	side.WriteString("\n" + MutedStyle.Render("lang: "+m.language) + "\n")
	if m.videoOn {
		cam, mic := IconVideo, IconVideo
		if !m.camOn {
			cam = IconMuted
		}
		if !m.micOn {
			mic = IconMuted
		}
		side.WriteString(MutedStyle.Render(fmt.Sprintf("cam %s  mic %s", cam, mic)) + "\n")
	}

	main := PaneBorderStyle.Render(m.editor.View())

	var bottom string
	switch {
	case m.outputErr != "":
		bottom = ErrorStyle.Render("error: ") + m.outputErr
	case m.output != "":
		bottom = m.output
	case m.notice != "":
		bottom = MutedStyle.Render(m.notice)
	}

	help := StatusBarStyle.Render("^R run  ^V video  ^B camera  ^U mic  ^C quit")

	body := lipgloss.JoinHorizontal(lipgloss.Top, main, "  "+side.String())
	return lipgloss.JoinVertical(lipgloss.Left, body, bottom, help)
}

// Summary reports the exit statistics for the final table.
func (m *RoomModel) Summary() SessionSummary {
	return SessionSummary{
		RoomID:      m.session.RoomID,
		DisplayName: m.session.DisplayName,
		Duration:    time.Since(m.start),
		Members:     len(m.members),
		PeersLinked: m.peersLinked,
		LastOutput:  m.output,
	}
}
