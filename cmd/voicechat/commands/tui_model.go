package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/muesli/reflow/wordwrap"
)

const (
	maxTranscriptLines = 200
	levelBarWidth      = 20
)

// conversation is the part of the orchestrator the UI drives.
type conversation interface {
	ToggleListening(ctx context.Context) error
	SendText(ctx context.Context, text string) error
	Cancel()
	CanListen() bool
}

// eventMsg wraps orchestrator events for bubbletea.
type eventMsg struct{ event events.Event }

type errMsg struct{ err error }

type transcriptLine struct {
	speaker string
	text    string
}

type tuiStyles struct {
	title     lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	system    lipgloss.Style
	interim   lipgloss.Style
	status    lipgloss.Style
	levelOn   lipgloss.Style
	levelOff  lipgloss.Style
	help      lipgloss.Style
}

func newTUIStyles() tuiStyles {
	return tuiStyles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
		system:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		interim:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1),
		levelOn:   lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		levelOff:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		help:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

type tuiModel struct {
	ctx          context.Context
	conversation conversation

	input      textinput.Model
	transcript viewport.Model
	ready      bool

	lines     []transcriptLine
	streaming string
	interim   string

	listening   bool
	speaking    bool
	level       float64
	voiceActive bool
	status      string

	styles tuiStyles
	width  int
	height int
}

func newTUIModel(ctx context.Context, conversation conversation) tuiModel {
	input := textinput.New()
	input.Placeholder = "Type a message, or press space to talk"
	input.Prompt = "> "
	input.CharLimit = 500
	input.Focus()

	status := "ready"
	if !conversation.CanListen() {
		status = "speech recognition unavailable, type instead"
	}

	return tuiModel{
		ctx:          ctx,
		conversation: conversation,
		input:        input,
		status:       status,
		styles:       newTUIStyles(),
	}
}

func (m tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case eventMsg:
		m.handleEvent(msg.event)
		m.refresh()
		return m, nil

	case errMsg:
		m.status = msg.err.Error()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		m.conversation.Cancel()
		m.input.Reset()
		return m, nil

	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if text == "" {
			return m, nil
		}
		return m, m.sendText(text)

	case tea.KeySpace:
		if m.input.Value() == "" {
			return m, m.toggleListening()
		}

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Both commands may wait on the network, so they run outside Update.
func (m tuiModel) toggleListening() tea.Cmd {
	ctx, conversation := m.ctx, m.conversation
	return func() tea.Msg {
		if err := conversation.ToggleListening(ctx); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m tuiModel) sendText(text string) tea.Cmd {
	ctx, conversation := m.ctx, m.conversation
	return func() tea.Msg {
		if err := conversation.SendText(ctx, text); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m *tuiModel) handleEvent(event events.Event) {
	switch e := event.(type) {
	case events.UserListeningStarted:
		m.listening = true
		m.status = "listening"
	case events.UserListeningStopped:
		m.listening = false
		m.interim = ""
		m.level = 0
		m.voiceActive = false
		m.status = "ready"
	case events.UserInputLevel:
		m.level = e.Level
		m.voiceActive = e.VoiceActive
	case events.UserTranscriptInterimUpdated:
		m.interim = e.Transcript
	case events.UserTranscriptFinal:
		m.interim = ""
		m.appendLine("you", e.Transcript)
	case events.UserCaptureFailed:
		m.appendLine("error", fmt.Sprintf("speech recognition failed: %v", e.Err))
	case events.AssistantResponseStarted:
		m.streaming = ""
		m.status = "thinking"
	case events.AssistantResponseSegment:
		m.streaming += e.Segment
	case events.AssistantResponseFinal:
		m.streaming = ""
		m.appendLine("assistant", e.Response)
	case events.AssistantSpeechUnavailable:
		m.status = fmt.Sprintf("could not speak segment %d", e.SegmentID)
	case events.AssistantPlaybackStarted:
		m.speaking = true
		m.status = "speaking"
	case events.AssistantPlaybackEnded, events.AssistantPlaybackCancelled:
		m.speaking = false
		if !m.listening {
			m.status = "ready"
		}
	case events.TurnFailed:
		m.streaming = ""
		m.appendLine("error", fmt.Sprintf("no answer: %v", e.Err))
	case events.TurnCancelled:
		if m.streaming != "" {
			m.appendLine("assistant", m.streaming+" [cancelled]")
			m.streaming = ""
		}
		m.status = "cancelled"
	}
}

func (m *tuiModel) appendLine(speaker, text string) {
	m.lines = append(m.lines, transcriptLine{speaker: speaker, text: text})
	if len(m.lines) > maxTranscriptLines {
		m.lines = m.lines[len(m.lines)-maxTranscriptLines:]
	}
}

func (m *tuiModel) resize() {
	// title, status, interim, input and help each take one line
	height := max(m.height-6, 1)
	if !m.ready {
		m.transcript = viewport.New(m.width, height)
		m.ready = true
	} else {
		m.transcript.Width = m.width
		m.transcript.Height = height
	}
	m.input.Width = max(m.width-4, 10)
	m.refresh()
}

func (m *tuiModel) refresh() {
	if !m.ready {
		return
	}
	m.transcript.SetContent(m.renderTranscript())
	m.transcript.GotoBottom()
}

func (m tuiModel) renderTranscript() string {
	width := max(m.width, 20)

	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(m.renderLine(line, width))
		b.WriteString("\n")
	}
	if m.streaming != "" {
		b.WriteString(m.renderLine(transcriptLine{speaker: "assistant", text: m.streaming}, width))
		b.WriteString("\n")
	}
	return b.String()
}

func (m tuiModel) renderLine(line transcriptLine, width int) string {
	var label string
	switch line.speaker {
	case "you":
		label = m.styles.user.Render("You:")
	case "assistant":
		label = m.styles.assistant.Render("Assistant:")
	default:
		label = m.styles.system.Render("!")
	}
	return wordwrap.String(label+" "+line.text, width)
}

func (m tuiModel) renderLevel() string {
	filled := min(int(m.level*levelBarWidth*4), levelBarWidth)
	style := m.styles.levelOff
	if m.voiceActive {
		style = m.styles.levelOn
	}
	return style.Render(strings.Repeat("█", filled)) + m.styles.levelOff.Render(strings.Repeat("░", levelBarWidth-filled))
}

func (m tuiModel) View() string {
	if !m.ready {
		return "Starting...\n"
	}

	mic := "mic off"
	if m.listening {
		mic = "mic on " + m.renderLevel()
	}
	speaker := ""
	if m.speaking {
		speaker = " | speaking"
	}
	status := m.styles.status.Render(fmt.Sprintf("%s | %s%s", mic, m.status, speaker))

	interim := ""
	if m.interim != "" {
		interim = m.styles.interim.Render(wordwrap.String(m.interim, max(m.width, 20)))
	}

	return strings.Join([]string{
		m.styles.title.Render("voicechat"),
		m.transcript.View(),
		status,
		interim,
		m.input.View(),
		m.styles.help.Render("space talk • enter send • esc cancel • pgup/pgdn scroll • ctrl+c quit"),
	}, "\n")
}
