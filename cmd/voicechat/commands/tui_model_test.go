package commands

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-voice/core/events"
)

type stubConversation struct {
	mu        sync.Mutex
	toggles   int
	sent      []string
	cancels   int
	toggleErr error
	canListen bool
}

func (c *stubConversation) ToggleListening(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggles++
	return c.toggleErr
}

func (c *stubConversation) SendText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

func (c *stubConversation) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancels++
}

func (c *stubConversation) CanListen() bool { return c.canListen }

func newTestModel(t *testing.T, conversation *stubConversation) tuiModel {
	t.Helper()
	model := newTUIModel(context.Background(), conversation)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(tuiModel)
}

func update(t *testing.T, model tuiModel, msg tea.Msg) (tuiModel, tea.Cmd) {
	t.Helper()
	updated, cmd := model.Update(msg)
	return updated.(tuiModel), cmd
}

func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestSpaceTogglesListeningWhenInputIsEmpty(t *testing.T) {
	conversation := &stubConversation{canListen: true}
	model := newTestModel(t, conversation)

	model, cmd := update(t, model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if msg := runCmd(cmd); msg != nil {
		t.Fatalf("expected no message after toggle, got %#v", msg)
	}
	if conversation.toggles != 1 {
		t.Fatalf("expected one toggle, got %d", conversation.toggles)
	}
	if model.input.Value() != "" {
		t.Fatalf("expected space not to be typed, got %q", model.input.Value())
	}
}

func TestSpaceIsTypedAfterText(t *testing.T) {
	conversation := &stubConversation{canListen: true}
	model := newTestModel(t, conversation)

	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello")})
	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("there")})

	if conversation.toggles != 0 {
		t.Fatalf("expected no toggle while typing, got %d", conversation.toggles)
	}
	if model.input.Value() != "hello there" {
		t.Fatalf("unexpected input %q", model.input.Value())
	}
}

func TestEnterSendsTypedText(t *testing.T) {
	conversation := &stubConversation{}
	model := newTestModel(t, conversation)

	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("what is the weather")})
	model, cmd := update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(cmd)

	if len(conversation.sent) != 1 || conversation.sent[0] != "what is the weather" {
		t.Fatalf("unexpected sent text %v", conversation.sent)
	}
	if model.input.Value() != "" {
		t.Fatalf("expected input to be cleared, got %q", model.input.Value())
	}

	_, cmd = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(cmd)
	if len(conversation.sent) != 1 {
		t.Fatalf("expected empty input not to be sent, got %v", conversation.sent)
	}
}

func TestEscCancels(t *testing.T) {
	conversation := &stubConversation{}
	model := newTestModel(t, conversation)

	update(t, model, tea.KeyMsg{Type: tea.KeyEsc})

	if conversation.cancels != 1 {
		t.Fatalf("expected one cancel, got %d", conversation.cancels)
	}
}

func TestCtrlCQuits(t *testing.T) {
	model := newTestModel(t, &stubConversation{})

	_, cmd := update(t, model, tea.KeyMsg{Type: tea.KeyCtrlC})
	if _, ok := runCmd(cmd).(tea.QuitMsg); !ok {
		t.Fatalf("expected ctrl+c to quit")
	}
}

func TestToggleErrorIsShown(t *testing.T) {
	conversation := &stubConversation{toggleErr: errors.New("speech capture is not configured")}
	model := newTestModel(t, conversation)

	model, cmd := update(t, model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	model, _ = update(t, model, runCmd(cmd))

	if model.status != "speech capture is not configured" {
		t.Fatalf("expected error in status, got %q", model.status)
	}
}

func TestEventsBuildTranscript(t *testing.T) {
	model := newTestModel(t, &stubConversation{canListen: true})

	for _, event := range []events.Event{
		events.NewUserListeningStarted(),
		events.NewUserInputLevel(0.4, true),
		events.NewUserTranscriptInterimUpdated("what is"),
		events.NewUserListeningStopped(),
		events.NewUserTranscriptFinal("what is the weather"),
		events.NewAssistantResponseStarted("turn-1"),
		events.NewAssistantResponseSegment("turn-1", "It is "),
		events.NewAssistantResponseSegment("turn-1", "sunny."),
	} {
		model, _ = update(t, model, eventMsg{event: event})
	}

	if model.listening || model.interim != "" {
		t.Fatalf("expected listening to end, got listening=%v interim=%q", model.listening, model.interim)
	}
	if model.streaming != "It is sunny." {
		t.Fatalf("unexpected streaming text %q", model.streaming)
	}
	if !strings.Contains(model.renderTranscript(), "It is sunny.") {
		t.Fatalf("expected streaming text to be rendered")
	}

	model, _ = update(t, model, eventMsg{event: events.NewAssistantResponseFinal("turn-1", "It is sunny.")})
	if len(model.lines) != 2 || model.lines[0].speaker != "you" || model.lines[1].text != "It is sunny." {
		t.Fatalf("unexpected transcript %+v", model.lines)
	}
	if model.streaming != "" {
		t.Fatalf("expected streaming text to be cleared, got %q", model.streaming)
	}
}

func TestCancelledTurnKeepsPartialAnswer(t *testing.T) {
	model := newTestModel(t, &stubConversation{})

	model, _ = update(t, model, eventMsg{event: events.NewAssistantResponseStarted("turn-1")})
	model, _ = update(t, model, eventMsg{event: events.NewAssistantResponseSegment("turn-1", "Let me")})
	model, _ = update(t, model, eventMsg{event: events.NewTurnCancelled("turn-1")})

	if len(model.lines) != 1 || model.lines[0].text != "Let me [cancelled]" {
		t.Fatalf("unexpected transcript %+v", model.lines)
	}
	if model.status != "cancelled" {
		t.Fatalf("unexpected status %q", model.status)
	}
}

func TestPlaybackEventsTrackSpeaking(t *testing.T) {
	model := newTestModel(t, &stubConversation{})

	model, _ = update(t, model, eventMsg{event: events.NewAssistantPlaybackStarted()})
	if !model.speaking {
		t.Fatalf("expected speaking after playback started")
	}
	model, _ = update(t, model, eventMsg{event: events.NewAssistantPlaybackCancelled()})
	if model.speaking {
		t.Fatalf("expected speaking to stop after cancellation")
	}
}

func TestTranscriptIsBounded(t *testing.T) {
	model := newTestModel(t, &stubConversation{})

	for range maxTranscriptLines + 5 {
		model, _ = update(t, model, eventMsg{event: events.NewUserTranscriptFinal("hello")})
	}
	if len(model.lines) != maxTranscriptLines {
		t.Fatalf("expected %d lines, got %d", maxTranscriptLines, len(model.lines))
	}
}

func TestUnavailableRecognitionIsReported(t *testing.T) {
	model := newTUIModel(context.Background(), &stubConversation{canListen: false})

	if !strings.Contains(model.status, "unavailable") {
		t.Fatalf("expected unavailable recognition in status, got %q", model.status)
	}
}
