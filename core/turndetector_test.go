package orchestration

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

type detectorRecorder struct {
	mu         sync.Mutex
	utterances chan Utterance
	states     []TurnState
	errs       []error
	// statesAtUtterance holds the detector state seen from inside onUtterance.
	statesAtUtterance []TurnState
}

func newDetectorRecorder() *detectorRecorder {
	return &detectorRecorder{utterances: make(chan Utterance, 10)}
}

func (r *detectorRecorder) detector(engine SpeechEngine, silenceTimeout time.Duration) *turnDetector {
	var detector *turnDetector
	detector = newTurnDetector(engine, silenceTimeout, turnDetectorCallbacks{
		onUtterance: func(utterance Utterance) {
			r.mu.Lock()
			r.statesAtUtterance = append(r.statesAtUtterance, detector.State())
			r.mu.Unlock()
			r.utterances <- utterance
		},
		onStateChanged: func(state TurnState) {
			r.mu.Lock()
			r.states = append(r.states, state)
			r.mu.Unlock()
		},
		onError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
	})
	return detector
}

func (r *detectorRecorder) awaitUtterance(t *testing.T) Utterance {
	t.Helper()
	select {
	case utterance := <-r.utterances:
		return utterance
	case <-time.After(testTimeout):
		t.Fatalf("expected an utterance")
		return Utterance{}
	}
}

func (r *detectorRecorder) expectNoUtterance(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case utterance := <-r.utterances:
		t.Fatalf("expected no utterance, got %q", utterance.Text)
	case <-time.After(wait):
	}
}

func TestTurnDetectorEmitsUtteranceAfterSilence(t *testing.T) {
	engine := &stubEngine{}
	recorder := newDetectorRecorder()
	detector := recorder.detector(engine, 30*time.Millisecond)

	if err := detector.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if got := detector.State(); got != TurnStateListening {
		t.Fatalf("expected listening state, got %s", got)
	}

	engine.final("What is")
	engine.final(" the weather ")

	utterance := recorder.awaitUtterance(t)
	if utterance.Text != "What is the weather" {
		t.Fatalf("expected joined transcript, got %q", utterance.Text)
	}
	if utterance.FinalizedAt.IsZero() {
		t.Fatalf("expected finalization time to be set")
	}
	if got := engine.stops.Load(); got != 1 {
		t.Fatalf("expected engine to be stopped once, got %d", got)
	}
	recorder.expectNoUtterance(t, 60*time.Millisecond)
	if got := detector.State(); got != TurnStateIdle {
		t.Fatalf("expected idle state, got %s", got)
	}
}

func TestTurnDetectorEmitsNothingForEmptyTranscript(t *testing.T) {
	engine := &stubEngine{}
	recorder := newDetectorRecorder()
	detector := recorder.detector(engine, 20*time.Millisecond)

	if err := detector.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	engine.interim("   ")
	engine.final("")

	recorder.expectNoUtterance(t, 100*time.Millisecond)
	if got := detector.State(); got != TurnStateIdle {
		t.Fatalf("expected silence to return detector to idle, got %s", got)
	}
	if got := engine.stops.Load(); got != 1 {
		t.Fatalf("expected engine to be stopped once, got %d", got)
	}
}

func TestTurnDetectorDebouncesSilenceTimer(t *testing.T) {
	engine := &stubEngine{}
	recorder := newDetectorRecorder()
	detector := recorder.detector(engine, 80*time.Millisecond)

	if err := detector.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	for range 6 {
		engine.interim("still talking")
		time.Sleep(15 * time.Millisecond)
	}
	if got := detector.State(); got != TurnStateListening {
		t.Fatalf("expected fragments to keep detector listening, got %s", got)
	}

	engine.final("still talking")
	if utterance := recorder.awaitUtterance(t); utterance.Text != "still talking" {
		t.Fatalf("unexpected utterance %q", utterance.Text)
	}
	recorder.expectNoUtterance(t, 100*time.Millisecond)
}

func TestTurnDetectorStopIncludesInterimText(t *testing.T) {
	engine := &stubEngine{}
	recorder := newDetectorRecorder()
	detector := recorder.detector(engine, time.Minute)

	if err := detector.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	engine.final("hello")
	engine.interim("wor")
	engine.interim("world")
	detector.Stop()

	if utterance := recorder.awaitUtterance(t); utterance.Text != "hello world" {
		t.Fatalf("expected final and interim text, got %q", utterance.Text)
	}
}

func TestTurnDetectorNeverEmitsWhileListening(t *testing.T) {
	engine := &stubEngine{}
	recorder := newDetectorRecorder()
	detector := recorder.detector(engine, 20*time.Millisecond)

	for _, text := range []string{"one", "two"} {
		if err := detector.Start(context.Background()); err != nil {
			t.Fatalf("unexpected start error: %v", err)
		}
		engine.final(text)
		recorder.awaitUtterance(t)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	for _, state := range recorder.statesAtUtterance {
		if state != TurnStateFinalizing {
			t.Fatalf("expected utterances to be emitted while finalizing, got %s", state)
		}
	}
	want := []TurnState{
		TurnStateListening, TurnStateFinalizing, TurnStateIdle,
		TurnStateListening, TurnStateFinalizing, TurnStateIdle,
	}
	if len(recorder.states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, recorder.states)
	}
	for i := range want {
		if recorder.states[i] != want[i] {
			t.Fatalf("expected states %v, got %v", want, recorder.states)
		}
	}
}

func TestTurnDetectorStartWhileListeningIsNoop(t *testing.T) {
	engine := &stubEngine{}
	detector := newDetectorRecorder().detector(engine, time.Minute)

	for range 3 {
		if err := detector.Start(context.Background()); err != nil {
			t.Fatalf("unexpected start error: %v", err)
		}
	}
	if got := engine.starts.Load(); got != 1 {
		t.Fatalf("expected one engine start, got %d", got)
	}
	detector.Abort()
}

func TestTurnDetectorAbortDiscardsTranscript(t *testing.T) {
	engine := &stubEngine{}
	recorder := newDetectorRecorder()
	detector := recorder.detector(engine, 30*time.Millisecond)

	if err := detector.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	engine.final("never mind")
	detector.Abort()

	recorder.expectNoUtterance(t, 80*time.Millisecond)
	if got := detector.State(); got != TurnStateIdle {
		t.Fatalf("expected idle state, got %s", got)
	}
}

func TestTurnDetectorIgnoresFragmentsFromEarlierTurns(t *testing.T) {
	engine := &stubEngine{}
	recorder := newDetectorRecorder()
	detector := recorder.detector(engine, time.Minute)

	if err := detector.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	staleFragment, staleError := engine.callbacks()
	detector.Abort()

	if err := detector.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	staleFragment(TranscriptFragment{Text: "late", IsFinal: true})
	staleError(errors.New("late failure"))
	engine.final("fresh")
	detector.Stop()

	if utterance := recorder.awaitUtterance(t); utterance.Text != "fresh" {
		t.Fatalf("expected only the current turn transcript, got %q", utterance.Text)
	}
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.errs) != 0 {
		t.Fatalf("expected stale engine error to be ignored, got %v", recorder.errs)
	}
}

func TestTurnDetectorEngineErrorEndsTurn(t *testing.T) {
	engine := &stubEngine{}
	recorder := newDetectorRecorder()
	detector := recorder.detector(engine, time.Minute)

	if err := detector.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	engine.final("partial words")
	engineErr := errors.New("socket closed")
	engine.fail(engineErr)

	if utterance := recorder.awaitUtterance(t); utterance.Text != "partial words" {
		t.Fatalf("expected buffered text to be emitted, got %q", utterance.Text)
	}
	if got := detector.State(); got != TurnStateIdle {
		t.Fatalf("expected idle state after engine error, got %s", got)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.errs) != 1 {
		t.Fatalf("expected one error, got %d", len(recorder.errs))
	}
	var captureErr *CaptureError
	if !errors.As(recorder.errs[0], &captureErr) {
		t.Fatalf("expected CaptureError, got %T", recorder.errs[0])
	}
	if !errors.Is(recorder.errs[0], engineErr) {
		t.Fatalf("expected engine error to be wrapped, got %v", recorder.errs[0])
	}
}

func TestTurnDetectorWithoutEngineIsUnavailable(t *testing.T) {
	detector := newTurnDetector(nil, 0, turnDetectorCallbacks{})

	if detector.IsConfigured() {
		t.Fatalf("expected detector without engine to be unconfigured")
	}
	if err := detector.Start(context.Background()); !errors.Is(err, ErrCaptureUnavailable) {
		t.Fatalf("expected ErrCaptureUnavailable, got %v", err)
	}
	if got := detector.State(); got != TurnStateIdle {
		t.Fatalf("expected idle state, got %s", got)
	}
}

func TestTurnDetectorEngineStartFailureReturnsToIdle(t *testing.T) {
	startErr := errors.New("no microphone")
	engine := &stubEngine{startErr: startErr}
	recorder := newDetectorRecorder()
	detector := recorder.detector(engine, 20*time.Millisecond)

	err := detector.Start(context.Background())
	if !errors.Is(err, ErrCaptureUnavailable) || !errors.Is(err, startErr) {
		t.Fatalf("expected wrapped start failure, got %v", err)
	}
	if got := detector.State(); got != TurnStateIdle {
		t.Fatalf("expected idle state, got %s", got)
	}
	recorder.expectNoUtterance(t, 60*time.Millisecond)
	if got := engine.stops.Load(); got != 0 {
		t.Fatalf("expected silence timer not to stop the failed engine, got %d stops", got)
	}
}

func TestTurnDetectorToggle(t *testing.T) {
	engine := &stubEngine{}
	recorder := newDetectorRecorder()
	detector := recorder.detector(engine, time.Minute)

	if err := detector.Toggle(context.Background()); err != nil {
		t.Fatalf("unexpected toggle error: %v", err)
	}
	if got := detector.State(); got != TurnStateListening {
		t.Fatalf("expected listening after first toggle, got %s", got)
	}
	engine.final("toggled")
	if err := detector.Toggle(context.Background()); err != nil {
		t.Fatalf("unexpected toggle error: %v", err)
	}
	if utterance := recorder.awaitUtterance(t); utterance.Text != "toggled" {
		t.Fatalf("unexpected utterance %q", utterance.Text)
	}
	if got := detector.State(); got != TurnStateIdle {
		t.Fatalf("expected idle after second toggle, got %s", got)
	}
}

func TestTurnStateString(t *testing.T) {
	if got := TurnStateFinalizing.String(); got != "finalizing" {
		t.Fatalf("unexpected state name %q", got)
	}
	if got := TurnState(9).String(); got != "TurnState(9)" {
		t.Fatalf("unexpected unknown state name %q", got)
	}
}

func TestTurnDetectorReportsStatesInOrder(t *testing.T) {
	engine := &stubEngine{}
	idleEntered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var states []TurnState
	detector := newTurnDetector(engine, time.Minute, turnDetectorCallbacks{
		onStateChanged: func(state TurnState) {
			if state == TurnStateIdle {
				mu.Lock()
				first := !slices.Contains(states, TurnStateIdle)
				mu.Unlock()
				if first {
					close(idleEntered)
					<-release
				}
			}
			mu.Lock()
			states = append(states, state)
			mu.Unlock()
		},
	})

	if err := detector.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	stopped := make(chan struct{})
	go func() {
		detector.Stop()
		close(stopped)
	}()
	select {
	case <-idleEntered:
	case <-time.After(testTimeout):
		t.Fatalf("expected detector to report idle")
	}

	restarted := make(chan error, 1)
	go func() { restarted <- detector.Start(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	close(release)

	<-stopped
	select {
	case err := <-restarted:
		if err != nil {
			t.Fatalf("unexpected restart error: %v", err)
		}
	case <-time.After(testTimeout):
		t.Fatalf("expected restart to return")
	}

	defer detector.Abort()
	mu.Lock()
	defer mu.Unlock()
	want := []TurnState{TurnStateListening, TurnStateFinalizing, TurnStateIdle, TurnStateListening}
	if len(states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("expected states %v, got %v", want, states)
		}
	}
	if got := detector.State(); got != states[len(states)-1] {
		t.Fatalf("expected last reported state %v to match detector state %v", states[len(states)-1], got)
	}
}
