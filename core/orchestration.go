package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/chat"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const turnQueueCapacity = 10

// Orchestrator runs a voice conversation: utterances from the turn detector
// or typed text are sent to the chat service one turn at a time, the
// streamed answer is reported as text and spoken segment by segment.
type Orchestrator struct {
	settings  Settings
	sessionID string

	speechToText     SpeechToText
	audioInput       AudioInput
	speechEngine     SpeechEngine
	audioOutput      *audioOutput
	synthesizer      texttospeech.Synthesizer
	synthesisOptions []texttospeech.SynthesisOption
	responder        Responder

	detector   *turnDetector
	playback   *playbackQueue
	segmentIDs atomic.Int64

	emitMu    sync.RWMutex
	emitEvent eventEmitter

	utterances chan Utterance
	turnMu     sync.Mutex
	activeTurn *activeTurn

	// cancelEpoch is bumped by every Cancel, utterances from an older epoch
	// never start a turn.
	cancelEpoch atomic.Uint64

	unlocked atomic.Bool

	lifecycleMu sync.Mutex
	started     bool
	closed      atomic.Bool
	closeOnce   sync.Once
	stopOnDone  func() bool
	stopWorker  context.CancelFunc
	workerDone  chan struct{}
}

type activeTurn struct {
	id     string
	cancel context.CancelFunc
	// muted stops new segments of the turn from being spoken, the text keeps
	// streaming.
	muted atomic.Bool
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		settings:    DefaultSettings(),
		sessionID:   uuid.NewString(),
		audioOutput: newAudioOutput(nil),
		emitEvent:   noopEventEmitter,
		utterances:  make(chan Utterance, turnQueueCapacity),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.speechEngine == nil && o.speechToText != nil {
		o.speechEngine = newSpeechEngine(
			o.audioInput,
			o.speechToText,
			o.settings.Language,
			audio.NewLevelMeter(o.settings.LevelSmoothing, o.settings.VoiceThreshold),
			o.emit,
		)
	}

	o.playback = newPlaybackQueue(o.audioOutput, o.emit)
	o.detector = newTurnDetector(o.speechEngine, o.settings.SilenceTimeout, turnDetectorCallbacks{
		onUtterance:    o.handleUtterance,
		onFragment:     o.handleFragment,
		onStateChanged: o.handleTurnStateChanged,
		onError:        func(err error) { o.emit(events.NewUserCaptureFailed(err)) },
		epoch:          o.cancelEpoch.Load,
	})

	return o
}

// Orchestrate starts processing turns and registers the callbacks. The
// orchestrator is closed when ctx is done.
//
// Orchestrate can be called once per orchestrator, later calls are ignored.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()

	if o.closed.Load() {
		logger.Warn("orchestrator already closed, skipping Orchestrate")
		return
	}
	if o.started {
		logger.Warn("orchestrator already running, skipping Orchestrate")
		return
	}
	o.started = true

	options := OrchestrateOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	o.emitMu.Lock()
	o.emitEvent = newCallbackEventEmitter(options)
	o.emitMu.Unlock()

	workerCtx, stopWorker := context.WithCancel(ctx)
	o.stopWorker = stopWorker
	o.workerDone = make(chan struct{})
	go o.processTurns(workerCtx)

	o.stopOnDone = context.AfterFunc(ctx, o.Close)
}

// Close stops listening, cancels the running turn and playback, and waits
// for the turn worker to exit.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.closed.Store(true)

		o.detector.Abort()
		o.cancelActiveTurn()

		o.lifecycleMu.Lock()
		stopWorker, workerDone, stopOnDone := o.stopWorker, o.workerDone, o.stopOnDone
		o.lifecycleMu.Unlock()
		if stopOnDone != nil {
			stopOnDone()
		}
		if stopWorker != nil {
			stopWorker()
			<-workerDone
		}

		o.playback.Cancel()
	})
}

func (o *Orchestrator) SessionID() string    { return o.sessionID }
func (o *Orchestrator) TurnState() TurnState { return o.detector.State() }
func (o *Orchestrator) IsListening() bool    { return o.detector.State() != TurnStateIdle }
func (o *Orchestrator) IsSpeaking() bool     { return o.playback.IsSpeaking() }
func (o *Orchestrator) CanListen() bool      { return o.detector.IsConfigured() }
func (o *Orchestrator) PendingTurns() int    { return len(o.utterances) }
func (o *Orchestrator) StopListening()       { o.detector.Stop() }

func (o *Orchestrator) emit(event events.Event) {
	o.emitMu.RLock()
	emitEvent := o.emitEvent
	o.emitMu.RUnlock()
	emitEvent(event)
}

// StartListening unlocks audio output if needed and starts capturing a new
// user turn. Starting while already listening is a no-op.
func (o *Orchestrator) StartListening(ctx context.Context) error {
	if o.closed.Load() {
		return ErrClosed
	}
	if !o.detector.IsConfigured() {
		return ErrCaptureUnavailable
	}

	o.unlockAudio(ctx)
	return o.detector.Start(ctx)
}

// ToggleListening starts listening when idle, otherwise it ends the turn and
// sends what was heard.
func (o *Orchestrator) ToggleListening(ctx context.Context) error {
	if o.detector.State() == TurnStateIdle {
		return o.StartListening(ctx)
	}
	o.StopListening()
	return nil
}

// SendText submits typed text as a user utterance.
func (o *Orchestrator) SendText(ctx context.Context, text string) error {
	if o.closed.Load() {
		return ErrClosed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	o.unlockAudio(ctx)
	o.emit(events.NewUserTranscriptFinal(text))
	return o.submit(Utterance{Text: text, FinalizedAt: time.Now(), epoch: o.cancelEpoch.Load()})
}

// Cancel stops everything now: listening is aborted without sending, queued
// utterances are dropped, the running response stream is abandoned and
// playback is cleared.
func (o *Orchestrator) Cancel() {
	o.detector.Abort()
	// A finalization that was already past the listening state carries the
	// old epoch and is dropped from here on.
	turnID := o.cancelActiveTurn()

	dropped := 0
	for drained := false; !drained; {
		select {
		case <-o.utterances:
			dropped++
		default:
			drained = true
		}
	}
	if dropped > 0 {
		logger.Debug("dropped queued utterances", "count", dropped)
	}

	hadPlayback := o.playback.Cancel()
	if turnID != "" || dropped > 0 || hadPlayback {
		o.emit(events.NewTurnCancelled(turnID))
	}
}

// cancelActiveTurn starts a new cancel epoch and cancels the running turn.
func (o *Orchestrator) cancelActiveTurn() string {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()
	o.cancelEpoch.Add(1)
	if o.activeTurn == nil {
		return ""
	}
	o.activeTurn.cancel()
	return o.activeTurn.id
}

func (o *Orchestrator) unlockAudio(ctx context.Context) {
	if o.unlocked.Load() {
		return
	}
	if err := o.audioOutput.Unlock(ctx); err != nil {
		logger.Warn("failed to unlock audio output", "error", err)
		return
	}
	o.unlocked.Store(true)
}

func (o *Orchestrator) submit(utterance Utterance) error {
	if o.closed.Load() {
		return ErrClosed
	}
	if o.isStale(utterance) {
		logger.Debug("dropping utterance finalized before cancel")
		return nil
	}

	select {
	case o.utterances <- utterance:
		return nil
	default:
		logger.Warn("turn queue is full, dropping utterance", "capacity", turnQueueCapacity)
		return ErrTurnQueueFull
	}
}

func (o *Orchestrator) isStale(utterance Utterance) bool {
	return utterance.epoch != o.cancelEpoch.Load()
}

func (o *Orchestrator) handleUtterance(utterance Utterance) {
	if o.isStale(utterance) {
		logger.Debug("dropping utterance finalized before cancel")
		return
	}
	o.emit(events.NewUserTranscriptFinal(utterance.Text))
	if err := o.submit(utterance); err != nil {
		logger.Warn("failed to submit utterance", "error", err)
	}
}

func (o *Orchestrator) handleFragment(fragment TranscriptFragment) {
	text := strings.TrimSpace(fragment.Text)
	if !fragment.IsFinal {
		o.emit(events.NewUserTranscriptInterimUpdated(text))
		return
	}

	o.emit(events.NewUserTranscriptInterimUpdated(""))
	if text != "" {
		o.emit(events.NewUserTranscriptSegment(text))
	}
}

func (o *Orchestrator) handleTurnStateChanged(state TurnState) {
	switch state {
	case TurnStateListening:
		// A new user turn silences whatever is still being said.
		o.turnMu.Lock()
		if o.activeTurn != nil {
			o.activeTurn.muted.Store(true)
		}
		o.turnMu.Unlock()
		o.playback.Cancel()
		o.emit(events.NewUserListeningStarted())
	case TurnStateIdle:
		o.emit(events.NewUserListeningStopped())
	}
}

func (o *Orchestrator) processTurns(ctx context.Context) {
	defer close(o.workerDone)

	for {
		select {
		case <-ctx.Done():
			return
		case utterance := <-o.utterances:
			run := panicSafeNamedWorker("turn", func(ctx context.Context) error {
				o.runTurn(ctx, utterance)
				return nil
			})
			if err := run(ctx); err != nil {
				logger.Error("turn aborted", "error", err)
				o.playback.Cancel()
			}
		}
	}
}

func (o *Orchestrator) runTurn(ctx context.Context, utterance Utterance) {
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	turn := &activeTurn{id: uuid.NewString(), cancel: cancel}
	o.turnMu.Lock()
	if o.isStale(utterance) {
		o.turnMu.Unlock()
		logger.Debug("skipping turn queued before cancel")
		return
	}
	o.activeTurn = turn
	o.turnMu.Unlock()
	defer func() {
		o.turnMu.Lock()
		if o.activeTurn == turn {
			o.activeTurn = nil
		}
		o.turnMu.Unlock()
	}()

	turnCtx, span := tracer.Start(turnCtx, "turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("turn.id", turn.id),
		attribute.String("session.id", o.sessionID),
		attribute.Float64("turn.queue_time", time.Since(utterance.FinalizedAt).Seconds()),
	)

	o.emit(events.NewTurnStarted(turn.id, utterance.Text))

	speech := newSpeechSegmenter(o, turn)
	response, err := o.streamResponse(turnCtx, turn, utterance, speech)
	if turnCtx.Err() != nil {
		span.AddEvent("turn cancelled")
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.playback.Cancel()
		o.emit(events.NewTurnFailed(turn.id, err))
		return
	}

	if !turn.muted.Load() {
		speech.Flush(turnCtx)
	}
	o.emit(events.NewAssistantResponseFinal(turn.id, response))

	if err := speech.Wait(turnCtx); err != nil {
		span.AddEvent("turn cancelled while speaking")
		return
	}
	o.emit(events.NewTurnCompleted(turn.id))
}

func (o *Orchestrator) streamResponse(ctx context.Context, turn *activeTurn, utterance Utterance, speech *speechSegmenter) (string, error) {
	if o.responder == nil {
		return "", fmt.Errorf("%w: no chat client configured", chat.ErrStreamFailed)
	}

	o.emit(events.NewAssistantResponseStarted(turn.id))

	var response strings.Builder
	for chunk, err := range o.responder.Respond(utterance.Text, o.sessionID).Chunks(ctx) {
		if err != nil {
			if !errors.Is(err, chat.ErrStreamFailed) {
				err = fmt.Errorf("%w: %w", chat.ErrStreamFailed, err)
			}
			return response.String(), err
		}
		if ctx.Err() != nil {
			break
		}

		response.WriteString(chunk.Text)
		o.emit(events.NewAssistantResponseSegment(turn.id, chunk.Text))
		if !turn.muted.Load() {
			speech.Add(ctx, chunk.Text)
		}
	}
	return response.String(), nil
}
