package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-voice/core/speechtotext"
)

const DefaultSilenceTimeout = 2 * time.Second

type TurnState int

const (
	TurnStateIdle TurnState = iota
	TurnStateListening
	TurnStateFinalizing
)

func (s TurnState) String() string {
	switch s {
	case TurnStateIdle:
		return "idle"
	case TurnStateListening:
		return "listening"
	case TurnStateFinalizing:
		return "finalizing"
	}
	return fmt.Sprintf("TurnState(%d)", int(s))
}

type TranscriptFragment = speechtotext.Fragment

// Utterance is the text of one completed user turn.
type Utterance struct {
	Text        string
	FinalizedAt time.Time

	// epoch is the orchestrator cancel epoch the utterance belongs to.
	epoch uint64
}

// SpeechEngine delivers transcript fragments of continuously captured speech.
// Start must not block for the duration of the capture. After Stop returns
// the engine may still deliver fragments that were already in flight.
type SpeechEngine interface {
	Start(ctx context.Context, onFragment func(TranscriptFragment), onError func(error)) error
	Stop() error
}

type turnDetectorCallbacks struct {
	onUtterance    func(Utterance)
	onFragment     func(TranscriptFragment)
	onStateChanged func(TurnState)
	onError        func(error)
	// epoch is sampled when finalization starts and stamped on the utterance.
	epoch func() uint64
}

// turnDetector decides when the user finished speaking.
//
// Every Start opens a new generation, fragments and timer fires of older
// generations are dropped. Every fragment re-arms the silence timer, a timer
// fire is only honoured if no fragment arrived after it was armed.
//
// State changes that are reported go through stateMu, which is held from the
// state write until onStateChanged returns, so listeners observe them in the
// order they happened. onStateChanged must not call back into the detector.
type turnDetector struct {
	engine         SpeechEngine
	silenceTimeout time.Duration
	callbacks      turnDetectorCallbacks

	stateMu sync.Mutex

	mu         sync.Mutex
	state      TurnState
	generation uint64
	timerSeq   uint64
	timer      *time.Timer
	finals     []string
	interim    string
}

func newTurnDetector(engine SpeechEngine, silenceTimeout time.Duration, callbacks turnDetectorCallbacks) *turnDetector {
	if silenceTimeout <= 0 {
		silenceTimeout = DefaultSilenceTimeout
	}
	if callbacks.onUtterance == nil {
		callbacks.onUtterance = func(Utterance) {}
	}
	if callbacks.onFragment == nil {
		callbacks.onFragment = func(TranscriptFragment) {}
	}
	if callbacks.onStateChanged == nil {
		callbacks.onStateChanged = func(TurnState) {}
	}
	if callbacks.onError == nil {
		callbacks.onError = func(error) {}
	}
	if callbacks.epoch == nil {
		callbacks.epoch = func() uint64 { return 0 }
	}

	return &turnDetector{
		engine:         engine,
		silenceTimeout: silenceTimeout,
		callbacks:      callbacks,
	}
}

func (d *turnDetector) State() TurnState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *turnDetector) IsConfigured() bool {
	return d != nil && d.engine != nil
}

// Start begins listening. It is a no-op unless the detector is idle.
func (d *turnDetector) Start(ctx context.Context) error {
	if !d.IsConfigured() {
		return ErrCaptureUnavailable
	}

	d.stateMu.Lock()
	d.mu.Lock()
	if d.state != TurnStateIdle {
		d.mu.Unlock()
		d.stateMu.Unlock()
		return nil
	}
	d.generation++
	generation := d.generation
	d.finals = nil
	d.interim = ""
	d.state = TurnStateListening
	d.armTimerLocked(generation)
	d.mu.Unlock()
	d.callbacks.onStateChanged(TurnStateListening)
	d.stateMu.Unlock()

	err := d.engine.Start(ctx,
		func(fragment TranscriptFragment) { d.handleFragment(generation, fragment) },
		func(err error) { d.handleEngineError(generation, err) },
	)
	if err != nil {
		d.stateMu.Lock()
		d.mu.Lock()
		reverted := d.generation == generation && d.state == TurnStateListening
		if reverted {
			d.generation++
			d.stopTimerLocked()
			d.state = TurnStateIdle
		}
		d.mu.Unlock()
		if reverted {
			d.callbacks.onStateChanged(TurnStateIdle)
		}
		d.stateMu.Unlock()
		return fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
	}
	return nil
}

// Stop ends listening and emits whatever was heard so far.
func (d *turnDetector) Stop() {
	d.finalize(d.currentGeneration(), 0, true)
}

// Abort ends listening and discards whatever was heard so far.
func (d *turnDetector) Abort() {
	d.finalize(d.currentGeneration(), 0, false)
}

// Toggle starts listening when idle and stops it otherwise.
func (d *turnDetector) Toggle(ctx context.Context) error {
	if d.State() == TurnStateIdle {
		return d.Start(ctx)
	}
	d.Stop()
	return nil
}

func (d *turnDetector) currentGeneration() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generation
}

func (d *turnDetector) handleFragment(generation uint64, fragment TranscriptFragment) {
	d.mu.Lock()
	if d.generation != generation || d.state != TurnStateListening {
		d.mu.Unlock()
		return
	}

	text := strings.TrimSpace(fragment.Text)
	if fragment.IsFinal {
		if text != "" {
			d.finals = append(d.finals, text)
		}
		d.interim = ""
	} else {
		d.interim = text
	}
	d.armTimerLocked(generation)
	d.mu.Unlock()

	d.callbacks.onFragment(fragment)
}

func (d *turnDetector) handleEngineError(generation uint64, err error) {
	if d.currentGeneration() != generation {
		logger.Debug("ignoring speech engine error from a finished turn", "error", err)
		return
	}

	d.finalize(generation, 0, true)
	d.callbacks.onError(&CaptureError{Err: err})
}

func (d *turnDetector) armTimerLocked(generation uint64) {
	d.stopTimerLocked()
	d.timerSeq++
	seq := d.timerSeq
	d.timer = time.AfterFunc(d.silenceTimeout, func() { d.handleSilence(generation, seq) })
}

func (d *turnDetector) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *turnDetector) handleSilence(generation, seq uint64) {
	d.finalize(generation, seq, true)
}

// finalize moves a listening detector of the given generation through
// finalizing back to idle. A non-zero timerSeq restricts it to the silence
// timer that is currently armed.
func (d *turnDetector) finalize(generation, timerSeq uint64, emit bool) {
	d.stateMu.Lock()
	d.mu.Lock()
	if d.generation != generation || d.state != TurnStateListening ||
		(timerSeq != 0 && d.timerSeq != timerSeq) {
		d.mu.Unlock()
		d.stateMu.Unlock()
		return
	}
	d.state = TurnStateFinalizing
	text := d.bufferedTextLocked()
	epoch := d.callbacks.epoch()
	d.finals = nil
	d.interim = ""
	d.generation++
	d.stopTimerLocked()
	d.mu.Unlock()
	d.callbacks.onStateChanged(TurnStateFinalizing)
	d.stateMu.Unlock()

	if err := d.engine.Stop(); err != nil {
		logger.Warn("failed to stop speech engine", "error", err)
	}

	if emit && text != "" {
		d.callbacks.onUtterance(Utterance{Text: text, FinalizedAt: time.Now(), epoch: epoch})
	}

	d.stateMu.Lock()
	d.mu.Lock()
	d.state = TurnStateIdle
	d.mu.Unlock()
	d.callbacks.onStateChanged(TurnStateIdle)
	d.stateMu.Unlock()
}

func (d *turnDetector) bufferedTextLocked() string {
	parts := d.finals
	if d.interim != "" {
		parts = append(parts[:len(parts):len(parts)], d.interim)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
