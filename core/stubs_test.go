package orchestration

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/chat"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

const testTimeout = 2 * time.Second

// stubEngine is a speech engine whose fragments are pushed by the test.
type stubEngine struct {
	mu         sync.Mutex
	onFragment func(TranscriptFragment)
	onError    func(error)
	startErr   error

	starts atomic.Int32
	stops  atomic.Int32
}

func (e *stubEngine) Start(_ context.Context, onFragment func(TranscriptFragment), onError func(error)) error {
	e.starts.Add(1)
	if e.startErr != nil {
		return e.startErr
	}
	e.mu.Lock()
	e.onFragment = onFragment
	e.onError = onError
	e.mu.Unlock()
	return nil
}

func (e *stubEngine) Stop() error {
	e.stops.Add(1)
	return nil
}

// blockingStopEngine is a stubEngine whose Stop signals stopEntered and then
// blocks until release is closed.
type blockingStopEngine struct {
	stubEngine
	stopEntered chan struct{}
	release     chan struct{}
}

func newBlockingStopEngine() *blockingStopEngine {
	return &blockingStopEngine{stopEntered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (e *blockingStopEngine) Stop() error {
	select {
	case e.stopEntered <- struct{}{}:
	default:
	}
	<-e.release
	return e.stubEngine.Stop()
}

func (e *stubEngine) callbacks() (func(TranscriptFragment), func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.onFragment, e.onError
}

func (e *stubEngine) final(text string) {
	onFragment, _ := e.callbacks()
	onFragment(TranscriptFragment{Text: text, IsFinal: true})
}

func (e *stubEngine) interim(text string) {
	onFragment, _ := e.callbacks()
	onFragment(TranscriptFragment{Text: text})
}

func (e *stubEngine) fail(err error) {
	_, onError := e.callbacks()
	onError(err)
}

// stubOutput is a callback-mark audio output. Marks fire playDelay after
// they are set unless the output is manual.
type stubOutput struct {
	mu        sync.Mutex
	log       []string
	marks     map[string]func(string)
	playDelay time.Duration
	manual    bool
	encoding  audio.EncodingInfo

	clears    atomic.Int32
	unlocks   atomic.Int32
	unlockErr error
}

func newStubOutput(playDelay time.Duration) *stubOutput {
	return &stubOutput{
		marks:     map[string]func(string){},
		playDelay: playDelay,
		encoding:  audio.GetDefaultEncodingInfo(),
	}
}

func (o *stubOutput) EncodingInfo() audio.EncodingInfo { return o.encoding }

func (o *stubOutput) SendAudio(audio []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log = append(o.log, "send:"+string(audio))
	return nil
}

func (o *stubOutput) Mark(mark string, callback func(string)) error {
	o.mu.Lock()
	o.marks[mark] = callback
	manual := o.manual
	o.mu.Unlock()

	if !manual {
		go func() {
			time.Sleep(o.playDelay)
			o.play(mark)
		}()
	}
	return nil
}

// play fires mark if it was not cleared in the meantime.
func (o *stubOutput) play(mark string) {
	o.mu.Lock()
	callback, ok := o.marks[mark]
	delete(o.marks, mark)
	if ok {
		o.log = append(o.log, "played")
	}
	o.mu.Unlock()

	if ok {
		callback(mark)
	}
}

func (o *stubOutput) playAll() {
	o.mu.Lock()
	var pending []string
	for mark := range o.marks {
		pending = append(pending, mark)
	}
	o.mu.Unlock()

	for _, mark := range pending {
		o.play(mark)
	}
}

func (o *stubOutput) ClearBuffer() {
	o.clears.Add(1)
	o.mu.Lock()
	o.marks = map[string]func(string){}
	o.log = append(o.log, "clear")
	o.mu.Unlock()
}

func (o *stubOutput) Unlock(context.Context) error {
	o.unlocks.Add(1)
	return o.unlockErr
}

func (o *stubOutput) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.log...)
}

func (o *stubOutput) sent() []string {
	var sent []string
	for _, entry := range o.snapshot() {
		if len(entry) > 5 && entry[:5] == "send:" {
			sent = append(sent, entry[5:])
		}
	}
	return sent
}

// stubSynthesizer speaks text as its own bytes after an optional per-text
// delay.
type stubSynthesizer struct {
	delays map[string]time.Duration
	errs   map[string]error
	calls  atomic.Int32
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, text string, _ ...texttospeech.SynthesisOption) (*texttospeech.Speech, error) {
	s.calls.Add(1)
	if delay := s.delays[text]; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := s.errs[text]; err != nil {
		return nil, err
	}
	return &texttospeech.Speech{Audio: []byte(text)}, nil
}

// stubStream yields its chunks and then err, or blocks until the context is
// done when hang is set.
type stubStream struct {
	chunks []string
	err    error
	hang   bool
}

func (s *stubStream) Chunks(ctx context.Context) func(func(chat.Chunk, error) bool) {
	return func(yield func(chat.Chunk, error) bool) {
		for _, text := range s.chunks {
			if ctx.Err() != nil {
				return
			}
			if !yield(chat.Chunk{Text: text}, nil) {
				return
			}
		}
		if s.err != nil {
			yield(chat.Chunk{}, s.err)
			return
		}
		if s.hang {
			<-ctx.Done()
		}
	}
}

type stubResponder struct {
	mu       sync.Mutex
	messages []string
	sessions []string
	streams  []*stubStream
}

func (r *stubResponder) Respond(message, sessionID string) ResponseStream {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	r.sessions = append(r.sessions, sessionID)
	if len(r.streams) == 0 {
		return &stubStream{}
	}
	stream := r.streams[0]
	r.streams = r.streams[1:]
	return stream
}

func (r *stubResponder) received() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// eventRecorder collects emitted events and lets tests wait for a kind.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
	notify chan struct{}
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{notify: make(chan struct{}, 1)}
}

func (r *eventRecorder) record(event events.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *eventRecorder) count(kind events.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, event := range r.events {
		if event.Kind() == kind {
			count++
		}
	}
	return count
}

func (r *eventRecorder) ofKind(kind events.Kind) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matching []events.Event
	for _, event := range r.events {
		if event.Kind() == kind {
			matching = append(matching, event)
		}
	}
	return matching
}

// waitFor blocks until at least n events of kind were recorded.
func (r *eventRecorder) waitFor(kind events.Kind, n int) bool {
	deadline := time.After(testTimeout)
	for {
		if r.count(kind) >= n {
			return true
		}
		select {
		case <-r.notify:
		case <-time.After(5 * time.Millisecond):
		case <-deadline:
			return false
		}
	}
}

type stubSpeechToText struct {
	mu       sync.Mutex
	options  speechtotext.TranscriptionOptions
	audio    [][]byte
	closes   atomic.Int32
	startErr error
}

func (s *stubSpeechToText) Transcribe(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.mu.Lock()
	s.options = speechtotext.NewTranscriptionOptions(opts...)
	s.mu.Unlock()
	return nil
}

func (s *stubSpeechToText) SendAudio(audio []byte) error {
	s.mu.Lock()
	s.audio = append(s.audio, audio)
	s.mu.Unlock()
	return nil
}

func (s *stubSpeechToText) Close(context.Context) error {
	s.closes.Add(1)
	return nil
}

func (s *stubSpeechToText) transcriptionOptions() speechtotext.TranscriptionOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

type stubAudioInput struct {
	onAudio  func([]byte)
	startErr error
	starts   atomic.Int32
	stops    atomic.Int32
}

func (i *stubAudioInput) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func (i *stubAudioInput) StartCapture(_ context.Context, onAudio func([]byte)) error {
	i.starts.Add(1)
	if i.startErr != nil {
		return i.startErr
	}
	i.onAudio = onAudio
	return nil
}

func (i *stubAudioInput) StopCapture() error {
	i.stops.Add(1)
	return nil
}
