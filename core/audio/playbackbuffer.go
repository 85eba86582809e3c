package audio

import "sync"

// PlaybackBuffer queues audio for a device callback and tracks named marks
// placed between writes.
//
// A mark fires once every byte written before it has been handed to the
// device. Callbacks run on their own goroutine, in mark order, so the device
// callback never blocks on them.
type PlaybackBuffer struct {
	mu      sync.Mutex
	pending []byte
	marks   []playbackMark
	silence byte
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func NewPlaybackBuffer(encodingInfo EncodingInfo) *PlaybackBuffer {
	return &PlaybackBuffer{silence: encodingInfo.SilenceValue()}
}

func (b *PlaybackBuffer) Write(audio []byte) {
	b.mu.Lock()
	b.pending = append(b.pending, audio...)
	b.mu.Unlock()
}

func (b *PlaybackBuffer) Mark(name string, callback func(string)) {
	b.mu.Lock()
	b.marks = append(b.marks, playbackMark{name: name, position: len(b.pending), callback: callback})
	b.mu.Unlock()
}

// Clear drops buffered audio together with its marks. Dropped marks never
// fire.
func (b *PlaybackBuffer) Clear() {
	b.mu.Lock()
	b.pending = nil
	b.marks = nil
	b.mu.Unlock()
}

func (b *PlaybackBuffer) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Fill copies the next len(out) bytes of audio into out and pads the rest
// with silence. It returns how many bytes of real audio were copied.
func (b *PlaybackBuffer) Fill(out []byte) int {
	b.mu.Lock()
	n := copy(out, b.pending)
	b.pending = b.pending[n:]
	if len(b.pending) == 0 {
		b.pending = nil
	}

	passed := 0
	for i := range b.marks {
		b.marks[i].position -= n
		if b.marks[i].position <= 0 {
			passed = i + 1
		}
	}
	var reached []playbackMark
	if passed > 0 {
		reached = b.marks[:passed:passed]
		b.marks = b.marks[passed:]
	}
	b.mu.Unlock()

	for i := n; i < len(out); i++ {
		out[i] = b.silence
	}

	if len(reached) > 0 {
		go func() {
			for _, mark := range reached {
				mark.callback(mark.name)
			}
		}()
	}
	return n
}
