package orchestration

import (
	"context"
	"reflect"

	"github.com/koscakluka/ema-voice/core/audio"
)

// audioOutput normalizes blocking-mark (v0) and callback-mark (v1) output
// clients behind one facade used by the playback queue.
//
// Capabilities are resolved once in Set so the playback path does not repeat
// type assertions per segment.
type audioOutput struct {
	// base stores the configured output client regardless of protocol version.
	base audioOutputBase
	// v0 is set when the output client supports the blocking mark-wait API.
	v0 AudioOutputV0
	// v1 is set when the output client supports callback-based mark handling.
	v1 AudioOutputV1
	// unlocker is set when the output needs an explicit start before it can
	// play.
	unlocker AudioUnlocker
}

func newAudioOutput(client audioOutputBase) *audioOutput {
	audioOutput := audioOutput{}
	audioOutput.Set(client)
	return &audioOutput
}

// Set replaces the configured output client. Nil and typed-nil clients are
// treated as unconfigured.
func (a *audioOutput) Set(client audioOutputBase) {
	if a == nil {
		return
	}

	a.base = nil
	a.v0 = nil
	a.v1 = nil
	a.unlocker = nil

	if isNilAudioOutputBase(client) {
		return
	}
	a.base = client

	if unlocker, ok := client.(AudioUnlocker); ok {
		a.unlocker = unlocker
	}

	if v1, ok := client.(AudioOutputV1); ok {
		a.v1 = v1
		return
	}

	if v0, ok := client.(AudioOutputV0); ok {
		a.v0 = v0
	}
}

func (a *audioOutput) isConfigured() bool {
	if a == nil {
		return false
	}

	return a.v0 != nil || a.v1 != nil
}

// Unlock prepares the output for its first playback. Outputs that do not
// need it are always unlocked.
func (a *audioOutput) Unlock(ctx context.Context) error {
	if a == nil || a.unlocker == nil {
		return nil
	}
	return a.unlocker.Unlock(ctx)
}

// SendAudio forwards audio to the configured output client. Without a usable
// client the audio is dropped.
func (a *audioOutput) SendAudio(audio []byte) error {
	if a.v1 != nil {
		return a.v1.SendAudio(audio)
	} else if a.v0 != nil {
		return a.v0.SendAudio(audio)
	}
	return nil
}

// Mark calls callback once all audio sent before it has been played.
//
// For v0 clients AwaitMark is bridged to the callback on a separate
// goroutine. Without output configured, the callback is invoked immediately.
func (a *audioOutput) Mark(mark string, callback func(string)) {
	if a.v1 != nil {
		if err := a.v1.Mark(mark, callback); err != nil {
			logger.Warn("failed to mark audio output", "mark", mark, "error", err)
			callback(mark)
		}
	} else if a.v0 != nil {
		go func() {
			if err := a.v0.AwaitMark(); err != nil {
				logger.Warn("failed to await audio output mark", "mark", mark, "error", err)
			}
			callback(mark)
		}()
	} else {
		callback(mark)
	}
}

// Clear drops buffered audio. Pending v1 marks are dropped with it.
func (a *audioOutput) Clear() {
	if a.v1 != nil {
		a.v1.ClearBuffer()
	} else if a.v0 != nil {
		a.v0.ClearBuffer()
	}
}

// EncodingInfo returns the output encoding, or the zero value when no output
// is configured so audio is passed through unchanged.
func (a *audioOutput) EncodingInfo() audio.EncodingInfo {
	if a.v1 != nil {
		return a.v1.EncodingInfo()
	}
	if a.v0 != nil {
		return a.v0.EncodingInfo()
	}

	return audio.EncodingInfo{}
}

func isNilAudioOutputBase(client audioOutputBase) bool {
	if client == nil {
		return true
	}

	v := reflect.ValueOf(client)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
