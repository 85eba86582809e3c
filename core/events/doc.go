// Package events defines the typed event contract of a voice conversation.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - user_input.*
//   - assistant_response.*
//   - assistant_speech.*
//   - assistant_playback.*
//   - turn_state.*
//
// Semantics used across the package:
//
//   - Segment: append-only text piece emitted in stream order.
//   - Updated: mutable point-in-time snapshot that replaces the previous one.
//   - Final: terminal immutable text for the current turn phase.
//
// user_input events
//
//   - UserListeningStarted (user_input.listening_started): capture started.
//   - UserListeningStopped (user_input.listening_stopped): capture stopped.
//   - UserSpeechStarted (user_input.speech_started): speech activity began.
//   - UserSpeechEnded (user_input.speech_ended): speech activity ended.
//   - UserInputLevel (user_input.level): smoothed input loudness.
//   - UserTranscriptInterimUpdated (user_input.transcript_interim_updated):
//     mutable interim tail of the transcript.
//   - UserTranscriptSegment (user_input.transcript_segment): finalized,
//     append-only transcript segment.
//   - UserTranscriptFinal (user_input.transcript_final): the utterance that
//     ended the turn.
//   - UserCaptureFailed (user_input.capture_failed): the speech engine failed
//     while listening.
//
// assistant_response events
//
//   - AssistantResponseStarted (assistant_response.started): the chat request
//     was sent.
//   - AssistantResponseSegment (assistant_response.segment): streamed response
//     text chunk.
//   - AssistantResponseFinal (assistant_response.final): the response stream
//     ended, carries the full response text.
//
// assistant_speech events
//
//   - AssistantSpeechSegmentQueued (assistant_speech.segment_queued): a
//     speakable segment was cut and its synthesis requested.
//   - AssistantSpeechUnavailable (assistant_speech.unavailable): synthesis of a
//     segment failed, its audio is skipped.
//
// assistant_playback events
//
//   - AssistantPlaybackStarted (assistant_playback.started): the playback queue
//     became busy.
//   - AssistantPlaybackSegmentStarted (assistant_playback.segment_started):
//     audio of a segment started playing.
//   - AssistantPlaybackSegmentPlayed (assistant_playback.segment_played): audio
//     of a segment finished playing.
//   - AssistantPlaybackEnded (assistant_playback.ended): the playback queue
//     became idle.
//   - AssistantPlaybackCancelled (assistant_playback.cancelled): playback was
//     stopped and the queue discarded.
//
// turn_state events
//
//   - TurnStarted (turn_state.started): a turn started for an utterance.
//   - TurnCompleted (turn_state.completed): the response was streamed and
//     spoken.
//   - TurnFailed (turn_state.failed): the response stream failed.
//   - TurnCancelled (turn_state.cancelled): the turn was cancelled.
package events
