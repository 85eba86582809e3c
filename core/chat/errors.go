package chat

import "errors"

var (
	// ErrStreamFailed is reported when the response stream cannot be opened
	// or breaks while it is being read.
	ErrStreamFailed = errors.New("chat stream failed")
	// ErrMalformedFrame marks a response line that could not be decoded into
	// a chunk. Malformed frames are skipped and never end a stream.
	ErrMalformedFrame = errors.New("malformed chat frame")
	// ErrStreamConsumed is reported when the chunks of a stream are requested
	// a second time.
	ErrStreamConsumed = errors.New("chat stream already consumed")
)
