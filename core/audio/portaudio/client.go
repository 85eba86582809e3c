package portaudio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-voice/core/audio"
)

const defaultFramesPerBuffer = 320

// Client runs one full duplex PortAudio stream: the input side feeds the
// capture callback, the output side drains the playback buffer. The stream
// is started by Unlock or by the first capture.
type Client struct {
	encodingInfo    audio.EncodingInfo
	framesPerBuffer int

	stream   *portaudio.Stream
	playback *audio.PlaybackBuffer
	onAudio  atomic.Pointer[func(audio []byte)]
	scratch  []byte

	mu      sync.Mutex
	started bool
}

type ClientOption func(*Client)

func WithSampleRate(sampleRate int) ClientOption {
	return func(c *Client) {
		if sampleRate > 0 {
			c.encodingInfo.SampleRate = sampleRate
		}
	}
}

func WithFramesPerBuffer(frames int) ClientOption {
	return func(c *Client) {
		if frames > 0 {
			c.framesPerBuffer = frames
		}
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		encodingInfo:    audio.GetDefaultEncodingInfo(),
		framesPerBuffer: defaultFramesPerBuffer,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.playback = audio.NewPlaybackBuffer(client.encodingInfo)
	client.scratch = make([]byte, client.framesPerBuffer*2)

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 1, float64(client.encodingInfo.SampleRate), client.framesPerBuffer, client.process)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	client.stream = stream

	return client, nil
}

func (c *Client) process(in, out []int16) {
	if onAudio := c.onAudio.Load(); onAudio != nil {
		frame := make([]byte, len(in)*2)
		for i, sample := range in {
			binary.LittleEndian.PutUint16(frame[i*2:], uint16(sample))
		}
		(*onAudio)(frame)
	}

	if len(c.scratch) < len(out)*2 {
		c.scratch = make([]byte, len(out)*2)
	}
	pcm := c.scratch[:len(out)*2]
	c.playback.Fill(pcm)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
}

func (c *Client) start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}
	c.started = true
	return nil
}

func (c *Client) Unlock(_ context.Context) error {
	return c.start()
}

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	c.onAudio.Store(&onAudio)
	if err := c.start(); err != nil {
		c.onAudio.Store(nil)
		return err
	}
	return nil
}

func (c *Client) StopCapture() error {
	c.onAudio.Store(nil)
	return nil
}

func (c *Client) SendAudio(audio []byte) error {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return fmt.Errorf("stream not started")
	}

	c.playback.Write(audio)
	return nil
}

func (c *Client) Mark(mark string, callback func(string)) error {
	c.playback.Mark(mark, callback)
	return nil
}

func (c *Client) ClearBuffer() {
	c.playback.Clear()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return c.encodingInfo
}

func (c *Client) Close() {
	c.onAudio.Store(nil)
	c.playback.Clear()

	c.mu.Lock()
	if c.started {
		if err := c.stream.Stop(); err != nil {
			logger.Warn("failed to stop portaudio stream", "error", err)
		}
		c.started = false
	}
	c.mu.Unlock()

	if err := c.stream.Close(); err != nil {
		logger.Warn("failed to close portaudio stream", "error", err)
	}
	if err := portaudio.Terminate(); err != nil {
		logger.Warn("failed to terminate portaudio", "error", err)
	}
}
