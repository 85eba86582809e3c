package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 decodes a complete MP3 payload into mono linear16 PCM.
//
// The decoder always produces interleaved 16-bit stereo, so both channels are
// averaged down to a single channel.
func DecodeMP3(data []byte) ([]byte, EncodingInfo, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, EncodingInfo{}, fmt.Errorf("failed to open mp3 stream: %w", err)
	}

	stereo, err := io.ReadAll(decoder)
	if err != nil {
		return nil, EncodingInfo{}, fmt.Errorf("failed to decode mp3 stream: %w", err)
	}

	return DownmixStereo(stereo), EncodingInfo{SampleRate: decoder.SampleRate(), Format: EncodingLinear16}, nil
}

// DownmixStereo converts interleaved little-endian 16-bit stereo to mono.
// A trailing partial frame is dropped.
func DownmixStereo(stereo []byte) []byte {
	const frameSize = 4

	frames := len(stereo) / frameSize
	mono := make([]byte, frames*2)
	for i := range frames {
		left := int16(binary.LittleEndian.Uint16(stereo[i*frameSize:]))
		right := int16(binary.LittleEndian.Uint16(stereo[i*frameSize+2:]))
		mixed := int16((int32(left) + int32(right)) / 2)
		binary.LittleEndian.PutUint16(mono[i*2:], uint16(mixed))
	}
	return mono
}
