package audio

import (
	"encoding/binary"
	"fmt"
)

// Convert adapts mono audio in encoding from to the encoding to. Only sample
// rate changes of linear16 audio are supported, the samples are linearly
// interpolated.
func Convert(pcm []byte, from, to EncodingInfo) ([]byte, error) {
	if to.IsZero() || from == to {
		return pcm, nil
	}
	if from.Format != to.Format {
		return nil, fmt.Errorf("cannot convert %s audio to %s", from.Format.Name(), to.Format.Name())
	}
	if from.Format != EncodingLinear16 {
		return nil, fmt.Errorf("cannot resample %s audio", from.Format.Name())
	}
	return ResampleLinear16(pcm, from.SampleRate, to.SampleRate), nil
}

func ResampleLinear16(pcm []byte, fromRate, toRate int) []byte {
	samples := len(pcm) / 2
	if fromRate <= 0 || toRate <= 0 || fromRate == toRate || samples == 0 {
		return pcm
	}

	outSamples := int(int64(samples) * int64(toRate) / int64(fromRate))
	out := make([]byte, outSamples*2)
	sampleAt := func(i int) float64 {
		if i >= samples {
			i = samples - 1
		}
		return float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	step := float64(fromRate) / float64(toRate)
	for i := range outSamples {
		position := float64(i) * step
		index := int(position)
		fraction := position - float64(index)
		value := sampleAt(index)*(1-fraction) + sampleAt(index+1)*fraction
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(value)))
	}
	return out
}
