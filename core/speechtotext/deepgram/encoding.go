package deepgram

import (
	"fmt"
	"slices"

	"github.com/koscakluka/ema-voice/core/audio"
)

// listenEncoding is the encoding and sample_rate pair of a listen request.
type listenEncoding struct {
	name       string
	sampleRate int
}

// supportedListenRates lists the sample rates accepted for each raw
// encoding. Companded formats are only accepted at telephony rate.
var supportedListenRates = map[string][]int{
	audio.EncodingLinear16.Name(): {8000, 16000, 24000, 32000, 48000},
	audio.EncodingMulaw.Name():     {8000},
	audio.EncodingALaw.Name():      {8000},
}

func newListenEncoding(encoding audio.EncodingInfo) (listenEncoding, error) {
	rates, ok := supportedListenRates[encoding.Format.Name()]
	if !ok {
		return listenEncoding{}, fmt.Errorf("unsupported encoding %q", encoding.Format.Name())
	}
	if !slices.Contains(rates, encoding.SampleRate) {
		return listenEncoding{}, fmt.Errorf("unsupported sample rate %d for %s", encoding.SampleRate, encoding.Format.Name())
	}
	return listenEncoding{name: encoding.Format.Name(), sampleRate: encoding.SampleRate}, nil
}
