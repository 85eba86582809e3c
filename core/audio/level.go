package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

const (
	DefaultLevelSmoothing          = 0.1
	DefaultVoiceDetectionThreshold = 0.1
)

// LevelMeter tracks a smoothed loudness estimate of linear16 input audio.
//
// Levels are normalised RMS values in [0, 1]. Each new frame moves the smoothed
// level towards the frame level by the smoothing factor.
type LevelMeter struct {
	mu sync.Mutex

	smoothing float64
	threshold float64
	level     float64
}

func NewLevelMeter(smoothing, threshold float64) *LevelMeter {
	if smoothing <= 0 || smoothing > 1 {
		smoothing = DefaultLevelSmoothing
	}
	if threshold <= 0 {
		threshold = DefaultVoiceDetectionThreshold
	}
	return &LevelMeter{smoothing: smoothing, threshold: threshold}
}

// Process feeds one frame of little-endian 16-bit PCM and returns the updated
// smoothed level.
func (m *LevelMeter) Process(pcm []byte) float64 {
	frameLevel := RMS(pcm)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.level += (frameLevel - m.level) * m.smoothing
	return m.level
}

func (m *LevelMeter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// IsVoiceActive reports whether the smoothed level is above the detection
// threshold.
func (m *LevelMeter) IsVoiceActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level > m.threshold
}

func (m *LevelMeter) Reset() {
	m.mu.Lock()
	m.level = 0
	m.mu.Unlock()
}

// RMS returns the normalised root mean square of little-endian 16-bit PCM.
func RMS(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := range samples {
		sample := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / math.MaxInt16
		sum += sample * sample
	}
	return math.Min(math.Sqrt(sum/float64(samples)), 1)
}
