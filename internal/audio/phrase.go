package audio

import (
	"errors"
	"math"
	"time"
)

// ErrWaitTimeout is returned when no speech starts within the listen timeout.
var ErrWaitTimeout = errors.New("audio: timed out waiting for speech")

const (
	// DefaultThreshold is the starting energy gate on the [-1, 1] sample scale
	// (roughly 300 on the int16 scale).
	DefaultThreshold = 0.01
	// PauseDuration of silence after speech ends the phrase.
	PauseDuration = 800 * time.Millisecond

	adjustDamping = 0.15
	adjustRatio   = 1.5
)

// Gate decides whether a buffer contains speech by comparing its RMS energy
// against an adaptive threshold.
type Gate struct {
	Threshold float64
}

// NewGate returns a gate with the default threshold.
func NewGate() *Gate {
	return &Gate{Threshold: DefaultThreshold}
}

// Adjust moves the threshold towards the ambient energy of buf. seconds is the
// duration covered by buf and controls how strongly one buffer pulls the threshold.
func (g *Gate) Adjust(buf []float32, seconds float64) {
	damping := math.Pow(adjustDamping, seconds)
	target := RMS(buf) * adjustRatio
	g.Threshold = g.Threshold*damping + target*(1-damping)
}

// Voiced reports whether buf is louder than the threshold.
func (g *Gate) Voiced(buf []float32) bool {
	return RMS(buf) > g.Threshold
}

// RMS is the root-mean-square energy of buf.
func RMS(buf []float32) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buf {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

// phrase accumulates buffers into one utterance: it waits for the gate to open,
// then records until a pause or the phrase limit. The gate keeps adapting to
// the ambient level while waiting.
type phrase struct {
	gate *Gate

	bufferSeconds  float64
	timeoutBuffers int // 0 waits forever
	pauseBuffers   int
	limitSamples   int // 0 means unlimited

	started bool
	waited  int
	silent  int
	samples []float32
}

func newPhrase(g *Gate, bufferLen int, timeout, limit time.Duration) *phrase {
	perBuffer := time.Duration(bufferLen) * time.Second / SampleRate
	p := &phrase{
		gate:          g,
		bufferSeconds: perBuffer.Seconds(),
		pauseBuffers:  int(math.Ceil(float64(PauseDuration) / float64(perBuffer))),
	}
	if timeout > 0 {
		p.timeoutBuffers = int(math.Ceil(float64(timeout) / float64(perBuffer)))
	}
	if limit > 0 {
		p.limitSamples = int(int64(limit) * SampleRate / int64(time.Second))
	}
	return p
}

// feed consumes one buffer. It returns true once the phrase is complete.
func (p *phrase) feed(buf []float32) (bool, error) {
	voiced := p.gate.Voiced(buf)

	if !p.started {
		p.waited++
		if !voiced {
			// Track the room while nobody is speaking
			p.gate.Adjust(buf, p.bufferSeconds)
			if p.timeoutBuffers > 0 && p.waited >= p.timeoutBuffers {
				return false, ErrWaitTimeout
			}
			return false, nil
		}
		p.started = true
	}

	p.samples = append(p.samples, buf...)
	if voiced {
		p.silent = 0
	} else {
		p.silent++
	}

	if p.silent >= p.pauseBuffers {
		return true, nil
	}
	if p.limitSamples > 0 && len(p.samples) >= p.limitSamples {
		p.samples = p.samples[:p.limitSamples]
		return true, nil
	}
	return false, nil
}
