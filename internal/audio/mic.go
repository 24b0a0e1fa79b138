// Package audio records utterances from the default microphone.
package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	// SampleRate - 16kHz mono, what the speech models expect.
	SampleRate = 16000
	// Channels - mono.
	Channels = 1
	// FramesPerBuffer - 64ms per read at 16kHz.
	FramesPerBuffer = 1024
)

// Mic is a blocking microphone reader with an energy gate.
type Mic struct {
	stream *portaudio.Stream
	buffer []float32
	gate   *Gate
}

// OpenMic initializes PortAudio and starts the default input stream.
func OpenMic() (*Mic, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	m := &Mic{
		buffer: make([]float32, FramesPerBuffer),
		gate:   NewGate(),
	}

	stream, err := portaudio.OpenDefaultStream(Channels, 0, SampleRate, FramesPerBuffer, m.buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open microphone: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start microphone: %w", err)
	}

	m.stream = stream
	return m, nil
}

// Calibrate listens to ambient noise for d and sets the speech threshold from it.
func (m *Mic) Calibrate(ctx context.Context, d time.Duration) error {
	seconds := float64(FramesPerBuffer) / SampleRate
	reads := int(d.Seconds() / seconds)

	for i := 0; i < reads; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.stream.Read(); err != nil {
			return fmt.Errorf("read microphone: %w", err)
		}
		m.gate.Adjust(m.buffer, seconds)
	}
	return nil
}

// Threshold returns the current energy gate.
func (m *Mic) Threshold() float64 {
	return m.gate.Threshold
}

// Listen blocks until one phrase has been spoken and returns its samples.
// It fails with ErrWaitTimeout if speech does not start within timeout; the
// phrase itself is cut at limit.
func (m *Mic) Listen(ctx context.Context, timeout, limit time.Duration) ([]float32, error) {
	p := newPhrase(m.gate, FramesPerBuffer, timeout, limit)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("read microphone: %w", err)
		}

		done, err := p.feed(m.buffer)
		if err != nil {
			return nil, err
		}
		if done {
			return p.samples, nil
		}
	}
}

// Close stops the stream and releases PortAudio.
func (m *Mic) Close() error {
	if m.stream == nil {
		return nil
	}
	m.stream.Stop()
	err := m.stream.Close()
	m.stream = nil
	portaudio.Terminate()
	return err
}
