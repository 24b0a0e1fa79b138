package audio

import (
	"errors"
	"math"
	"testing"
	"time"
)

func constBuffer(v float32) []float32 {
	buf := make([]float32, FramesPerBuffer)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func TestRMS(t *testing.T) {
	tests := []struct {
		name string
		buf  []float32
		want float64
	}{
		{name: "Empty buffer", buf: nil, want: 0},
		{name: "Silence", buf: []float32{0, 0, 0}, want: 0},
		{name: "Square wave", buf: []float32{0.5, -0.5, 0.5, -0.5}, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RMS(tt.buf); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RMS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGateAdjust(t *testing.T) {
	g := NewGate()

	// A long stretch of steady noise pulls the threshold to noise * ratio
	g.Adjust(constBuffer(0.1), 10)
	if math.Abs(g.Threshold-0.15) > 1e-6 {
		t.Errorf("Threshold = %v, want ~0.15", g.Threshold)
	}

	if g.Voiced(constBuffer(0.1)) {
		t.Error("Ambient noise should not open the gate after calibration")
	}
	if !g.Voiced(constBuffer(0.5)) {
		t.Error("Speech louder than the threshold should open the gate")
	}
}

func TestPhraseWaitTimeout(t *testing.T) {
	// 10 buffers of 64ms
	p := newPhrase(NewGate(), FramesPerBuffer, 640*time.Millisecond, 0)
	quiet := constBuffer(0)

	for i := 0; i < 9; i++ {
		if _, err := p.feed(quiet); err != nil {
			t.Fatalf("Unexpected error after %d buffers: %v", i+1, err)
		}
	}
	if _, err := p.feed(quiet); !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("Expected ErrWaitTimeout, got %v", err)
	}
}

func TestPhraseEndsOnPause(t *testing.T) {
	p := newPhrase(NewGate(), FramesPerBuffer, 0, 0)
	quiet, loud := constBuffer(0), constBuffer(0.5)

	// Leading silence is not recorded
	for i := 0; i < 3; i++ {
		if done, _ := p.feed(quiet); done {
			t.Fatal("Phrase finished before speech started")
		}
	}
	for i := 0; i < 5; i++ {
		if done, _ := p.feed(loud); done {
			t.Fatal("Phrase finished during speech")
		}
	}

	// 800ms pause at 64ms per buffer is 13 buffers
	var done bool
	n := 0
	for !done {
		var err error
		done, err = p.feed(quiet)
		if err != nil {
			t.Fatal(err)
		}
		n++
		if n > 20 {
			t.Fatal("Phrase never ended")
		}
	}
	if n != 13 {
		t.Errorf("Expected phrase to end after 13 silent buffers, got %d", n)
	}
	if want := (5 + 13) * FramesPerBuffer; len(p.samples) != want {
		t.Errorf("Expected %d samples, got %d", want, len(p.samples))
	}
}

func TestPhraseLimit(t *testing.T) {
	p := newPhrase(NewGate(), FramesPerBuffer, 0, time.Second)
	loud := constBuffer(0.5)

	for i := 0; i < 15; i++ {
		if done, _ := p.feed(loud); done {
			t.Fatalf("Phrase ended early at buffer %d", i+1)
		}
	}
	done, err := p.feed(loud)
	if err != nil || !done {
		t.Fatalf("Expected phrase to end at the limit, done=%v err=%v", done, err)
	}
	if len(p.samples) != SampleRate {
		t.Errorf("Expected samples cut to %d, got %d", SampleRate, len(p.samples))
	}
}

func TestPhraseGateFollowsRoomWhileWaiting(t *testing.T) {
	// Calibrated in a louder room than the one we are listening in now
	g := &Gate{Threshold: 0.1}
	p := newPhrase(g, FramesPerBuffer, 0, 0)
	hum := constBuffer(0.02)

	for i := 0; i < 20; i++ {
		if done, err := p.feed(hum); done || err != nil {
			t.Fatalf("Background hum must not end the wait: done=%v err=%v", done, err)
		}
	}
	if p.started {
		t.Fatal("Background hum opened the gate")
	}
	if g.Threshold >= 0.05 {
		t.Fatalf("Threshold should drift towards the hum while waiting, got %v", g.Threshold)
	}

	// A quiet voice the stale threshold would have missed
	if _, err := p.feed(constBuffer(0.05)); err != nil {
		t.Fatal(err)
	}
	if !p.started {
		t.Error("Expected speech to open the adapted gate")
	}

	// Once speaking, the threshold stays put
	before := g.Threshold
	p.feed(constBuffer(0.01))
	if g.Threshold != before {
		t.Errorf("Threshold changed during the phrase: %v -> %v", before, g.Threshold)
	}
}
