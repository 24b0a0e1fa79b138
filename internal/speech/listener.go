package speech

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/andresmejia3/facenroll/internal/audio"
)

// Source records one utterance. *audio.Mic satisfies it.
type Source interface {
	Listen(ctx context.Context, timeout, limit time.Duration) ([]float32, error)
}

// MicListener records a phrase from a Source and transcribes it.
type MicListener struct {
	Source      Source
	Recognizer  Recognizer
	Timeout     time.Duration // wait for speech to start
	PhraseLimit time.Duration // longest accepted answer
}

// Listen implements Listener. Every failure is folded into the Result.
func (l *MicListener) Listen(ctx context.Context) Result {
	samples, err := l.Source.Listen(ctx, l.Timeout, l.PhraseLimit)
	if errors.Is(err, audio.ErrWaitTimeout) {
		return Result{Outcome: TimedOut}
	}
	if err != nil {
		return Result{Outcome: ServiceError, Err: err}
	}

	text, err := l.Recognizer.Transcribe(samples)
	if err != nil {
		return Result{Outcome: ServiceError, Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Outcome: Unrecognized}
	}
	return Result{Outcome: Recognized, Text: text}
}
