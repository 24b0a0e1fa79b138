// Package speech binds the voice engines: speech-to-text for answers and
// text-to-speech for prompts.
package speech

import (
	"context"
	"fmt"
)

// Outcome classifies one listening attempt.
type Outcome int

const (
	// Recognized - the engine produced text.
	Recognized Outcome = iota
	// TimedOut - nobody started speaking before the listen timeout.
	TimedOut
	// Unrecognized - speech was heard but no words came out of it.
	Unrecognized
	// ServiceError - the microphone or the engine failed.
	ServiceError
)

func (o Outcome) String() string {
	switch o {
	case Recognized:
		return "recognized"
	case TimedOut:
		return "timed-out"
	case Unrecognized:
		return "unrecognized"
	case ServiceError:
		return "service-error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the tagged outcome of a listening attempt. Text is set only for
// Recognized, Err only for ServiceError.
type Result struct {
	Outcome Outcome
	Text    string
	Err     error
}

// Listener captures one spoken answer.
type Listener interface {
	Listen(ctx context.Context) Result
}

// Speaker reads text aloud and blocks until it has been spoken.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Recognizer turns 16kHz mono float32 samples into text.
type Recognizer interface {
	Transcribe(samples []float32) (string, error)
	Close()
}
