// Package enroll runs the spoken questionnaire that identifies the person being enrolled.
package enroll

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andresmejia3/facenroll/internal/speech"
	"go.uber.org/zap"
)

// DefaultRetries is how many times a question is asked by voice before falling back to the keyboard.
const DefaultRetries = 2

const (
	msgNotUnderstood = "Sorry, I didn't understand. Please try again."
	msgNoResponse    = "No response detected. Try again."
	msgServiceError  = "Speech recognition service error. Please check your internet."
	msgNoVoice       = "Moving forward without voice input."
)

// Prompter asks questions by voice and falls back to typed input.
type Prompter struct {
	speaker  speech.Speaker
	listener speech.Listener // nil means keyboard only
	in       *bufio.Reader
	out      io.Writer
	log      *zap.Logger
	eof      bool
}

// NewPrompter wires a prompter. listener may be nil when no speech model is available.
func NewPrompter(speaker speech.Speaker, listener speech.Listener, in io.Reader, out io.Writer, log *zap.Logger) *Prompter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Prompter{
		speaker:  speaker,
		listener: listener,
		in:       bufio.NewReader(in),
		out:      out,
		log:      log,
	}
}

// Say speaks text. A synthesizer failure is logged and the text printed instead.
func (p *Prompter) Say(ctx context.Context, text string) {
	if p.speaker != nil {
		err := p.speaker.Speak(ctx, text)
		if err == nil {
			return
		}
		if ctx.Err() == nil {
			p.log.Warn("speech synthesis failed", zap.Error(err))
		}
	}
	fmt.Fprintf(p.out, "🔊 %s\n", text)
}

// Ask speaks prompt and listens for an answer, up to retries times. When every
// attempt fails it reads the answer from the terminal. Recognized speech is
// lower-cased. Ask never fails; a closed terminal yields "".
func (p *Prompter) Ask(ctx context.Context, prompt string, retries int) string {
	if p.listener == nil {
		p.Say(ctx, prompt)
		return p.ReadLine(prompt + ": ")
	}

	for attempt := 1; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			return ""
		}
		p.Say(ctx, prompt)
		fmt.Fprintf(p.out, "Listening for: %s...\n", prompt)

		res := p.listener.Listen(ctx)
		p.log.Debug("listen attempt",
			zap.String("prompt", prompt),
			zap.Int("attempt", attempt),
			zap.Stringer("outcome", res.Outcome))

		switch res.Outcome {
		case speech.Recognized:
			if text := strings.TrimSpace(res.Text); text != "" {
				fmt.Fprintf(p.out, "Recognized: %s\n", text)
				return strings.ToLower(text)
			}
		case speech.Unrecognized:
			p.Say(ctx, msgNotUnderstood)
		case speech.TimedOut:
			p.Say(ctx, msgNoResponse)
		case speech.ServiceError:
			if ctx.Err() != nil {
				return ""
			}
			p.log.Warn("speech recognition failed", zap.Error(res.Err))
			p.Say(ctx, msgServiceError)
		}
	}

	if ctx.Err() != nil {
		return ""
	}
	p.Say(ctx, msgNoVoice)
	return p.ReadLine(prompt + ": ")
}

// ReadLine prints label and returns one trimmed line from the terminal.
func (p *Prompter) ReadLine(label string) string {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			p.eof = true
		} else {
			p.log.Warn("reading terminal input failed", zap.Error(err))
		}
	}
	return strings.TrimSpace(line)
}

// InputClosed reports whether the terminal has reached EOF.
func (p *Prompter) InputClosed() bool {
	return p.eof
}
