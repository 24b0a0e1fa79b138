package speech

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/andresmejia3/facenroll/internal/utils"
)

// DefaultRate is the speaking rate in words per minute.
const DefaultRate = 150

// Espeak speaks through the espeak-ng (or espeak) command line synthesizer.
type Espeak struct {
	Binary string
	Voice  string
	Rate   int
}

// NewEspeak returns a synthesizer using binary ("espeak-ng" when empty).
func NewEspeak(binary string, rate int) *Espeak {
	if binary == "" {
		binary = "espeak-ng"
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Espeak{Binary: binary, Voice: "en", Rate: rate}
}

// Speak blocks until text has been played on the default audio output.
func (e *Espeak) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	cmd := utils.NewSafeCommandContext(ctx, e.Binary, e.args(text)...)
	if err := cmd.RunCaptured(); err != nil {
		return fmt.Errorf("speak %q: %w", text, err)
	}
	return nil
}

func (e *Espeak) args(text string) []string {
	args := []string{"-s", strconv.Itoa(e.Rate)}
	if e.Voice != "" {
		args = append(args, "-v", e.Voice)
	}
	// "--" keeps prompts that start with a dash from being read as flags
	return append(args, "--", text)
}
