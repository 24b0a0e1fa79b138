package enroll

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andresmejia3/facenroll/internal/types"
)

// MaxIDDigits is the longest accepted enrollment ID.
const MaxIDDigits = 4

const (
	promptName   = "Enter your name"
	promptBranch = "Enter your college branch name"
	promptID     = "Enter your unique ID. Maximum four digits."
	promptIDKeys = "Enter Unique ID (max 4 digits): "
	msgInvalidID = "Invalid ID. Please enter a numeric ID with up to four digits."
)

// ErrInputClosed is returned when the ID cannot be collected because the
// terminal fallback has reached EOF.
var ErrInputClosed = errors.New("terminal input closed before a valid ID was entered")

// Form collects the enrollment fields.
type Form struct {
	Prompter *Prompter
	Retries  int
}

// Collect asks for name, branch and ID. It only fails if ctx is cancelled or
// the terminal closes while the ID is still invalid.
func (f *Form) Collect(ctx context.Context) (types.EnrollmentRecord, error) {
	var rec types.EnrollmentRecord

	rec.Name = f.Prompter.Ask(ctx, promptName, f.Retries)
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	rec.Branch = f.Prompter.Ask(ctx, promptBranch, f.Retries)
	if err := ctx.Err(); err != nil {
		return rec, err
	}

	id, err := f.collectID(ctx)
	if err != nil {
		return rec, err
	}
	rec.ID = id

	f.Prompter.Say(ctx, fmt.Sprintf("Hello %s from %s. I will now collect your face images.", rec.Name, rec.Branch))
	return rec, nil
}

// collectID loops over two tiers: the voice prompt (with its own keyboard
// fallback) and, when that answer is invalid, a direct keyboard prompt.
func (f *Form) collectID(ctx context.Context) (string, error) {
	for {
		id := NormalizeID(f.Prompter.Ask(ctx, promptID, f.Retries))
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if ValidID(id) {
			return id, nil
		}

		f.Prompter.Say(ctx, msgInvalidID)
		id = NormalizeID(f.Prompter.ReadLine(promptIDKeys))
		// A valid typed ID is accepted directly, without asking by voice again
		if ValidID(id) {
			return id, nil
		}
		if f.Prompter.InputClosed() {
			return "", ErrInputClosed
		}
	}
}

// ValidID reports whether s is a non-empty string of at most MaxIDDigits ASCII digits.
func ValidID(s string) bool {
	if s == "" || len(s) > MaxIDDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

var digitWords = map[string]string{
	"zero": "0", "oh": "0",
	"one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
}

// NormalizeID turns a spoken ID such as "one two 3" into "123". Words that are
// not digits are kept, so the result still fails ValidID.
func NormalizeID(s string) string {
	var b strings.Builder
	for _, field := range strings.Fields(strings.ToLower(s)) {
		if d, ok := digitWords[field]; ok {
			b.WriteString(d)
			continue
		}
		b.WriteString(field)
	}
	return b.String()
}
