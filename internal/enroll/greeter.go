package enroll

import (
	"context"
	"fmt"
	"time"
)

// DefaultInstitution is welcomed in the opening greeting.
const DefaultInstitution = "SVCE College"

// Greeting builds the welcome line for now, e.g.
// "Good morning, today is Monday. Welcome to SVCE College."
func Greeting(now time.Time, institution string) string {
	var part string
	switch h := now.Hour(); {
	case h < 12:
		part = "Good morning"
	case h < 17:
		part = "Good afternoon"
	default:
		part = "Good evening"
	}
	return fmt.Sprintf("%s, today is %s. Welcome to %s.", part, now.Weekday(), institution)
}

// Greet speaks the welcome line.
func Greet(ctx context.Context, p *Prompter, now time.Time, institution string) {
	p.Say(ctx, Greeting(now, institution))
}
