// Package notify shows desktop notifications about a capture run.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

const appName = "facenroll"

// Notifier sends desktop notifications when enabled.
type Notifier struct {
	enabled bool
	send    func(title, message string) error
}

// New creates a Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Complete reports a finished enrollment.
func (n *Notifier) Complete(id string, saved int) {
	n.notify("Enrollment complete", fmt.Sprintf("%d face images saved for ID %s", saved, id))
}

// Aborted reports a capture that stopped early.
func (n *Notifier) Aborted(id string, saved int, reason error) {
	n.notify("Enrollment stopped", fmt.Sprintf("ID %s: %d images saved (%v)", id, saved, reason))
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled {
		return
	}
	// Notification failures are not critical
	_ = n.send(appName+": "+title, message)
}
