package types

import "fmt"

// EnrollmentRecord is the identifying data collected for one person.
type EnrollmentRecord struct {
	ID     string // numeric, at most 4 digits
	Name   string
	Branch string
}

// Line renders the record the way it is stored in the roster log: "id name branch".
// Fields are not escaped, so names containing spaces will not round-trip.
func (r EnrollmentRecord) Line() string {
	return fmt.Sprintf("%s %s %s", r.ID, r.Name, r.Branch)
}

// CapturedImage describes one face crop written to disk during a capture run.
type CapturedImage struct {
	OwnerID  string
	Sequence int // 1-based, never reused within a run
	Path     string
}

// ImageName returns the file name for the nth face of an owner, e.g. "42_7.jpg".
func ImageName(ownerID string, seq int) string {
	return fmt.Sprintf("%s_%d.jpg", ownerID, seq)
}
