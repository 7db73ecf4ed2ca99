package domain

import "fmt"

// Audience partitions every piece of identity state. A staff identity is never
// valid against candidate surfaces and vice versa.
type Audience string

const (
	AudienceStaff     Audience = "staff"
	AudienceCandidate Audience = "candidate"
)

// Audiences lists every audience the portal serves, in a stable order.
func Audiences() []Audience {
	return []Audience{AudienceStaff, AudienceCandidate}
}

func (a Audience) Valid() bool {
	return a == AudienceStaff || a == AudienceCandidate
}

func (a Audience) String() string { return string(a) }

// ParseAudience maps the wire form back to an Audience.
func ParseAudience(s string) (Audience, error) {
	a := Audience(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown audience %q", s)
	}
	return a, nil
}
