package identity

import (
	"fmt"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
)

// State is the lifecycle position of one audience's identity.
type State int

const (
	// StateUnknown holds until the startup restore settles. No access
	// decision may be taken in it.
	StateUnknown State = iota
	StateAnonymous
	StatePendingRotation
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAnonymous:
		return "anonymous"
	case StatePendingRotation:
		return "pending_rotation"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateUnknown, StateAnonymous, StatePendingRotation, StateAuthenticated} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("identity: unknown state %q", b)
}

// Settled reports whether s is a terminal state.
func (s State) Settled() bool { return s != StateUnknown }

// Snapshot is what consumers see of a context. It never carries the
// session token.
type Snapshot struct {
	Audience     domain.Audience     `json:"audience"`
	State        State               `json:"state"`
	Profile      *domain.Profile     `json:"profile,omitempty"`
	Capabilities domain.Capabilities `json:"capabilities"`

	// Version increases with every transition.
	Version uint64 `json:"version"`
}

// Has reports whether the snapshot grants want.
func (s Snapshot) Has(want domain.Capability) bool {
	return s.Capabilities.Has(want)
}

// LoginResult is the outcome of Login. Expected failures are reported here
// and never as a Go error.
type LoginResult struct {
	Success            bool        `json:"success"`
	MustChangePassword bool        `json:"must_change_password"`
	Error              string      `json:"error,omitempty"`
	Kind               domain.Kind `json:"kind,omitempty"`
}

// ChangeResult is the outcome of ChangePassword.
type ChangeResult struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Kind    domain.Kind `json:"kind,omitempty"`
}

func loginFailure(err error) LoginResult {
	return LoginResult{Error: domain.UserMessage(err), Kind: domain.KindOf(err)}
}

func changeFailure(err error) ChangeResult {
	return ChangeResult{Error: domain.UserMessage(err), Kind: domain.KindOf(err)}
}
