// Package guard decides what a request for a surface gets to see, given the
// identity state of the surface's audience.
package guard

import (
	"net/url"
	"strings"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/identity"
)

// RedirectParam carries the originally requested destination to the login
// surface.
const RedirectParam = "redirect"

// Outcome is what the guard tells the caller to do.
type Outcome int

const (
	OutcomeLoading Outcome = iota
	OutcomeRender
	OutcomeRedirect
	OutcomeForbidden
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoading:
		return "loading"
	case OutcomeRender:
		return "render"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Decision is the result of one guard evaluation.
type Decision struct {
	Outcome  Outcome
	Location string // set for OutcomeRedirect
}

// Evaluate applies the access rules of s to snap. requested is the request
// URI the caller asked for; it is preserved on redirects to the login
// surface. A snapshot of another audience counts as anonymous.
func Evaluate(s Surface, snap identity.Snapshot, requested string) Decision {
	r := RoutesFor(s.Audience)

	state := snap.State
	if snap.Audience != s.Audience {
		state = identity.StateAnonymous
		snap = identity.Snapshot{Audience: s.Audience, State: state}
	}

	if state == identity.StateUnknown {
		return Decision{Outcome: OutcomeLoading}
	}

	switch s.Kind {
	case KindPublic:
		return render()

	case KindLogin:
		switch state {
		case identity.StatePendingRotation:
			return redirect(r.Rotation)
		case identity.StateAuthenticated:
			return redirect(SafeRedirect(s.Audience, redirectTarget(requested)))
		default:
			return render()
		}

	case KindRotation:
		if state == identity.StateAnonymous {
			return redirect(loginLocation(s.Audience, ""))
		}
		return render()

	default:
		switch state {
		case identity.StateAnonymous:
			return redirect(loginLocation(s.Audience, requested))
		case identity.StatePendingRotation:
			return redirect(r.Rotation)
		}
		if s.Requires != "" && !snap.Has(s.Requires) {
			return Decision{Outcome: OutcomeForbidden}
		}
		return render()
	}
}

func render() Decision { return Decision{Outcome: OutcomeRender} }

func redirect(loc string) Decision {
	return Decision{Outcome: OutcomeRedirect, Location: loc}
}

// loginLocation builds the login URL of aud carrying requested as the
// post-login destination.
func loginLocation(aud domain.Audience, requested string) string {
	r := RoutesFor(aud)
	target := SafeRedirect(aud, requested)
	if requested == "" || target == r.Home {
		return r.Login
	}
	return r.Login + "?" + url.Values{RedirectParam: {target}}.Encode()
}

// redirectTarget extracts the redirect parameter from a login request URI.
func redirectTarget(requested string) string {
	u, err := url.Parse(requested)
	if err != nil {
		return ""
	}
	return u.Query().Get(RedirectParam)
}

// SafeRedirect returns target when it is a local path inside aud's surface
// space, and aud's home surface otherwise.
func SafeRedirect(aud domain.Audience, target string) string {
	r := RoutesFor(aud)
	if target == "" || strings.ContainsAny(target, "\\\r\n") {
		return r.Home
	}

	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || u.User != nil {
		return r.Home
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(target, "//") {
		return r.Home
	}

	path := u.Path
	if path == r.Login || path == r.Rotation {
		return r.Home
	}

	candidateSpace := path == "/candidate" || strings.HasPrefix(path, "/candidate/")
	if candidateSpace != (aud == domain.AudienceCandidate) {
		return r.Home
	}
	return u.RequestURI()
}
