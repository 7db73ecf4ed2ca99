package guard

import "github.com/aussiebroadwan/arbeit/internal/portal/domain"

// Kind classifies how a surface reacts to identity state.
type Kind int

const (
	// KindProtected surfaces render only for an authenticated identity.
	KindProtected Kind = iota
	// KindLogin is the audience's sign-in surface.
	KindLogin
	// KindRotation is the forced password change surface.
	KindRotation
	// KindPublic surfaces render in every settled state.
	KindPublic
)

// Surface is a navigable page of one audience.
type Surface struct {
	Name     string
	Path     string
	Audience domain.Audience
	Kind     Kind

	// Requires is an optional capability on top of authentication.
	Requires domain.Capability
}

// Routes are the well-known surface paths of an audience.
type Routes struct {
	Login    string
	Rotation string
	Home     string
}

var routes = map[domain.Audience]Routes{
	domain.AudienceStaff: {
		Login:    "/login",
		Rotation: "/change-password",
		Home:     "/dashboard",
	},
	domain.AudienceCandidate: {
		Login:    "/candidate/login",
		Rotation: "/candidate/change-password",
		Home:     "/candidate/dashboard",
	},
}

// RoutesFor returns the login, rotation and home paths of aud.
func RoutesFor(aud domain.Audience) Routes {
	return routes[aud]
}

// Surfaces lists every surface the portal serves.
func Surfaces() []Surface {
	return []Surface{
		{Name: "staff_login", Path: "/login", Audience: domain.AudienceStaff, Kind: KindLogin},
		{Name: "staff_change_password", Path: "/change-password", Audience: domain.AudienceStaff, Kind: KindRotation},
		{Name: "staff_dashboard", Path: "/dashboard", Audience: domain.AudienceStaff},
		{Name: "clients", Path: "/clients", Audience: domain.AudienceStaff, Requires: domain.CapManageClients},
		{Name: "jobs", Path: "/jobs", Audience: domain.AudienceStaff, Requires: domain.CapManageJobs},
		{Name: "candidates", Path: "/candidates", Audience: domain.AudienceStaff, Requires: domain.CapViewCandidates},
		{Name: "governance", Path: "/governance", Audience: domain.AudienceStaff, Requires: domain.CapGovernance},
		{
			Name:     "candidate_portal_management",
			Path:     "/candidate-portal-management",
			Audience: domain.AudienceStaff,
			Requires: domain.CapManagePortalUsers,
		},

		{Name: "candidate_login", Path: "/candidate/login", Audience: domain.AudienceCandidate, Kind: KindLogin},
		{Name: "candidate_register", Path: "/candidate/register", Audience: domain.AudienceCandidate, Kind: KindPublic},
		{
			Name:     "candidate_change_password",
			Path:     "/candidate/change-password",
			Audience: domain.AudienceCandidate,
			Kind:     KindRotation,
		},
		{
			Name:     "candidate_dashboard",
			Path:     "/candidate/dashboard",
			Audience: domain.AudienceCandidate,
			Requires: domain.CapCandidatePortal,
		},
		{
			Name:     "candidate_profile",
			Path:     "/candidate/profile",
			Audience: domain.AudienceCandidate,
			Requires: domain.CapEditOwnProfile,
		},
	}
}
