package domain

// Staff roles issued by the identity service.
const (
	RoleAdmin      = "admin"
	RoleRecruiter  = "recruiter"
	RoleClientUser = "client_user"
)

// Capability names a single boolean flag surfaces can require.
type Capability string

const (
	CapManageClients     Capability = "manage_clients"
	CapManageJobs        Capability = "manage_jobs"
	CapViewCandidates    Capability = "view_candidates"
	CapGovernance        Capability = "governance"
	CapManagePortalUsers Capability = "manage_portal_users"
	CapCandidatePortal   Capability = "candidate_portal"
	CapEditOwnProfile    Capability = "edit_own_profile"
)

// Capabilities is the flag set presentation components render from.
type Capabilities struct {
	Authenticated      bool `json:"authenticated"`
	MustChangePassword bool `json:"must_change_password"`

	ManageClients     bool `json:"manage_clients"`
	ManageJobs        bool `json:"manage_jobs"`
	ViewCandidates    bool `json:"view_candidates"`
	Governance        bool `json:"governance"`
	ManagePortalUsers bool `json:"manage_portal_users"`

	CandidatePortal bool `json:"candidate_portal"`
	EditOwnProfile  bool `json:"edit_own_profile"`
}

// CapabilitiesFor derives the flags for a settled identity. Only a fully
// authenticated identity (not pending rotation) receives role capabilities.
func CapabilitiesFor(aud Audience, role string, authenticated, mustRotate bool) Capabilities {
	c := Capabilities{
		Authenticated:      authenticated && !mustRotate,
		MustChangePassword: authenticated && mustRotate,
	}
	if !c.Authenticated {
		return c
	}

	switch aud {
	case AudienceStaff:
		switch role {
		case RoleAdmin:
			c.ManageClients = true
			c.ManageJobs = true
			c.ViewCandidates = true
			c.Governance = true
			c.ManagePortalUsers = true
		case RoleRecruiter:
			c.ManageClients = true
			c.ManageJobs = true
			c.ViewCandidates = true
			c.ManagePortalUsers = true
		case RoleClientUser:
			c.ManageJobs = true
			c.ViewCandidates = true
		}
	case AudienceCandidate:
		c.CandidatePortal = true
		c.EditOwnProfile = true
	}
	return c
}

// Has reports whether the named capability is granted. The empty capability
// is always granted.
func (c Capabilities) Has(want Capability) bool {
	switch want {
	case "":
		return true
	case CapManageClients:
		return c.ManageClients
	case CapManageJobs:
		return c.ManageJobs
	case CapViewCandidates:
		return c.ViewCandidates
	case CapGovernance:
		return c.Governance
	case CapManagePortalUsers:
		return c.ManagePortalUsers
	case CapCandidatePortal:
		return c.CandidatePortal
	case CapEditOwnProfile:
		return c.EditOwnProfile
	default:
		return false
	}
}
