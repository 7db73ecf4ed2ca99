package domain

// Profile is the denormalised display data the presentation layer needs.
// It is a read-only cache refreshed on login and on explicit refetch.
type Profile struct {
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ClientID  string `json:"client_id,omitempty"` // staff client users only
}

// Grant is the outcome of a successful exchange with the identity service.
type Grant struct {
	SubjectID            string
	Profile              Profile
	SessionToken         string
	MustRotateCredential bool
}

// Identity is an authenticated actor of one audience.
type Identity struct {
	Audience             Audience
	SubjectID            string
	Profile              Profile
	MustRotateCredential bool
	SessionToken         string
}

// Identity binds the grant to the audience it was verified against.
func (g Grant) Identity(aud Audience) Identity {
	return Identity{
		Audience:             aud,
		SubjectID:            g.SubjectID,
		Profile:              g.Profile,
		MustRotateCredential: g.MustRotateCredential,
		SessionToken:         g.SessionToken,
	}
}

// Merge applies a refreshed grant to an existing identity. Backends may omit
// the token on profile or rotation responses; the current one is kept then.
func (id Identity) Merge(g Grant) Identity {
	out := id
	if g.SubjectID != "" {
		out.SubjectID = g.SubjectID
	}
	out.Profile = g.Profile
	if out.Profile.SubjectID == "" {
		out.Profile.SubjectID = out.SubjectID
	}
	out.MustRotateCredential = g.MustRotateCredential
	if g.SessionToken != "" {
		out.SessionToken = g.SessionToken
	}
	return out
}
