package domain

import "time"

// SessionKey addresses one persisted record. A browser client holds at most
// one record per audience.
type SessionKey struct {
	ClientID string
	Audience Audience
}

// SessionRecord is the persisted subset of an Identity.
type SessionRecord struct {
	ClientID             string
	Audience             Audience
	SubjectID            string
	SessionToken         string
	Profile              Profile
	MustRotateCredential bool
	TokenExpiresAt       *time.Time // hint read from the token, nil when opaque
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (r SessionRecord) Key() SessionKey {
	return SessionKey{ClientID: r.ClientID, Audience: r.Audience}
}

// NewSessionRecord mirrors id into a record owned by clientID.
func NewSessionRecord(clientID string, id Identity, now time.Time) SessionRecord {
	return SessionRecord{
		ClientID:             clientID,
		Audience:             id.Audience,
		SubjectID:            id.SubjectID,
		SessionToken:         id.SessionToken,
		Profile:              id.Profile,
		MustRotateCredential: id.MustRotateCredential,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Identity rebuilds the in-memory identity from a persisted record.
func (r SessionRecord) Identity() Identity {
	return Identity{
		Audience:             r.Audience,
		SubjectID:            r.SubjectID,
		Profile:              r.Profile,
		MustRotateCredential: r.MustRotateCredential,
		SessionToken:         r.SessionToken,
	}
}
