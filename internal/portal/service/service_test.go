package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore("file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(clientID string, aud domain.Audience, at time.Time) domain.SessionRecord {
	return domain.SessionRecord{
		ClientID:     clientID,
		Audience:     aud,
		SubjectID:    "u-" + clientID,
		SessionToken: "tok-" + clientID,
		Profile:      domain.Profile{SubjectID: "u-" + clientID, Name: "Pat", Role: domain.RoleRecruiter},
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// stubVerifier accepts every login with a fixed grant.
type stubVerifier struct {
	mu     sync.Mutex
	probes int
}

func (v *stubVerifier) Verify(_ context.Context, _ domain.Audience, identifier, _ string) (domain.Grant, error) {
	return domain.Grant{
		SubjectID:    "u1",
		SessionToken: "tok-" + identifier,
		Profile:      domain.Profile{SubjectID: "u1", Email: identifier, Role: domain.RoleAdmin},
	}, nil
}

func (v *stubVerifier) RotateCredential(context.Context, domain.Audience, string, string, string) (domain.Grant, error) {
	return domain.Grant{}, nil
}

func (v *stubVerifier) Probe(context.Context, domain.Audience, string) (domain.Grant, error) {
	v.mu.Lock()
	v.probes++
	v.mu.Unlock()
	return domain.Grant{}, domain.ErrUnreachable
}

func (v *stubVerifier) Invalidate(context.Context, domain.Audience, string) error { return nil }
