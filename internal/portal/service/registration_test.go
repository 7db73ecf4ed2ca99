package service_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/service"
	"github.com/aussiebroadwan/arbeit/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	calls []domain.RegistrationDraft
	err   error
}

func (f *fakeRegistrar) RegisterCandidate(_ context.Context, d domain.RegistrationDraft) error {
	f.calls = append(f.calls, d)
	return f.err
}

func newRegistration(t *testing.T, reg *fakeRegistrar) *service.RegistrationService {
	t.Helper()
	s, err := service.NewRegistrationService(reg, slogx.Discard())
	require.NoError(t, err)
	return s
}

func TestRegister_ValidDraftIsNormalized(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistrar{}
	s := newRegistration(t, reg)
	years := 4

	err := s.Register(context.Background(), domain.RegistrationDraft{
		Name:            "  Sam Lee ",
		Email:           " Sam@Example.COM",
		Password:        "secret1",
		LinkedInURL:     "https://linkedin.com/in/sam",
		ExperienceYears: &years,
	})
	require.NoError(t, err)
	require.Len(t, reg.calls, 1)
	require.Equal(t, "Sam Lee", reg.calls[0].Name)
	require.Equal(t, "sam@example.com", reg.calls[0].Email)
}

func TestRegister_LocalValidation(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistrar{}
	s := newRegistration(t, reg)
	negative := -1

	err := s.Register(context.Background(), domain.RegistrationDraft{
		Email:           "not-an-email",
		Password:        "abc",
		LinkedInURL:     "linkedin",
		ExperienceYears: &negative,
	})
	require.ErrorIs(t, err, domain.ErrRegistrationInvalid)
	require.Equal(t, domain.KindRegistrationInvalid, domain.KindOf(err))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "name")
	require.Contains(t, verr.Fields, "email")
	require.Contains(t, verr.Fields, "password")
	require.Contains(t, verr.Fields, "linkedin_url")
	require.Contains(t, verr.Fields, "experience_years")
	require.Contains(t, verr.Fields["email"], "valid email")

	require.Empty(t, reg.calls, "no network call on local failure")
}

func TestRegister_UpstreamRejection(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistrar{err: domain.WithDetail(domain.ErrRegistrationRejected, "Email already registered")}
	s := newRegistration(t, reg)

	err := s.Register(context.Background(), domain.RegistrationDraft{
		Name:     "Sam",
		Email:    "sam@example.com",
		Password: "secret1",
	})
	require.ErrorIs(t, err, domain.ErrRegistrationRejected)
	require.Equal(t, "Email already registered", domain.UserMessage(err))
}
