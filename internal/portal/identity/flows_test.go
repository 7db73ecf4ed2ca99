package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/identity"
	"github.com/stretchr/testify/require"
)

func TestLogin_Authenticated(t *testing.T) {
	t.Parallel()

	for _, aud := range domain.Audiences() {
		t.Run(aud.String(), func(t *testing.T) {
			t.Parallel()
			f := settled(t, aud)
			f.v.verify = func(_ context.Context, identifier, secret string) (domain.Grant, error) {
				require.Equal(t, "a@x.com", identifier)
				require.Equal(t, "hunter22", secret)
				return grant("u1", "tok-1", false), nil
			}

			res := f.ctx.Login(context.Background(), " a@x.com ", "hunter22")
			require.True(t, res.Success)
			require.False(t, res.MustChangePassword)
			require.Empty(t, res.Error)

			require.Equal(t, identity.StateAuthenticated, f.ctx.Snapshot().State)
			rec, err := f.records.Get(context.Background(), f.key())
			require.NoError(t, err)
			require.Equal(t, "tok-1", rec.SessionToken)
			require.Equal(t, aud, rec.Audience)
		})
	}
}

func TestLogin_PendingRotation(t *testing.T) {
	t.Parallel()

	for _, aud := range domain.Audiences() {
		t.Run(aud.String(), func(t *testing.T) {
			t.Parallel()
			f := settled(t, aud)
			f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
				return grant("u1", "tok-1", true), nil
			}

			res := f.ctx.Login(context.Background(), "a@x.com", "temp123")
			require.True(t, res.Success)
			require.True(t, res.MustChangePassword)

			snap := f.ctx.Snapshot()
			require.Equal(t, identity.StatePendingRotation, snap.State)
			require.True(t, snap.Capabilities.MustChangePassword)
			require.False(t, snap.Capabilities.Authenticated)
			require.True(t, f.ctx.HasCapturedSecret())
		})
	}
}

func TestLogin_FailuresLeaveStateUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		kind domain.Kind
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, domain.KindInvalidCredentials},
		{"account disabled", domain.ErrAccountDisabled, domain.KindAccountDisabled},
		{"unreachable", domain.ErrUnreachable, domain.KindUnreachable},
		{"unexpected", errors.New("boom"), domain.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := settled(t, domain.AudienceStaff)
			f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
				return domain.Grant{}, tt.err
			}
			before := f.ctx.Snapshot()

			res := f.ctx.Login(context.Background(), "a@x.com", "pw")
			require.False(t, res.Success)
			require.Equal(t, tt.kind, res.Kind)
			require.NotEmpty(t, res.Error)
			require.Equal(t, before, f.ctx.Snapshot())
			require.False(t, f.records.has(f.key()))
		})
	}
}

func TestLogin_UnreachableIsNotWrongPassword(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceCandidate)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return domain.Grant{}, domain.ErrInvalidCredentials
	}
	wrong := f.ctx.Login(context.Background(), "a@x.com", "pw")

	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return domain.Grant{}, domain.ErrUnreachable
	}
	down := f.ctx.Login(context.Background(), "a@x.com", "pw")

	require.NotEqual(t, wrong.Error, down.Error)
}

func TestLogin_EmptyFieldsSkipNetwork(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	for _, in := range [][2]string{{"", "pw"}, {"a@x.com", ""}, {"   ", "pw"}} {
		res := f.ctx.Login(context.Background(), in[0], in[1])
		require.False(t, res.Success)
		require.Equal(t, domain.KindInvalidCredentials, res.Kind)
	}
	require.Zero(t, f.v.verifyCalls.Load())
}

func TestLogin_StoreFailureFailsLogin(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", false), nil
	}
	f.records.failPut = errors.New("disk full")

	res := f.ctx.Login(context.Background(), "a@x.com", "pw1234")
	require.False(t, res.Success)
	require.Equal(t, domain.KindInternal, res.Kind)
	require.Equal(t, identity.StateAnonymous, f.ctx.Snapshot().State)
}

func TestForcedRotationScenario(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceCandidate)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", true), nil
	}
	var gotCurrent, gotNext string
	f.v.rotate = func(_ context.Context, token, current, next string) (domain.Grant, error) {
		require.Equal(t, "tok-1", token)
		gotCurrent, gotNext = current, next
		return domain.Grant{}, nil
	}

	ctx := context.Background()
	res := f.ctx.Login(ctx, "a@x.com", "temp123")
	require.True(t, res.Success)
	require.Equal(t, identity.StatePendingRotation, f.ctx.Snapshot().State)

	ch := f.ctx.ChangePassword(ctx, "temp123", "temp123", "temp123")
	require.False(t, ch.Success)
	require.Equal(t, domain.KindWeakOrReusedSecret, ch.Kind)
	require.Equal(t, identity.StatePendingRotation, f.ctx.Snapshot().State)
	require.Zero(t, f.v.rotateCalls.Load())

	ch = f.ctx.ChangePassword(ctx, "temp123", "newSecret1", "newSecret1")
	require.True(t, ch.Success, ch.Error)
	require.Equal(t, "temp123", gotCurrent)
	require.Equal(t, "newSecret1", gotNext)

	snap := f.ctx.Snapshot()
	require.Equal(t, identity.StateAuthenticated, snap.State)
	require.True(t, snap.Capabilities.CandidatePortal)
	require.Equal(t, "u1", snap.Profile.SubjectID, "profile kept when the backend omits it")
	require.False(t, f.ctx.HasCapturedSecret())

	rec, err := f.records.Get(ctx, f.key())
	require.NoError(t, err)
	require.False(t, rec.MustRotateCredential)
}

func TestChangePassword_UsesCapturedSecret(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", true), nil
	}
	var gotCurrent string
	f.v.rotate = func(_ context.Context, _, current, _ string) (domain.Grant, error) {
		gotCurrent = current
		return grant("u1", "tok-2", false), nil
	}

	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "temp123").Success)

	res := f.ctx.ChangePassword(context.Background(), "", "newSecret1", "newSecret1")
	require.True(t, res.Success, res.Error)
	require.Equal(t, "temp123", gotCurrent)

	rec, err := f.records.Get(context.Background(), f.key())
	require.NoError(t, err)
	require.Equal(t, "tok-2", rec.SessionToken)
}

func TestChangePassword_ForcedRotationRejectsRetypedSecret(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceCandidate)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", true), nil
	}
	var gotCurrent string
	f.v.rotate = func(_ context.Context, _, current, _ string) (domain.Grant, error) {
		gotCurrent = current
		return grant("u1", "tok-2", false), nil
	}
	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "temp123").Success)

	res := f.ctx.ChangePassword(context.Background(), "typed-later", "newSecret1", "newSecret1")
	require.False(t, res.Success)
	require.Equal(t, domain.KindCurrentSecretMismatch, res.Kind)
	require.Zero(t, f.v.rotateCalls.Load())
	require.Equal(t, identity.StatePendingRotation, f.ctx.Snapshot().State)
	require.True(t, f.ctx.HasCapturedSecret())

	res = f.ctx.ChangePassword(context.Background(), "temp123", "newSecret1", "newSecret1")
	require.True(t, res.Success, res.Error)
	require.Equal(t, "temp123", gotCurrent)
}

func TestChangePassword_CapturedSecretExpires(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.AudienceStaff, identity.Options{CapturedSecretTTL: time.Minute})
	f.ctx.Restore(context.Background())
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", true), nil
	}
	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "temp123").Success)
	require.True(t, f.ctx.HasCapturedSecret())

	f.now = f.now.Add(2 * time.Minute)
	require.False(t, f.ctx.HasCapturedSecret())

	res := f.ctx.ChangePassword(context.Background(), "", "newSecret1", "newSecret1")
	require.False(t, res.Success)
	require.Equal(t, domain.KindCurrentSecretRequired, res.Kind)
	require.Zero(t, f.v.rotateCalls.Load())
	require.Equal(t, identity.StatePendingRotation, f.ctx.Snapshot().State)
}

func TestChangePassword_LocalValidation(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", true), nil
	}
	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "temp123").Success)

	tests := []struct {
		name                   string
		current, next, confirm string
		kind                   domain.Kind
	}{
		{"confirmation mismatch", "temp123", "newSecret1", "newSecret2", domain.KindConfirmationMismatch},
		{"empty", "temp123", "", "", domain.KindWeakOrReusedSecret},
		{"too short", "temp123", "abc", "abc", domain.KindWeakOrReusedSecret},
		{"unchanged", "temp123", "temp123", "temp123", domain.KindWeakOrReusedSecret},
		{"unchanged captured", "", "temp123", "temp123", domain.KindWeakOrReusedSecret},
	}
	for _, tt := range tests {
		res := f.ctx.ChangePassword(context.Background(), tt.current, tt.next, tt.confirm)
		require.False(t, res.Success, tt.name)
		require.Equal(t, tt.kind, res.Kind, tt.name)
	}
	require.Zero(t, f.v.rotateCalls.Load())
	require.Equal(t, identity.StatePendingRotation, f.ctx.Snapshot().State)
}

func TestChangePassword_RemoteFailures(t *testing.T) {
	t.Parallel()

	t.Run("mismatch keeps pending rotation", func(t *testing.T) {
		t.Parallel()
		f := settled(t, domain.AudienceStaff)
		f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
			return grant("u1", "tok-1", true), nil
		}
		f.v.rotate = func(context.Context, string, string, string) (domain.Grant, error) {
			return domain.Grant{}, domain.ErrCurrentSecretMismatch
		}
		require.True(t, f.ctx.Login(context.Background(), "a@x.com", "temp123").Success)

		res := f.ctx.ChangePassword(context.Background(), "", "newSecret1", "newSecret1")
		require.Equal(t, domain.KindCurrentSecretMismatch, res.Kind)
		require.Equal(t, identity.StatePendingRotation, f.ctx.Snapshot().State)
		require.True(t, f.records.has(f.key()))
	})

	t.Run("unauthenticated expires session", func(t *testing.T) {
		t.Parallel()
		f := settled(t, domain.AudienceStaff)
		f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
			return grant("u1", "tok-1", true), nil
		}
		f.v.rotate = func(context.Context, string, string, string) (domain.Grant, error) {
			return domain.Grant{}, domain.ErrUnauthenticated
		}
		require.True(t, f.ctx.Login(context.Background(), "a@x.com", "temp123").Success)

		res := f.ctx.ChangePassword(context.Background(), "", "newSecret1", "newSecret1")
		require.Equal(t, domain.KindUnauthenticated, res.Kind)
		require.Equal(t, identity.StateAnonymous, f.ctx.Snapshot().State)
		require.False(t, f.records.has(f.key()))
	})
}

func TestChangePassword_RequiresSession(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	res := f.ctx.ChangePassword(context.Background(), "old-secret", "newSecret1", "newSecret1")
	require.False(t, res.Success)
	require.Equal(t, domain.KindUnauthenticated, res.Kind)
	require.Zero(t, f.v.rotateCalls.Load())
}

func TestChangePassword_VoluntaryNeedsCurrent(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", false), nil
	}
	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "oldSecret").Success)

	res := f.ctx.ChangePassword(context.Background(), "", "newSecret1", "newSecret1")
	require.Equal(t, domain.KindCurrentSecretRequired, res.Kind)

	res = f.ctx.ChangePassword(context.Background(), "oldSecret", "newSecret1", "newSecret1")
	require.True(t, res.Success)
	require.Equal(t, identity.StateAuthenticated, f.ctx.Snapshot().State)
}

func TestChangePassword_WaitsForInFlightLogin(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	started := make(chan struct{})
	proceed := make(chan struct{})
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		close(started)
		<-proceed
		return grant("u1", "tok-1", true), nil
	}
	rotatedWith := make(chan string, 1)
	f.v.rotate = func(_ context.Context, token, _, _ string) (domain.Grant, error) {
		rotatedWith <- token
		return domain.Grant{}, nil
	}

	loginDone := make(chan identity.LoginResult, 1)
	go func() { loginDone <- f.ctx.Login(context.Background(), "a@x.com", "temp123") }()
	<-started

	changeDone := make(chan identity.ChangeResult, 1)
	go func() {
		changeDone <- f.ctx.ChangePassword(context.Background(), "", "newSecret1", "newSecret1")
	}()

	// Still Anonymous here; evaluating now would fail with no session.
	select {
	case res := <-changeDone:
		t.Fatalf("change password completed before login settled: %+v", res)
	case <-time.After(20 * time.Millisecond):
	}

	close(proceed)
	require.True(t, (<-loginDone).Success)

	res := <-changeDone
	require.True(t, res.Success, res.Error)
	require.Equal(t, "tok-1", <-rotatedWith)
	require.Equal(t, identity.StateAuthenticated, f.ctx.Snapshot().State)
}

func TestLogin_CancelledCallerStillSettles(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	ctx, cancel := context.WithCancel(context.Background())
	f.v.verify = func(callCtx context.Context, _, _ string) (domain.Grant, error) {
		cancel()
		require.NoError(t, callCtx.Err(), "backend call outlives the caller")
		return grant("u1", "tok-1", false), nil
	}

	res := f.ctx.Login(ctx, "a@x.com", "pw1234")
	require.True(t, res.Success)
	require.Equal(t, identity.StateAuthenticated, f.ctx.Snapshot().State)
	require.True(t, f.records.has(f.key()))
}

func TestLogout(t *testing.T) {
	t.Parallel()

	t.Run("clears record and state", func(t *testing.T) {
		t.Parallel()
		f := settled(t, domain.AudienceStaff)
		f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
			return grant("u1", "tok-1", true), nil
		}
		var invalidated string
		f.v.invalidate = func(_ context.Context, token string) error {
			invalidated = token
			return nil
		}
		require.True(t, f.ctx.Login(context.Background(), "a@x.com", "temp123").Success)

		f.ctx.Logout(context.Background())

		require.Equal(t, identity.StateAnonymous, f.ctx.Snapshot().State)
		require.False(t, f.records.has(f.key()))
		require.False(t, f.ctx.HasCapturedSecret())
		require.Equal(t, "tok-1", invalidated)
	})

	t.Run("backend failure still logs out", func(t *testing.T) {
		t.Parallel()
		f := settled(t, domain.AudienceCandidate)
		f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
			return grant("u1", "tok-1", false), nil
		}
		f.v.invalidate = func(context.Context, string) error { return domain.ErrUnreachable }
		require.True(t, f.ctx.Login(context.Background(), "a@x.com", "pw1234").Success)

		f.ctx.Logout(context.Background())

		require.Equal(t, identity.StateAnonymous, f.ctx.Snapshot().State)
		require.False(t, f.records.has(f.key()))
	})

	t.Run("failed delete is retried on close", func(t *testing.T) {
		t.Parallel()
		f := settled(t, domain.AudienceStaff)
		f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
			return grant("u1", "tok-1", false), nil
		}
		require.True(t, f.ctx.Login(context.Background(), "a@x.com", "pw1234").Success)

		f.records.fail(nil, errors.New("disk I/O error"))
		f.ctx.Logout(context.Background())
		require.Equal(t, identity.StateAnonymous, f.ctx.Snapshot().State)
		require.True(t, f.records.has(f.key()))

		f.records.fail(nil, nil)
		f.ctx.Close()
		require.False(t, f.records.has(f.key()))
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		f := settled(t, domain.AudienceStaff)
		v := f.ctx.Snapshot().Version

		f.ctx.Logout(context.Background())
		f.ctx.Logout(context.Background())

		require.Equal(t, identity.StateAnonymous, f.ctx.Snapshot().State)
		require.Equal(t, v, f.ctx.Snapshot().Version)
		require.Zero(t, f.v.invalidateCalls.Load())
	})
}

func TestAudiencesAreIndependent(t *testing.T) {
	t.Parallel()

	v := &fakeVerifier{verify: func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", false), nil
	}}
	records := newMemRecords()
	build := func(aud domain.Audience) *identity.Context {
		c := identity.New(identity.Binding{ClientID: clientID, Audience: aud, Verifier: v, Records: records}, identity.Options{})
		t.Cleanup(c.Close)
		c.Restore(context.Background())
		return c
	}
	staff := build(domain.AudienceStaff)
	candidate := build(domain.AudienceCandidate)

	require.True(t, staff.Login(context.Background(), "a@x.com", "pw1234").Success)
	require.Equal(t, identity.StateAuthenticated, staff.Snapshot().State)
	require.Equal(t, identity.StateAnonymous, candidate.Snapshot().State)

	require.True(t, candidate.Login(context.Background(), "a@x.com", "pw1234").Success)
	candidate.Logout(context.Background())

	require.True(t, records.has(domain.SessionKey{ClientID: clientID, Audience: domain.AudienceStaff}))
	require.False(t, records.has(domain.SessionKey{ClientID: clientID, Audience: domain.AudienceCandidate}))
	require.Equal(t, identity.StateAuthenticated, staff.Snapshot().State)
}

func TestDo_LazyExpiry(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", false), nil
	}
	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "pw1234").Success)

	var seen string
	err := f.ctx.Do(context.Background(), func(_ context.Context, token string) error {
		seen = token
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "tok-1", seen)

	err = f.ctx.Do(context.Background(), func(context.Context, string) error {
		return domain.ErrUnauthenticated
	})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	require.Equal(t, identity.StateAnonymous, f.ctx.Snapshot().State)
	require.False(t, f.records.has(f.key()))

	err = f.ctx.Do(context.Background(), func(context.Context, string) error { return nil })
	require.ErrorIs(t, err, domain.ErrNoSession)
}

func TestDo_OtherErrorsKeepSession(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", false), nil
	}
	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "pw1234").Success)

	err := f.ctx.Do(context.Background(), func(context.Context, string) error { return domain.ErrUnreachable })
	require.ErrorIs(t, err, domain.ErrUnreachable)
	require.Equal(t, identity.StateAuthenticated, f.ctx.Snapshot().State)
}

func TestDo_PendingRotationHasNoAccess(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", true), nil
	}
	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "temp123").Success)

	called := false
	err := f.ctx.Do(context.Background(), func(context.Context, string) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, domain.ErrNoSession)
	require.False(t, called)
}

func TestExpire_IgnoresStaleToken(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	tokens := []string{"tok-1", "tok-2"}
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		tok := tokens[0]
		tokens = tokens[1:]
		return grant("u1", tok, false), nil
	}
	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "pw1234").Success)
	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "pw1234").Success)

	f.ctx.Expire(context.Background(), "tok-1")
	require.Equal(t, identity.StateAuthenticated, f.ctx.Snapshot().State)

	f.ctx.Expire(context.Background(), "tok-2")
	require.Equal(t, identity.StateAnonymous, f.ctx.Snapshot().State)
}

func TestRefreshProfile(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", false), nil
	}
	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "pw1234").Success)

	f.v.probe = func(context.Context, string) (domain.Grant, error) {
		g := grant("u1", "", false)
		g.Profile.Role = domain.RoleAdmin
		return g, nil
	}
	snap, err := f.ctx.RefreshProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, snap.Profile.Role)
	require.True(t, snap.Capabilities.Governance)

	f.v.probe = func(context.Context, string) (domain.Grant, error) {
		return domain.Grant{}, domain.ErrUnauthenticated
	}
	snap, err = f.ctx.RefreshProfile(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	require.Equal(t, identity.StateAnonymous, snap.State)

	_, err = f.ctx.RefreshProfile(context.Background())
	require.ErrorIs(t, err, domain.ErrNoSession)
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", false), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, stop := f.ctx.Subscribe(ctx)
	defer stop()

	first := <-ch
	require.Equal(t, identity.StateAnonymous, first.State)
	require.Equal(t, 1, f.ctx.Subscribers())

	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "pw1234").Success)
	next := <-ch
	require.Equal(t, identity.StateAuthenticated, next.State)
	require.Greater(t, next.Version, first.Version)

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 5*time.Millisecond)
	require.Zero(t, f.ctx.Subscribers())
}

func TestSubscribe_LatestWins(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	f.v.verify = func(context.Context, string, string) (domain.Grant, error) {
		return grant("u1", "tok-1", false), nil
	}
	ch, stop := f.ctx.Subscribe(context.Background())
	defer stop()

	require.True(t, f.ctx.Login(context.Background(), "a@x.com", "pw1234").Success)
	f.ctx.Logout(context.Background())

	got := <-ch
	require.Equal(t, identity.StateAnonymous, got.State)
	require.Equal(t, f.ctx.Snapshot().Version, got.Version)
}

func TestClose(t *testing.T) {
	t.Parallel()

	f := settled(t, domain.AudienceStaff)
	ch, stop := f.ctx.Subscribe(context.Background())
	defer stop()
	<-ch

	f.ctx.Close()
	_, open := <-ch
	require.False(t, open)

	res := f.ctx.Login(context.Background(), "a@x.com", "pw1234")
	require.False(t, res.Success)
	require.Zero(t, f.v.verifyCalls.Load())

	closed, _ := f.ctx.Subscribe(context.Background())
	_, open = <-closed
	require.False(t, open)
}
