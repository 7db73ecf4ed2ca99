package identity_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/store"
)

// fakeVerifier answers from function fields and counts calls.
type fakeVerifier struct {
	verify     func(ctx context.Context, identifier, secret string) (domain.Grant, error)
	rotate     func(ctx context.Context, token, current, next string) (domain.Grant, error)
	probe      func(ctx context.Context, token string) (domain.Grant, error)
	invalidate func(ctx context.Context, token string) error

	verifyCalls     atomic.Int32
	rotateCalls     atomic.Int32
	probeCalls      atomic.Int32
	invalidateCalls atomic.Int32
}

func (f *fakeVerifier) Verify(ctx context.Context, _ domain.Audience, identifier, secret string) (domain.Grant, error) {
	f.verifyCalls.Add(1)
	if f.verify == nil {
		return domain.Grant{}, domain.ErrInvalidCredentials
	}
	return f.verify(ctx, identifier, secret)
}

func (f *fakeVerifier) RotateCredential(ctx context.Context, _ domain.Audience, token, current, next string) (domain.Grant, error) {
	f.rotateCalls.Add(1)
	if f.rotate == nil {
		return domain.Grant{}, nil
	}
	return f.rotate(ctx, token, current, next)
}

func (f *fakeVerifier) Probe(ctx context.Context, _ domain.Audience, token string) (domain.Grant, error) {
	f.probeCalls.Add(1)
	if f.probe == nil {
		return domain.Grant{}, domain.ErrUnreachable
	}
	return f.probe(ctx, token)
}

func (f *fakeVerifier) Invalidate(ctx context.Context, _ domain.Audience, token string) error {
	f.invalidateCalls.Add(1)
	if f.invalidate == nil {
		return nil
	}
	return f.invalidate(ctx, token)
}

// memRecords is an in-memory store.SessionRecords.
type memRecords struct {
	mu      sync.Mutex
	recs    map[domain.SessionKey]domain.SessionRecord
	failPut    error
	failGet    error
	failDelete error
}

func newMemRecords() *memRecords {
	return &memRecords{recs: make(map[domain.SessionKey]domain.SessionRecord)}
}

func (m *memRecords) Get(_ context.Context, key domain.SessionKey) (domain.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return domain.SessionRecord{}, m.failGet
	}
	rec, ok := m.recs[key]
	if !ok {
		return domain.SessionRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (m *memRecords) Put(_ context.Context, rec domain.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	m.recs[rec.Key()] = rec
	return nil
}

func (m *memRecords) Delete(_ context.Context, key domain.SessionKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	delete(m.recs, key)
	return nil
}

func (m *memRecords) ListStale(context.Context, time.Time, time.Time, int) ([]domain.SessionKey, error) {
	return nil, errors.New("not implemented")
}

func (m *memRecords) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.recs)), nil
}

func (m *memRecords) fail(get, del error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failGet, m.failDelete = get, del
}

func (m *memRecords) has(key domain.SessionKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.recs[key]
	return ok
}

func grant(subject, token string, mustRotate bool) domain.Grant {
	return domain.Grant{
		SubjectID:            subject,
		SessionToken:         token,
		MustRotateCredential: mustRotate,
		Profile: domain.Profile{
			SubjectID: subject,
			Name:      "Alex",
			Email:     subject + "@x.com",
			Role:      domain.RoleRecruiter,
		},
	}
}
