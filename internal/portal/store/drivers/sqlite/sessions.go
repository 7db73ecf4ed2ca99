package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/store"
)

type sessionsRepo struct {
	q      DBTX
	sealer store.TokenSealer
}

const getSessionRecord = `
SELECT client_id, audience, subject_id, token_sealed, name, email, role, org_client_id,
       must_rotate, token_expires_at, created_at, updated_at
FROM session_records
WHERE client_id = ? AND audience = ?`

func (r *sessionsRepo) Get(ctx context.Context, key domain.SessionKey) (domain.SessionRecord, error) {
	var (
		rec        domain.SessionRecord
		aud        string
		sealed     string
		mustRotate int64
		expiresAt  sql.NullInt64
		created    int64
		updated    int64
	)
	err := r.q.QueryRowContext(ctx, getSessionRecord, key.ClientID, key.Audience.String()).Scan(
		&rec.ClientID, &aud, &rec.SubjectID, &sealed,
		&rec.Profile.Name, &rec.Profile.Email, &rec.Profile.Role, &rec.Profile.ClientID,
		&mustRotate, &expiresAt, &created, &updated,
	)
	if err != nil {
		return domain.SessionRecord{}, mapNotFound(err)
	}

	token, err := r.sealer.Open(sealed, store.SealAAD(key))
	if err != nil || token == "" {
		return domain.SessionRecord{}, fmt.Errorf("%w: %s/%s", store.ErrUnreadable, key.ClientID, key.Audience)
	}

	rec.Audience = domain.Audience(aud)
	rec.SessionToken = token
	rec.Profile.SubjectID = rec.SubjectID
	rec.MustRotateCredential = mustRotate != 0
	rec.TokenExpiresAt = mapNullMillisPtr(expiresAt)
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)
	return rec, nil
}

const upsertSessionRecord = `
INSERT INTO session_records (
    client_id, audience, subject_id, token_sealed, name, email, role, org_client_id,
    must_rotate, token_expires_at, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (client_id, audience) DO UPDATE SET
    subject_id       = excluded.subject_id,
    token_sealed     = excluded.token_sealed,
    name             = excluded.name,
    email            = excluded.email,
    role             = excluded.role,
    org_client_id    = excluded.org_client_id,
    must_rotate      = excluded.must_rotate,
    token_expires_at = excluded.token_expires_at,
    updated_at       = excluded.updated_at`

func (r *sessionsRepo) Put(ctx context.Context, rec domain.SessionRecord) error {
	if rec.ClientID == "" || !rec.Audience.Valid() {
		return fmt.Errorf("store: invalid session key %q/%q", rec.ClientID, rec.Audience)
	}
	if rec.SessionToken == "" {
		return errors.New("store: session record without token")
	}

	sealed, err := r.sealer.Seal(rec.SessionToken, store.SealAAD(rec.Key()))
	if err != nil {
		return fmt.Errorf("store: seal token: %w", err)
	}

	created := rec.CreatedAt
	if created.IsZero() {
		created = rec.UpdatedAt
	}

	_, err = r.q.ExecContext(ctx, upsertSessionRecord,
		rec.ClientID, rec.Audience.String(), rec.SubjectID, sealed,
		rec.Profile.Name, rec.Profile.Email, rec.Profile.Role, rec.Profile.ClientID,
		boolToInt(rec.MustRotateCredential), mapOptionalMillis(rec.TokenExpiresAt),
		toMillis(created), toMillis(rec.UpdatedAt),
	)
	return err
}

const deleteSessionRecord = `DELETE FROM session_records WHERE client_id = ? AND audience = ?`

func (r *sessionsRepo) Delete(ctx context.Context, key domain.SessionKey) error {
	_, err := r.q.ExecContext(ctx, deleteSessionRecord, key.ClientID, key.Audience.String())
	return err
}

const listStaleSessionRecords = `
SELECT client_id, audience
FROM session_records
WHERE updated_at < ?
   OR (token_expires_at IS NOT NULL AND token_expires_at < ?)
ORDER BY updated_at
LIMIT ?`

func (r *sessionsRepo) ListStale(ctx context.Context, idleBefore, now time.Time, limit int) ([]domain.SessionKey, error) {
	rows, err := r.q.QueryContext(ctx, listStaleSessionRecords, toMillis(idleBefore), toMillis(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.SessionKey
	for rows.Next() {
		var clientID, aud string
		if err := rows.Scan(&clientID, &aud); err != nil {
			return nil, err
		}
		keys = append(keys, domain.SessionKey{ClientID: clientID, Audience: domain.Audience(aud)})
	}
	return keys, rows.Err()
}

func (r *sessionsRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_records`).Scan(&n)
	return n, err
}
