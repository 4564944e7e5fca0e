package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vouch/internal/grant"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// PostgresStore persists grant records in PostgreSQL. The active-pair
// lookup rides a partial unique index on (grantee, attestation_id) WHERE
// active, so the one-active-grant-per-pair invariant holds even if a future
// caller bypasses the serialized write path.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed grant store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, rec *grant.Record) error {
	if rec == nil {
		return fmt.Errorf("grant record is required")
	}
	query := `
		INSERT INTO grants (subject_id, grantee, attestation_id, granted_at, expiry, active, granter_identity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		int64(rec.SubjectID),
		string(rec.Grantee),
		int64(rec.AttestationID),
		int64(rec.GrantedAt),
		int64(rec.Expiry),
		rec.Active,
		string(rec.GranterIdentity),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("save grant: %w", err)
	}
	rec.ID = domain.GrantID(id)
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.GrantID) (*grant.Record, error) {
	query := `
		SELECT id, subject_id, grantee, attestation_id, granted_at, expiry, active, granter_identity
		FROM grants
		WHERE id = $1
	`
	rec, err := scanGrant(s.db.QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get grant: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, id domain.GrantID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE grants SET active = FALSE WHERE id = $1`,
		int64(id),
	)
	if err != nil {
		return fmt.Errorf("deactivate grant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate grant: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ActiveGrant(ctx context.Context, grantee domain.Identity, attestationID domain.AttestationID) (*grant.Record, error) {
	query := `
		SELECT id, subject_id, grantee, attestation_id, granted_at, expiry, active, granter_identity
		FROM grants
		WHERE grantee = $1 AND attestation_id = $2 AND active
	`
	rec, err := scanGrant(s.db.QueryRowContext(ctx, query, string(grantee), int64(attestationID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lookup active grant: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListByGrantee(ctx context.Context, grantee domain.Identity) ([]*grant.Record, error) {
	return s.list(ctx, `
		SELECT id, subject_id, grantee, attestation_id, granted_at, expiry, active, granter_identity
		FROM grants
		WHERE grantee = $1
		ORDER BY id
	`, string(grantee))
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*grant.Record, error) {
	return s.list(ctx, `
		SELECT id, subject_id, grantee, attestation_id, granted_at, expiry, active, granter_identity
		FROM grants
		WHERE subject_id = $1
		ORDER BY id
	`, int64(subjectID))
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*grant.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	records := []*grant.Record{}
	for rows.Next() {
		rec, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (*grant.Record, error) {
	var (
		rec           grant.Record
		id, subject   int64
		grantee       string
		attestationID int64
		grantedAt     int64
		expiry        int64
		granter       string
	)
	if err := row.Scan(&id, &subject, &grantee, &attestationID, &grantedAt, &expiry, &rec.Active, &granter); err != nil {
		return nil, err
	}
	rec.ID = domain.GrantID(id)
	rec.SubjectID = domain.SubjectID(subject)
	rec.Grantee = domain.Identity(grantee)
	rec.AttestationID = domain.AttestationID(attestationID)
	rec.GrantedAt = domain.Time(grantedAt)
	rec.Expiry = domain.Time(expiry)
	rec.GranterIdentity = domain.Identity(granter)
	return &rec, nil
}
