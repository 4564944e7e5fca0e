package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vouch/internal/attestation"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// PostgresStore persists attestation records in PostgreSQL. The monotonic id
// comes from the table's bigserial sequence; the secondary indices are real
// database indexes, which removes the fixed capacity ceilings of the original
// index lists while keeping insertion order (id order) on reads.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed attestation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record *attestation.Record) error {
	if record == nil {
		return fmt.Errorf("attestation record is required")
	}
	query := `
		INSERT INTO attestations (subject_id, issuer_id, check_type, status, issued_at, valid_until, issuer_identity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		int64(record.SubjectID),
		int64(record.IssuerID),
		string(record.CheckType),
		string(record.Status),
		int64(record.IssuedAt),
		int64(record.ValidUntil),
		string(record.IssuerIdentity),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("save attestation: %w", err)
	}
	record.ID = domain.AttestationID(id)
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.AttestationID) (*attestation.Record, error) {
	query := `
		SELECT id, subject_id, issuer_id, check_type, status, issued_at, valid_until, issuer_identity
		FROM attestations
		WHERE id = $1
	`
	record, err := scanAttestation(s.db.QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get attestation: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) SetValidUntil(ctx context.Context, id domain.AttestationID, validUntil domain.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE attestations SET valid_until = $2 WHERE id = $1`,
		int64(id), int64(validUntil),
	)
	if err != nil {
		return fmt.Errorf("update attestation validity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attestation validity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*attestation.Record, error) {
	return s.list(ctx, `
		SELECT id, subject_id, issuer_id, check_type, status, issued_at, valid_until, issuer_identity
		FROM attestations
		WHERE subject_id = $1
		ORDER BY id
	`, int64(subjectID))
}

func (s *PostgresStore) ListByIssuer(ctx context.Context, issuerID domain.ProviderID) ([]*attestation.Record, error) {
	return s.list(ctx, `
		SELECT id, subject_id, issuer_id, check_type, status, issued_at, valid_until, issuer_identity
		FROM attestations
		WHERE issuer_id = $1
		ORDER BY id
	`, int64(issuerID))
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*attestation.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list attestations: %w", err)
	}
	defer rows.Close()

	records := []*attestation.Record{}
	for rows.Next() {
		record, err := scanAttestation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attestation: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attestations: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttestation(row rowScanner) (*attestation.Record, error) {
	var (
		record         attestation.Record
		id, subject    int64
		issuer         int64
		checkType      string
		status         string
		issuedAt       int64
		validUntil     int64
		issuerIdentity string
	)
	if err := row.Scan(&id, &subject, &issuer, &checkType, &status, &issuedAt, &validUntil, &issuerIdentity); err != nil {
		return nil, err
	}
	record.ID = domain.AttestationID(id)
	record.SubjectID = domain.SubjectID(subject)
	record.IssuerID = domain.ProviderID(issuer)
	record.CheckType = attestation.CheckType(checkType)
	record.Status = attestation.Status(status)
	record.IssuedAt = domain.Time(issuedAt)
	record.ValidUntil = domain.Time(validUntil)
	record.IssuerIdentity = domain.Identity(issuerIdentity)
	return &record, nil
}
