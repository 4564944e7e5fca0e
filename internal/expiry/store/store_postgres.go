package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vouch/internal/expiry"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// PostgresStore persists tracker records in PostgreSQL. The (item_type,
// item_id) primary key enforces single registration; schedule queries are an
// index scan on expiry.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed tracker store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, rec *expiry.Record) error {
	if rec == nil {
		return fmt.Errorf("expiry record is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expiry_records (item_type, item_id, expiry, expired, registered_by, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		string(rec.Key.Type),
		int64(rec.Key.ID),
		int64(rec.Expiry),
		rec.Expired,
		string(rec.RegisteredBy),
		int64(rec.RegisteredAt),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save expiry record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key expiry.Key) (*expiry.Record, error) {
	rec, err := scanExpiry(s.db.QueryRowContext(ctx, `
		SELECT item_type, item_id, expiry, expired, registered_by, registered_at
		FROM expiry_records
		WHERE item_type = $1 AND item_id = $2
	`, string(key.Type), int64(key.ID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get expiry record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) SetExpired(ctx context.Context, key expiry.Key) error {
	return s.update(ctx, `
		UPDATE expiry_records SET expired = TRUE
		WHERE item_type = $1 AND item_id = $2
	`, string(key.Type), int64(key.ID))
}

func (s *PostgresStore) SetExpiry(ctx context.Context, key expiry.Key, at domain.Time) error {
	return s.update(ctx, `
		UPDATE expiry_records SET expiry = $3, expired = FALSE
		WHERE item_type = $1 AND item_id = $2
	`, string(key.Type), int64(key.ID), int64(at))
}

func (s *PostgresStore) ListExpiringAt(ctx context.Context, at domain.Time) ([]*expiry.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_type, item_id, expiry, expired, registered_by, registered_at
		FROM expiry_records
		WHERE expiry = $1
		ORDER BY item_type, item_id
	`, int64(at))
	if err != nil {
		return nil, fmt.Errorf("list expiring records: %w", err)
	}
	defer rows.Close()

	records := []*expiry.Record{}
	for rows.Next() {
		rec, err := scanExpiry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expiry record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expiry records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update expiry record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expiry record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpiry(row rowScanner) (*expiry.Record, error) {
	var (
		rec          expiry.Record
		itemType     string
		itemID       int64
		expiresAt    int64
		registeredBy string
		registeredAt int64
	)
	if err := row.Scan(&itemType, &itemID, &expiresAt, &rec.Expired, &registeredBy, &registeredAt); err != nil {
		return nil, err
	}
	rec.Key = expiry.Key{Type: expiry.ItemType(itemType), ID: uint64(itemID)}
	rec.Expiry = domain.Time(expiresAt)
	rec.RegisteredBy = domain.Identity(registeredBy)
	rec.RegisteredAt = domain.Time(registeredAt)
	return &rec, nil
}
