package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"vouch/pkg/domain"
	"vouch/pkg/platform/audit"
)

// Store implements audit.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an audit event into the audit_events table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, name, actor, subject_id, issuer_id, attestation_id,
			grant_id, grantee, item_type, item_id, logical_time,
			created_at, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		event.Name,
		string(event.Actor),
		nullableID(uint64(event.SubjectID)),
		nullableID(uint64(event.IssuerID)),
		nullableID(uint64(event.AttestationID)),
		nullableID(uint64(event.GrantID)),
		string(event.Grantee),
		event.ItemType,
		nullableID(event.ItemID),
		int64(event.LogicalTime),
		event.Timestamp,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByActor returns events for one actor identity in append order.
func (s *Store) ListByActor(ctx context.Context, actor domain.Identity) ([]audit.Event, error) {
	query := `
		SELECT name, actor, subject_id, issuer_id, attestation_id,
		       grant_id, grantee, item_type, item_id, logical_time,
		       created_at, request_id
		FROM audit_events
		WHERE actor = $1
		ORDER BY created_at, logical_time
	`
	rows, err := s.db.QueryContext(ctx, query, string(actor))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e          audit.Event
			actorStr   string
			granteeStr string
			subject    sql.NullInt64
			issuer     sql.NullInt64
			attID      sql.NullInt64
			grantID    sql.NullInt64
			itemID     sql.NullInt64
			logical    int64
		)
		if err := rows.Scan(&e.Name, &actorStr, &subject, &issuer, &attID,
			&grantID, &granteeStr, &e.ItemType, &itemID, &logical,
			&e.Timestamp, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Actor = domain.Identity(actorStr)
		e.Grantee = domain.Identity(granteeStr)
		e.SubjectID = domain.SubjectID(subject.Int64)
		e.IssuerID = domain.ProviderID(issuer.Int64)
		e.AttestationID = domain.AttestationID(attID.Int64)
		e.GrantID = domain.GrantID(grantID.Int64)
		e.ItemID = uint64(itemID.Int64)
		e.LogicalTime = domain.Time(logical)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// nullableID maps zero ids to NULL so the table stays queryable by presence.
func nullableID(v uint64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}
