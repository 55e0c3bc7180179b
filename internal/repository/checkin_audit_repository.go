package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/event-ticket-storefront/internal/model"
)

// CheckInAuditRepo appends and lists rows of the checkin_audit table.
type CheckInAuditRepo struct{ DB *sql.DB }

func NewCheckInAuditRepo(db *sql.DB) *CheckInAuditRepo { return &CheckInAuditRepo{DB: db} }

// Record inserts one audit row. CreatedAt defaults to now.
func (r *CheckInAuditRepo) Record(ctx context.Context, a model.CheckInAudit) error {
	if a.TransactionID == "" || a.Action == "" || a.Outcome == "" {
		return ErrInvalidAudit
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO checkin_audit
		   (transaction_id, action, actor, from_verified, to_verified, outcome, message, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		a.TransactionID, a.Action, a.Actor, a.FromVerified, a.ToVerified, a.Outcome, a.Message, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert checkin_audit: %w", err)
	}
	return nil
}

// ListByTransaction returns the newest rows for a ticket first.
func (r *CheckInAuditRepo) ListByTransaction(ctx context.Context, transactionID string, limit int) ([]model.CheckInAudit, error) {
	switch {
	case limit <= 0:
		limit = 50
	case limit > 200:
		limit = 200
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, transaction_id, action, actor, from_verified, to_verified, outcome, message, created_at
		   FROM checkin_audit
		  WHERE transaction_id=?
		  ORDER BY created_at DESC, id DESC
		  LIMIT ?`,
		transactionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CheckInAudit{}
	for rows.Next() {
		var a model.CheckInAudit
		if err := rows.Scan(&a.ID, &a.TransactionID, &a.Action, &a.Actor,
			&a.FromVerified, &a.ToVerified, &a.Outcome, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
