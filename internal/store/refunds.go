package store

import (
	"context"
	"database/sql"

	"storefront-service/internal/models"
)

// CreateRefund inserts a pending refund.
func (s *Store) CreateRefund(ctx context.Context, r *models.Refund) error {
	if r.ID == "" {
		r.ID = newID("ref")
	}

	query := `
		INSERT INTO refunds (id, order_id, return_id, amount, type, status, reason, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		r.ID, r.OrderID, r.ReturnID, r.Amount, r.Type, r.Status, r.Reason, r.Note)
	return row.Scan(&r.CreatedAt, &r.UpdatedAt)
}

// GetRefund retrieves a refund by id, or nil.
func (s *Store) GetRefund(ctx context.Context, id string) (*models.Refund, error) {
	var r models.Refund
	err := s.db.GetContext(ctx, &r, "SELECT * FROM refunds WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRefundsByOrder retrieves refunds for an order, newest first.
func (s *Store) ListRefundsByOrder(ctx context.Context, orderID string) ([]models.Refund, error) {
	var refunds []models.Refund
	err := s.db.SelectContext(ctx, &refunds,
		"SELECT * FROM refunds WHERE order_id = $1 ORDER BY created_at DESC", orderID)
	return refunds, err
}

// UpdateRefundStatus updates status and note on a refund.
func (s *Store) UpdateRefundStatus(ctx context.Context, id, status string, note sql.NullString) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE refunds SET status = $1, note = $2, updated_at = NOW() WHERE id = $3",
		status, note, id)
	return err
}

// MarkRefundProcessed sets the processed status and timestamp.
func (s *Store) MarkRefundProcessed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE refunds SET status = $1, processed_at = NOW(), updated_at = NOW() WHERE id = $2",
		models.RefundStatusProcessed, id)
	return err
}
