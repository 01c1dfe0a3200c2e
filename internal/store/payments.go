package store

import (
	"context"
	"database/sql"

	"storefront-service/internal/models"
)

// CreatePayment records a newly created gateway payment order.
func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = newID("pay")
	}

	query := `
		INSERT INTO payments (id, order_id, gateway_order_id, gateway_payment_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		p.ID, p.OrderID, p.GatewayOrderID, p.GatewayPayID, p.Amount, p.Currency, p.Status)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetPaymentByGatewayOrderID retrieves a payment by its gateway order id, or nil.
func (s *Store) GetPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.GetContext(ctx, &p,
		"SELECT * FROM payments WHERE gateway_order_id = $1", gatewayOrderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPaymentByOrderID retrieves the most recent payment for an order, or nil.
func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.GetContext(ctx, &p,
		"SELECT * FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1", orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePaymentStatus updates payment status and the gateway payment id.
func (s *Store) UpdatePaymentStatus(ctx context.Context, id, status string, gatewayPaymentID sql.NullString) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE payments SET status = $1, gateway_payment_id = $2, updated_at = NOW() WHERE id = $3",
		status, gatewayPaymentID, id)
	return err
}
