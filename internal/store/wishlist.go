package store

import (
	"context"
	"database/sql"

	"storefront-service/internal/models"
)

// GetWishlistItem retrieves a wishlist entry for a (customer, product) pair, or nil.
func (s *Store) GetWishlistItem(ctx context.Context, customerID, productID string) (*models.WishlistItem, error) {
	var w models.WishlistItem
	err := s.db.GetContext(ctx, &w,
		"SELECT * FROM wishlist_items WHERE customer_id = $1 AND product_id = $2", customerID, productID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWishlistItem inserts a wishlist entry; the pair unique index guards
// against concurrent duplicates.
func (s *Store) CreateWishlistItem(ctx context.Context, w *models.WishlistItem) error {
	if w.ID == "" {
		w.ID = newID("wish")
	}

	query := `
		INSERT INTO wishlist_items (id, customer_id, product_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	row := s.db.QueryRowxContext(ctx, query, w.ID, w.CustomerID, w.ProductID)
	if err := row.Scan(&w.CreatedAt); err != nil {
		return uniqueViolation(err, "product already in wishlist")
	}
	return nil
}

// DeleteWishlistItem removes an entry by pair, reporting whether a row was deleted.
func (s *Store) DeleteWishlistItem(ctx context.Context, customerID, productID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM wishlist_items WHERE customer_id = $1 AND product_id = $2", customerID, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListWishlist retrieves a customer's wishlist entries, newest first.
func (s *Store) ListWishlist(ctx context.Context, customerID string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM wishlist_items WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	return items, err
}
