package store

import (
	"context"
	"database/sql"

	"storefront-service/internal/models"
)

// GetReviewByCustomerProduct retrieves a customer's review for a product, or nil.
func (s *Store) GetReviewByCustomerProduct(ctx context.Context, customerID, productID string) (*models.Review, error) {
	var r models.Review
	err := s.db.GetContext(ctx, &r,
		"SELECT * FROM reviews WHERE customer_id = $1 AND product_id = $2", customerID, productID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetReview retrieves a review by id, or nil.
func (s *Store) GetReview(ctx context.Context, id string) (*models.Review, error) {
	var r models.Review
	err := s.db.GetContext(ctx, &r, "SELECT * FROM reviews WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReview inserts a review. The (customer_id, product_id) unique index is
// the final guard against concurrent duplicates.
func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	if r.ID == "" {
		r.ID = newID("rev")
	}

	query := `
		INSERT INTO reviews (id, customer_id, product_id, rating, comment, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		r.ID, r.CustomerID, r.ProductID, r.Rating, r.Comment, r.IsApproved)
	if err := row.Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
		return uniqueViolation(err, "you have already reviewed this product")
	}
	return nil
}

// UpdateReview updates rating, comment and approval state.
func (s *Store) UpdateReview(ctx context.Context, r *models.Review) error {
	query := `
		UPDATE reviews
		SET rating = $1, comment = $2, is_approved = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	row := s.db.QueryRowxContext(ctx, query, r.Rating, r.Comment, r.IsApproved, r.ID)
	return row.Scan(&r.UpdatedAt)
}

// DeleteReview removes a review, reporting whether a row was deleted.
func (s *Store) DeleteReview(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListReviewsByProduct retrieves reviews for a product, newest first.
func (s *Store) ListReviewsByProduct(ctx context.Context, productID string, onlyApproved bool) ([]models.Review, error) {
	var reviews []models.Review
	query := "SELECT * FROM reviews WHERE product_id = $1 ORDER BY created_at DESC"
	if onlyApproved {
		query = "SELECT * FROM reviews WHERE product_id = $1 AND is_approved = true ORDER BY created_at DESC"
	}
	err := s.db.SelectContext(ctx, &reviews, query, productID)
	return reviews, err
}

// AverageRating returns the mean approved rating for a product, 0 if none.
func (s *Store) AverageRating(ctx context.Context, productID string) (float64, error) {
	var avg float64
	err := s.db.GetContext(ctx, &avg,
		"SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE product_id = $1 AND is_approved = true",
		productID)
	return avg, err
}
