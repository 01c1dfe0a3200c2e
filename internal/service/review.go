package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/util"
)

const (
	minRating = 1
	maxRating = 5
)

// ReviewStore is the persistence surface the review service needs.
type ReviewStore interface {
	GetReviewByCustomerProduct(ctx context.Context, customerID, productID string) (*models.Review, error)
	GetReview(ctx context.Context, id string) (*models.Review, error)
	CreateReview(ctx context.Context, r *models.Review) error
	UpdateReview(ctx context.Context, r *models.Review) error
	DeleteReview(ctx context.Context, id string) (bool, error)
	ListReviewsByProduct(ctx context.Context, productID string, onlyApproved bool) ([]models.Review, error)
	AverageRating(ctx context.Context, productID string) (float64, error)
}

// ReviewService handles product reviews. New and edited reviews re-enter the
// moderation queue (is_approved=false) until staff approves them.
type ReviewService struct {
	store  ReviewStore
	logger *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(st ReviewStore) *ReviewService {
	return &ReviewService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// ReviewInput carries review fields for create and update requests.
type ReviewInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment"`
}

func validateRating(rating int) error {
	if rating < minRating || rating > maxRating {
		return apperr.InvalidInput("rating must be between %d and %d", minRating, maxRating)
	}
	return nil
}

// Create adds a review for a product. A customer can review a product once.
func (s *ReviewService) Create(ctx context.Context, customerID string, in *ReviewInput) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.Create")
	defer span.End()

	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	existing, err := s.store.GetReviewByCustomerProduct(ctx, customerID, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing != nil {
		return nil, apperr.Duplicate("you have already reviewed this product")
	}

	review := &models.Review{
		CustomerID: customerID,
		ProductID:  in.ProductID,
		Rating:     in.Rating,
		Comment:    nullString(in.Comment),
		IsApproved: false,
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	s.logger.Info("Review created",
		zap.String("review_id", review.ID),
		zap.String("product_id", in.ProductID))
	return review, nil
}

// Update edits a customer's own review and resets its approval.
func (s *ReviewService) Update(ctx context.Context, customerID, reviewID string, rating int, comment string) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.Update")
	defer span.End()

	if err := validateRating(rating); err != nil {
		return nil, err
	}

	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	if review == nil || review.CustomerID != customerID {
		return nil, apperr.NotFound("review %s not found", reviewID)
	}

	review.Rating = rating
	review.Comment = nullString(comment)
	review.IsApproved = false
	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.logger.Info("Review updated", zap.String("review_id", reviewID))
	return review, nil
}

// Delete removes a customer's own review.
func (s *ReviewService) Delete(ctx context.Context, customerID, reviewID string) error {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("failed to load review: %w", err)
	}
	if review == nil || review.CustomerID != customerID {
		return apperr.NotFound("review %s not found", reviewID)
	}

	deleted, err := s.store.DeleteReview(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if !deleted {
		return apperr.NotFound("review %s not found", reviewID)
	}

	s.logger.Info("Review deleted", zap.String("review_id", reviewID))
	return nil
}

// Approve marks a review as approved. Staff only.
func (s *ReviewService) Approve(ctx context.Context, reviewID string) (*models.Review, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	if review == nil {
		return nil, apperr.NotFound("review %s not found", reviewID)
	}

	review.IsApproved = true
	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to approve review: %w", err)
	}

	s.logger.Info("Review approved", zap.String("review_id", reviewID))
	return review, nil
}

// ProductReviews lists a product's reviews together with its average approved
// rating. Unapproved reviews are only included when includeUnapproved is set.
type ProductReviews struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
}

// ListByProduct retrieves reviews and the average rating for a product.
func (s *ReviewService) ListByProduct(ctx context.Context, productID string, includeUnapproved bool) (*ProductReviews, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.ListByProduct")
	defer span.End()

	reviews, err := s.store.ListReviewsByProduct(ctx, productID, !includeUnapproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	avg, err := s.store.AverageRating(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average rating: %w", err)
	}

	return &ProductReviews{Reviews: reviews, AverageRating: avg}, nil
}
