package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/util"
)

// WishlistStore is the persistence surface the wishlist service needs.
type WishlistStore interface {
	GetWishlistItem(ctx context.Context, customerID, productID string) (*models.WishlistItem, error)
	CreateWishlistItem(ctx context.Context, w *models.WishlistItem) error
	DeleteWishlistItem(ctx context.Context, customerID, productID string) (bool, error)
	ListWishlist(ctx context.Context, customerID string) ([]models.WishlistItem, error)
}

// WishlistService handles customer wishlists.
type WishlistService struct {
	store  WishlistStore
	logger *zap.Logger
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(st WishlistStore) *WishlistService {
	return &WishlistService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// Add puts a product on the customer's wishlist. Adding the same product
// twice is rejected.
func (s *WishlistService) Add(ctx context.Context, customerID, productID string) (*models.WishlistItem, error) {
	ctx, span := util.StartSpan(ctx, "WishlistService.Add")
	defer span.End()

	if productID == "" {
		return nil, apperr.InvalidInput("product_id is required")
	}

	existing, err := s.store.GetWishlistItem(ctx, customerID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check wishlist: %w", err)
	}
	if existing != nil {
		return nil, apperr.Duplicate("product already in wishlist")
	}

	item := &models.WishlistItem{
		CustomerID: customerID,
		ProductID:  productID,
	}
	if err := s.store.CreateWishlistItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("Wishlist item added",
		zap.String("customer_id", customerID),
		zap.String("product_id", productID))
	return item, nil
}

// Remove takes a product off the customer's wishlist.
func (s *WishlistService) Remove(ctx context.Context, customerID, productID string) error {
	deleted, err := s.store.DeleteWishlistItem(ctx, customerID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	if !deleted {
		return apperr.NotFound("product %s is not in the wishlist", productID)
	}

	s.logger.Info("Wishlist item removed",
		zap.String("customer_id", customerID),
		zap.String("product_id", productID))
	return nil
}

// List retrieves the customer's wishlist, newest first.
func (s *WishlistService) List(ctx context.Context, customerID string) ([]models.WishlistItem, error) {
	items, err := s.store.ListWishlist(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return items, nil
}
