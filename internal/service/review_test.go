package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
)

type fakeReviewStore struct {
	reviews map[string]*models.Review
	seq     int
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{reviews: map[string]*models.Review{}}
}

func (f *fakeReviewStore) GetReviewByCustomerProduct(ctx context.Context, customerID, productID string) (*models.Review, error) {
	for _, r := range f.reviews {
		if r.CustomerID == customerID && r.ProductID == productID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeReviewStore) GetReview(ctx context.Context, id string) (*models.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviewStore) CreateReview(ctx context.Context, r *models.Review) error {
	f.seq++
	r.ID = fmt.Sprintf("rev_%d", f.seq)
	cp := *r
	f.reviews[r.ID] = &cp
	return nil
}

func (f *fakeReviewStore) UpdateReview(ctx context.Context, r *models.Review) error {
	if _, ok := f.reviews[r.ID]; !ok {
		return errors.New("no such review")
	}
	cp := *r
	f.reviews[r.ID] = &cp
	return nil
}

func (f *fakeReviewStore) DeleteReview(ctx context.Context, id string) (bool, error) {
	if _, ok := f.reviews[id]; !ok {
		return false, nil
	}
	delete(f.reviews, id)
	return true, nil
}

func (f *fakeReviewStore) ListReviewsByProduct(ctx context.Context, productID string, onlyApproved bool) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if r.ProductID != productID {
			continue
		}
		if onlyApproved && !r.IsApproved {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReviewStore) AverageRating(ctx context.Context, productID string) (float64, error) {
	sum, n := 0, 0
	for _, r := range f.reviews {
		if r.ProductID == productID && r.IsApproved {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func TestCreateReviewRatingBounds(t *testing.T) {
	svc := NewReviewService(newFakeReviewStore())

	for _, rating := range []int{0, 6, -1, 100} {
		_, err := svc.Create(context.Background(), "cust_1", &ReviewInput{
			ProductID: "prod_1",
			Rating:    rating,
		})
		require.Error(t, err, "rating %d should be rejected", rating)
		assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	}

	for _, rating := range []int{1, 5} {
		_, err := svc.Create(context.Background(), "cust_1", &ReviewInput{
			ProductID: fmt.Sprintf("prod_%d", rating),
			Rating:    rating,
		})
		assert.NoError(t, err, "rating %d should be accepted", rating)
	}
}

func TestCreateReviewStartsUnapproved(t *testing.T) {
	svc := NewReviewService(newFakeReviewStore())

	review, err := svc.Create(context.Background(), "cust_1", &ReviewInput{
		ProductID: "prod_1",
		Rating:    4,
		Comment:   "solid",
	})
	require.NoError(t, err)
	assert.False(t, review.IsApproved)
}

func TestDuplicateReviewRejected(t *testing.T) {
	svc := NewReviewService(newFakeReviewStore())

	_, err := svc.Create(context.Background(), "cust_1", &ReviewInput{ProductID: "prod_1", Rating: 4})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "cust_1", &ReviewInput{ProductID: "prod_1", Rating: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrDuplicate))
}

func TestUpdateReviewResetsApproval(t *testing.T) {
	st := newFakeReviewStore()
	svc := NewReviewService(st)

	review, err := svc.Create(context.Background(), "cust_1", &ReviewInput{ProductID: "prod_1", Rating: 4})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), review.ID)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), "cust_1", review.ID, 2, "changed my mind")
	require.NoError(t, err)
	assert.False(t, updated.IsApproved)
	assert.Equal(t, 2, updated.Rating)
}

func TestUpdateReviewOwnership(t *testing.T) {
	svc := NewReviewService(newFakeReviewStore())

	review, err := svc.Create(context.Background(), "cust_1", &ReviewInput{ProductID: "prod_1", Rating: 4})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "cust_2", review.ID, 1, "")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestListByProductAverageExcludesUnapproved(t *testing.T) {
	st := newFakeReviewStore()
	svc := NewReviewService(st)

	r1, err := svc.Create(context.Background(), "cust_1", &ReviewInput{ProductID: "prod_1", Rating: 5})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "cust_2", &ReviewInput{ProductID: "prod_1", Rating: 1})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), r1.ID)
	require.NoError(t, err)

	result, err := svc.ListByProduct(context.Background(), "prod_1", false)
	require.NoError(t, err)

	assert.Len(t, result.Reviews, 1)
	assert.Equal(t, 5.0, result.AverageRating)
}
