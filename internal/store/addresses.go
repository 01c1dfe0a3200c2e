package store

import (
	"context"
	"database/sql"

	"storefront-service/internal/models"
)

// AddressRepo is the repository handle used by the address service. Inside
// InAddressTx every call runs on the same transaction.
type AddressRepo interface {
	Get(ctx context.Context, id string) (*models.Address, error)
	CountForCustomer(ctx context.Context, customerID string) (int, error)
	ClearDefault(ctx context.Context, customerID string) error
	SetDefault(ctx context.Context, id string) error
	Insert(ctx context.Context, a *models.Address) error
	Update(ctx context.Context, a *models.Address) error
	Delete(ctx context.Context, id string) (bool, error)
	NewestOther(ctx context.Context, customerID, excludeID string) (*models.Address, error)
	List(ctx context.Context, customerID string, skip, take int) ([]models.Address, error)
	GetDefault(ctx context.Context, customerID string) (*models.Address, error)
}

type addressRepo struct {
	q Queryer
}

// Addresses returns a non-transactional repository handle for reads.
func (s *Store) Addresses() AddressRepo {
	return addressRepo{q: s.db}
}

// InAddressTx runs fn with a transaction-scoped repository handle so the
// default-address invariant is never observably violated.
func (s *Store) InAddressTx(ctx context.Context, fn func(repo AddressRepo) error) error {
	return s.inTx(ctx, func(q Queryer) error {
		return fn(addressRepo{q: q})
	})
}

func (r addressRepo) Get(ctx context.Context, id string) (*models.Address, error) {
	var a models.Address
	err := r.q.GetContext(ctx, &a, "SELECT * FROM addresses WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r addressRepo) CountForCustomer(ctx context.Context, customerID string) (int, error) {
	var count int
	err := r.q.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM addresses WHERE customer_id = $1", customerID)
	return count, err
}

func (r addressRepo) ClearDefault(ctx context.Context, customerID string) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE addresses SET is_default = false, updated_at = NOW() WHERE customer_id = $1 AND is_default = true",
		customerID)
	return err
}

func (r addressRepo) SetDefault(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE addresses SET is_default = true, updated_at = NOW() WHERE id = $1", id)
	return err
}

func (r addressRepo) Insert(ctx context.Context, a *models.Address) error {
	if a.ID == "" {
		a.ID = newID("addr")
	}

	query := `
		INSERT INTO addresses (id, customer_id, first_name, last_name, address_1, address_2,
			city, state, postal_code, country_code, phone, is_default, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	row := r.q.QueryRowxContext(ctx, query,
		a.ID, a.CustomerID, a.FirstName, a.LastName, a.Address1, a.Address2,
		a.City, a.State, a.PostalCode, a.CountryCode, a.Phone, a.IsDefault, a.Metadata)
	return row.Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r addressRepo) Update(ctx context.Context, a *models.Address) error {
	query := `
		UPDATE addresses
		SET first_name = $1, last_name = $2, address_1 = $3, address_2 = $4,
			city = $5, state = $6, postal_code = $7, country_code = $8,
			phone = $9, is_default = $10, metadata = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at`

	row := r.q.QueryRowxContext(ctx, query,
		a.FirstName, a.LastName, a.Address1, a.Address2,
		a.City, a.State, a.PostalCode, a.CountryCode,
		a.Phone, a.IsDefault, a.Metadata, a.ID)
	return row.Scan(&a.UpdatedAt)
}

func (r addressRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.q.ExecContext(ctx, "DELETE FROM addresses WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r addressRepo) NewestOther(ctx context.Context, customerID, excludeID string) (*models.Address, error) {
	var a models.Address
	err := r.q.GetContext(ctx, &a,
		"SELECT * FROM addresses WHERE customer_id = $1 AND id <> $2 ORDER BY created_at DESC LIMIT 1",
		customerID, excludeID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r addressRepo) List(ctx context.Context, customerID string, skip, take int) ([]models.Address, error) {
	var addresses []models.Address
	err := r.q.SelectContext(ctx, &addresses,
		"SELECT * FROM addresses WHERE customer_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3",
		customerID, skip, take)
	return addresses, err
}

func (r addressRepo) GetDefault(ctx context.Context, customerID string) (*models.Address, error) {
	var a models.Address
	err := r.q.GetContext(ctx, &a,
		"SELECT * FROM addresses WHERE customer_id = $1 AND is_default = true", customerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
