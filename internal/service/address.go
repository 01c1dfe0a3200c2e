package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
)

const defaultAddressPageSize = 20

// AddressStore is the persistence surface the address service needs.
type AddressStore interface {
	Addresses() store.AddressRepo
	InAddressTx(ctx context.Context, fn func(repo store.AddressRepo) error) error
}

// AddressService manages customer addresses and maintains the invariant that
// a customer with at least one address has exactly one default.
type AddressService struct {
	store  AddressStore
	logger *zap.Logger
}

// NewAddressService creates a new address service
func NewAddressService(st AddressStore) *AddressService {
	return &AddressService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// AddressInput carries address fields for create and update requests.
type AddressInput struct {
	FirstName   string          `json:"first_name" binding:"required"`
	LastName    string          `json:"last_name" binding:"required"`
	Address1    string          `json:"address_1" binding:"required"`
	Address2    string          `json:"address_2"`
	City        string          `json:"city" binding:"required"`
	State       string          `json:"state" binding:"required"`
	PostalCode  string          `json:"postal_code" binding:"required"`
	CountryCode string          `json:"country_code" binding:"required"`
	Phone       string          `json:"phone"`
	IsDefault   *bool           `json:"is_default"`
	Metadata    json.RawMessage `json:"metadata"`
}

func (in *AddressInput) apply(a *models.Address) {
	a.FirstName = in.FirstName
	a.LastName = in.LastName
	a.Address1 = in.Address1
	a.Address2 = nullString(in.Address2)
	a.City = in.City
	a.State = in.State
	a.PostalCode = in.PostalCode
	a.CountryCode = in.CountryCode
	a.Phone = nullString(in.Phone)
	a.Metadata = in.Metadata
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create adds an address for a customer. The customer's first address becomes
// the default regardless of the requested flag; a later address marked default
// demotes the previous one in the same transaction.
func (s *AddressService) Create(ctx context.Context, customerID string, in *AddressInput) (*models.Address, error) {
	ctx, span := util.StartSpan(ctx, "AddressService.Create")
	defer span.End()

	addr := &models.Address{CustomerID: customerID}
	in.apply(addr)

	err := s.store.InAddressTx(ctx, func(repo store.AddressRepo) error {
		count, err := repo.CountForCustomer(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}

		wantDefault := in.IsDefault != nil && *in.IsDefault
		addr.IsDefault = count == 0 || wantDefault

		if addr.IsDefault && count > 0 {
			if err := repo.ClearDefault(ctx, customerID); err != nil {
				return fmt.Errorf("failed to clear previous default: %w", err)
			}
		}
		return repo.Insert(ctx, addr)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Address created",
		zap.String("address_id", addr.ID),
		zap.String("customer_id", customerID),
		zap.Bool("is_default", addr.IsDefault))
	return addr, nil
}

// Update modifies an address. Promoting an address to default demotes the
// previous default; demoting the only default is rejected since the customer
// would be left without one.
func (s *AddressService) Update(ctx context.Context, customerID, addressID string, in *AddressInput) (*models.Address, error) {
	ctx, span := util.StartSpan(ctx, "AddressService.Update")
	defer span.End()

	var updated *models.Address
	err := s.store.InAddressTx(ctx, func(repo store.AddressRepo) error {
		addr, err := repo.Get(ctx, addressID)
		if err != nil {
			return fmt.Errorf("failed to load address: %w", err)
		}
		if addr == nil || addr.CustomerID != customerID {
			return apperr.NotFound("address %s not found", addressID)
		}

		wasDefault := addr.IsDefault
		in.apply(addr)

		switch {
		case in.IsDefault == nil:
			addr.IsDefault = wasDefault
		case *in.IsDefault && !wasDefault:
			if err := repo.ClearDefault(ctx, customerID); err != nil {
				return fmt.Errorf("failed to clear previous default: %w", err)
			}
			addr.IsDefault = true
		case !*in.IsDefault && wasDefault:
			return apperr.InvalidInput("cannot unset the default address; set another address as default instead")
		default:
			addr.IsDefault = wasDefault
		}

		if err := repo.Update(ctx, addr); err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		updated = addr
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Address updated", zap.String("address_id", addressID))
	return updated, nil
}

// SetDefault promotes an address to be the customer's default.
func (s *AddressService) SetDefault(ctx context.Context, customerID, addressID string) (*models.Address, error) {
	ctx, span := util.StartSpan(ctx, "AddressService.SetDefault")
	defer span.End()

	var promoted *models.Address
	err := s.store.InAddressTx(ctx, func(repo store.AddressRepo) error {
		addr, err := repo.Get(ctx, addressID)
		if err != nil {
			return fmt.Errorf("failed to load address: %w", err)
		}
		if addr == nil || addr.CustomerID != customerID {
			return apperr.NotFound("address %s not found", addressID)
		}
		if addr.IsDefault {
			promoted = addr
			return nil
		}

		if err := repo.ClearDefault(ctx, customerID); err != nil {
			return fmt.Errorf("failed to clear previous default: %w", err)
		}
		if err := repo.SetDefault(ctx, addressID); err != nil {
			return fmt.Errorf("failed to set default: %w", err)
		}
		addr.IsDefault = true
		promoted = addr
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Default address changed",
		zap.String("address_id", addressID),
		zap.String("customer_id", customerID))
	return promoted, nil
}

// Delete removes an address. Deleting an id that does not exist, or that
// belongs to another customer, succeeds with no state change. Deleting the
// default promotes the most recently created remaining address so the
// invariant holds without a gap.
func (s *AddressService) Delete(ctx context.Context, customerID, addressID string) error {
	ctx, span := util.StartSpan(ctx, "AddressService.Delete")
	defer span.End()

	err := s.store.InAddressTx(ctx, func(repo store.AddressRepo) error {
		addr, err := repo.Get(ctx, addressID)
		if err != nil {
			return fmt.Errorf("failed to load address: %w", err)
		}
		if addr == nil || addr.CustomerID != customerID {
			return nil
		}

		if _, err := repo.Delete(ctx, addressID); err != nil {
			return fmt.Errorf("failed to delete address: %w", err)
		}

		if !addr.IsDefault {
			return nil
		}

		next, err := repo.NewestOther(ctx, customerID, addressID)
		if err != nil {
			return fmt.Errorf("failed to find replacement default: %w", err)
		}
		if next == nil {
			return nil
		}
		if err := repo.SetDefault(ctx, next.ID); err != nil {
			return fmt.Errorf("failed to promote replacement default: %w", err)
		}
		s.logger.Info("Promoted replacement default address",
			zap.String("address_id", next.ID),
			zap.String("customer_id", customerID))
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Address deleted", zap.String("address_id", addressID))
	return nil
}

// Get retrieves a single address owned by the customer.
func (s *AddressService) Get(ctx context.Context, customerID, addressID string) (*models.Address, error) {
	addr, err := s.store.Addresses().Get(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("failed to load address: %w", err)
	}
	if addr == nil || addr.CustomerID != customerID {
		return nil, apperr.NotFound("address %s not found", addressID)
	}
	return addr, nil
}

// List retrieves a customer's addresses, newest first.
func (s *AddressService) List(ctx context.Context, customerID string, skip, take int) ([]models.Address, error) {
	if take <= 0 || take > 100 {
		take = defaultAddressPageSize
	}
	if skip < 0 {
		skip = 0
	}

	addresses, err := s.store.Addresses().List(ctx, customerID, skip, take)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// GetDefault retrieves the customer's default address.
func (s *AddressService) GetDefault(ctx context.Context, customerID string) (*models.Address, error) {
	addr, err := s.store.Addresses().GetDefault(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load default address: %w", err)
	}
	if addr == nil {
		return nil, apperr.NotFound("customer %s has no default address", customerID)
	}
	return addr, nil
}
