package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
)

// fakeAddressStore backs the address service with an in-memory repo. The fake
// runs transaction closures directly; invariant checks happen on final state.
type fakeAddressStore struct {
	repo *fakeAddressRepo
}

func (f *fakeAddressStore) Addresses() store.AddressRepo { return f.repo }

func (f *fakeAddressStore) InAddressTx(ctx context.Context, fn func(repo store.AddressRepo) error) error {
	return fn(f.repo)
}

type fakeAddressRepo struct {
	addresses map[string]*models.Address
	seq       int
	now       time.Time
}

func newFakeAddressStore() *fakeAddressStore {
	return &fakeAddressStore{repo: &fakeAddressRepo{
		addresses: map[string]*models.Address{},
		now:       time.Now(),
	}}
}

func (r *fakeAddressRepo) Get(ctx context.Context, id string) (*models.Address, error) {
	a, ok := r.addresses[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAddressRepo) CountForCustomer(ctx context.Context, customerID string) (int, error) {
	count := 0
	for _, a := range r.addresses {
		if a.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

func (r *fakeAddressRepo) ClearDefault(ctx context.Context, customerID string) error {
	for _, a := range r.addresses {
		if a.CustomerID == customerID {
			a.IsDefault = false
		}
	}
	return nil
}

func (r *fakeAddressRepo) SetDefault(ctx context.Context, id string) error {
	a, ok := r.addresses[id]
	if !ok {
		return errors.New("no such address")
	}
	a.IsDefault = true
	return nil
}

func (r *fakeAddressRepo) Insert(ctx context.Context, a *models.Address) error {
	r.seq++
	a.ID = "addr_" + string(rune('a'+r.seq-1))
	a.CreatedAt = r.now.Add(time.Duration(r.seq) * time.Minute)
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.addresses[a.ID] = &cp
	return nil
}

func (r *fakeAddressRepo) Update(ctx context.Context, a *models.Address) error {
	if _, ok := r.addresses[a.ID]; !ok {
		return errors.New("no such address")
	}
	a.UpdatedAt = time.Now()
	cp := *a
	r.addresses[a.ID] = &cp
	return nil
}

func (r *fakeAddressRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := r.addresses[id]; !ok {
		return false, nil
	}
	delete(r.addresses, id)
	return true, nil
}

func (r *fakeAddressRepo) NewestOther(ctx context.Context, customerID, excludeID string) (*models.Address, error) {
	var candidates []*models.Address
	for _, a := range r.addresses {
		if a.CustomerID == customerID && a.ID != excludeID {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (r *fakeAddressRepo) List(ctx context.Context, customerID string, skip, take int) ([]models.Address, error) {
	var out []models.Address
	for _, a := range r.addresses {
		if a.CustomerID == customerID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeAddressRepo) GetDefault(ctx context.Context, customerID string) (*models.Address, error) {
	for _, a := range r.addresses {
		if a.CustomerID == customerID && a.IsDefault {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// defaultCount reports how many of the customer's addresses are default.
func (r *fakeAddressRepo) defaultCount(customerID string) int {
	count := 0
	for _, a := range r.addresses {
		if a.CustomerID == customerID && a.IsDefault {
			count++
		}
	}
	return count
}

func addressInput(name string) *AddressInput {
	return &AddressInput{
		FirstName:   name,
		LastName:    "Tester",
		Address1:    "1 Main St",
		City:        "Springfield",
		State:       "IL",
		PostalCode:  "62701",
		CountryCode: "US",
	}
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	st := newFakeAddressStore()
	svc := NewAddressService(st)

	addr, err := svc.Create(context.Background(), "cust_1", addressInput("First"))
	require.NoError(t, err)

	assert.True(t, addr.IsDefault)
	assert.Equal(t, 1, st.repo.defaultCount("cust_1"))
}

func TestSecondAddressIsNotDefault(t *testing.T) {
	st := newFakeAddressStore()
	svc := NewAddressService(st)

	first, err := svc.Create(context.Background(), "cust_1", addressInput("First"))
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), "cust_1", addressInput("Second"))
	require.NoError(t, err)

	assert.True(t, first.IsDefault)
	assert.False(t, second.IsDefault)
	assert.Equal(t, 1, st.repo.defaultCount("cust_1"))
}

func TestCreateDefaultDemotesPrevious(t *testing.T) {
	st := newFakeAddressStore()
	svc := NewAddressService(st)

	first, err := svc.Create(context.Background(), "cust_1", addressInput("First"))
	require.NoError(t, err)

	isDefault := true
	in := addressInput("Second")
	in.IsDefault = &isDefault

	second, err := svc.Create(context.Background(), "cust_1", in)
	require.NoError(t, err)
	assert.True(t, second.IsDefault)

	reloaded, err := st.repo.Get(context.Background(), first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
	assert.Equal(t, 1, st.repo.defaultCount("cust_1"))
}

func TestSetDefaultSwitches(t *testing.T) {
	st := newFakeAddressStore()
	svc := NewAddressService(st)

	first, _ := svc.Create(context.Background(), "cust_1", addressInput("First"))
	second, _ := svc.Create(context.Background(), "cust_1", addressInput("Second"))

	promoted, err := svc.SetDefault(context.Background(), "cust_1", second.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsDefault)

	reloaded, _ := st.repo.Get(context.Background(), first.ID)
	assert.False(t, reloaded.IsDefault)
	assert.Equal(t, 1, st.repo.defaultCount("cust_1"))
}

func TestDeleteDefaultPromotesNewest(t *testing.T) {
	st := newFakeAddressStore()
	svc := NewAddressService(st)

	first, _ := svc.Create(context.Background(), "cust_1", addressInput("First"))
	svc.Create(context.Background(), "cust_1", addressInput("Second"))
	third, _ := svc.Create(context.Background(), "cust_1", addressInput("Third"))

	require.NoError(t, svc.Delete(context.Background(), "cust_1", first.ID))

	// The most recently created remaining address takes over.
	def, err := st.repo.GetDefault(context.Background(), "cust_1")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, third.ID, def.ID)
	assert.Equal(t, 1, st.repo.defaultCount("cust_1"))
}

func TestDeleteLastAddressLeavesNoDefault(t *testing.T) {
	st := newFakeAddressStore()
	svc := NewAddressService(st)

	only, _ := svc.Create(context.Background(), "cust_1", addressInput("Only"))
	require.NoError(t, svc.Delete(context.Background(), "cust_1", only.ID))

	assert.Equal(t, 0, st.repo.defaultCount("cust_1"))

	_, err := svc.GetDefault(context.Background(), "cust_1")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestDeleteNonDefaultKeepsDefault(t *testing.T) {
	st := newFakeAddressStore()
	svc := NewAddressService(st)

	first, _ := svc.Create(context.Background(), "cust_1", addressInput("First"))
	second, _ := svc.Create(context.Background(), "cust_1", addressInput("Second"))

	require.NoError(t, svc.Delete(context.Background(), "cust_1", second.ID))

	def, _ := st.repo.GetDefault(context.Background(), "cust_1")
	require.NotNil(t, def)
	assert.Equal(t, first.ID, def.ID)
}

func TestUpdateCannotUnsetDefault(t *testing.T) {
	st := newFakeAddressStore()
	svc := NewAddressService(st)

	only, _ := svc.Create(context.Background(), "cust_1", addressInput("Only"))

	notDefault := false
	in := addressInput("Only")
	in.IsDefault = &notDefault

	_, err := svc.Update(context.Background(), "cust_1", only.ID, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Equal(t, 1, st.repo.defaultCount("cust_1"))
}

func TestDeleteMissingAddressIsNoOp(t *testing.T) {
	st := newFakeAddressStore()
	svc := NewAddressService(st)

	only, _ := svc.Create(context.Background(), "cust_1", addressInput("Only"))

	require.NoError(t, svc.Delete(context.Background(), "cust_1", "addr_missing"))

	// Repeating a delete succeeds the same way.
	require.NoError(t, svc.Delete(context.Background(), "cust_1", only.ID))
	require.NoError(t, svc.Delete(context.Background(), "cust_1", only.ID))

	assert.Equal(t, 0, st.repo.defaultCount("cust_1"))
}

func TestAddressOwnershipEnforced(t *testing.T) {
	st := newFakeAddressStore()
	svc := NewAddressService(st)

	addr, _ := svc.Create(context.Background(), "cust_1", addressInput("Mine"))

	_, err := svc.Get(context.Background(), "cust_2", addr.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	// Deleting someone else's address succeeds without touching it.
	require.NoError(t, svc.Delete(context.Background(), "cust_2", addr.ID))
	reloaded, _ := st.repo.Get(context.Background(), addr.ID)
	require.NotNil(t, reloaded)
	assert.True(t, reloaded.IsDefault)
}
