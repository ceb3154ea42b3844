package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/logger"
)

type mockClientStore struct {
	ListFunc       func(ctx context.Context) ([]entity.Client, error)
	GetByIDFunc    func(ctx context.Context, id int64) (*entity.Client, error)
	CreateFunc     func(ctx context.Context, c entity.Client) (int64, error)
	UpdateFunc     func(ctx context.Context, c entity.Client) error
	DeactivateFunc func(ctx context.Context, id int64) error
}

func (m *mockClientStore) List(ctx context.Context) ([]entity.Client, error) { return m.ListFunc(ctx) }
func (m *mockClientStore) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockClientStore) Create(ctx context.Context, c entity.Client) (int64, error) {
	return m.CreateFunc(ctx, c)
}
func (m *mockClientStore) Update(ctx context.Context, c entity.Client) error {
	return m.UpdateFunc(ctx, c)
}
func (m *mockClientStore) Deactivate(ctx context.Context, id int64) error {
	return m.DeactivateFunc(ctx, id)
}

type mockSubscriptionStore struct {
	ListFunc         func(ctx context.Context, f entity.SubscriptionFilter) ([]entity.SubscriptionView, int, error)
	ListExpiringFunc func(ctx context.Context, from, to entity.Date) ([]entity.SubscriptionView, error)
	CreateFunc       func(ctx context.Context, s entity.Subscription) (int64, error)
}

func (m *mockSubscriptionStore) List(ctx context.Context, f entity.SubscriptionFilter) ([]entity.SubscriptionView, int, error) {
	return m.ListFunc(ctx, f)
}
func (m *mockSubscriptionStore) ListExpiring(ctx context.Context, from, to entity.Date) ([]entity.SubscriptionView, error) {
	return m.ListExpiringFunc(ctx, from, to)
}
func (m *mockSubscriptionStore) GetByID(context.Context, int64) (*entity.SubscriptionView, error) {
	return nil, entity.ErrDataNotFound
}
func (m *mockSubscriptionStore) Create(ctx context.Context, s entity.Subscription) (int64, error) {
	return m.CreateFunc(ctx, s)
}
func (m *mockSubscriptionStore) Update(context.Context, entity.Subscription) error { return nil }
func (m *mockSubscriptionStore) Delete(context.Context, int64) error               { return nil }

func TestRecordService_CreateClient(t *testing.T) {
	tests := []struct {
		name    string
		client  entity.Client
		wantErr bool
	}{
		{name: "valid", client: entity.Client{FirstName: " Ana ", LastName: "Diaz", Phone: "+573001"}},
		{name: "missing phone", client: entity.Client{FirstName: "Ana", LastName: "Diaz"}, wantErr: true},
		{name: "missing last name", client: entity.Client{FirstName: "Ana", Phone: "1"}, wantErr: true},
		{name: "bad email", client: entity.Client{FirstName: "Ana", LastName: "Diaz", Phone: "1", Email: "nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stored entity.Client
			store := &mockClientStore{
				CreateFunc: func(_ context.Context, c entity.Client) (int64, error) {
					stored = c
					return 1, nil
				},
			}
			svc := NewRecordService(store, nil, nil, logger.NewNop(), nil)

			id, err := svc.CreateClient(context.Background(), tt.client)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrInvalidData)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), id)
			assert.Equal(t, "Ana", stored.FirstName)
		})
	}
}

func TestRecordService_CreateSubscription(t *testing.T) {
	valid := entity.Subscription{
		ClientID:       1,
		ProviderID:     2,
		Name:           "Netflix",
		Kind:           "Premium",
		MonthlyPrice:   decimal.RequireFromString("12.50"),
		StartDate:      entity.NewDate(2024, time.June, 1),
		ExpirationDate: entity.NewDate(2024, time.July, 1),
	}

	var stored entity.Subscription
	store := &mockSubscriptionStore{
		CreateFunc: func(_ context.Context, s entity.Subscription) (int64, error) {
			stored = s
			return 5, nil
		},
	}
	svc := NewRecordService(nil, nil, store, logger.NewNop(), nil)

	id, err := svc.CreateSubscription(context.Background(), valid)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, entity.ServiceActive, stored.Status)

	bad := valid
	bad.Status = "Pausado"
	_, err = svc.CreateSubscription(context.Background(), bad)
	assert.ErrorIs(t, err, entity.ErrInvalidData)

	bad = valid
	bad.MonthlyPrice = decimal.NewFromInt(-1)
	_, err = svc.CreateSubscription(context.Background(), bad)
	assert.ErrorIs(t, err, entity.ErrInvalidData)

	bad = valid
	bad.ExpirationDate = entity.Date{}
	_, err = svc.CreateSubscription(context.Background(), bad)
	assert.ErrorIs(t, err, entity.ErrInvalidData)

	bad = valid
	bad.ClientID = 0
	_, err = svc.CreateSubscription(context.Background(), bad)
	assert.ErrorIs(t, err, entity.ErrInvalidData)
}

func TestRecordService_ListSubscriptionsAndExpiring(t *testing.T) {
	var gotFilter entity.SubscriptionFilter
	var gotFrom, gotTo entity.Date
	store := &mockSubscriptionStore{
		ListFunc: func(_ context.Context, f entity.SubscriptionFilter) ([]entity.SubscriptionView, int, error) {
			gotFilter = f
			return []entity.SubscriptionView{{}}, 25, nil
		},
		ListExpiringFunc: func(_ context.Context, from, to entity.Date) ([]entity.SubscriptionView, error) {
			gotFrom, gotTo = from, to
			return nil, nil
		},
	}
	svc := NewRecordService(nil, nil, store, logger.NewNop(), nil)
	svc.now = func() time.Time { return fixedNow }

	_, pagination, err := svc.ListSubscriptions(context.Background(), "  netflix ", entity.NewPage(2, 10))
	require.NoError(t, err)
	assert.Equal(t, "netflix", gotFilter.Search)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.Equal(t, 25, pagination.Total)

	_, err = svc.ListExpiring(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", gotFrom.String())
	assert.Equal(t, "2024-06-08", gotTo.String())

	_, err = svc.ListExpiring(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-04", gotTo.String())
}

func TestRecordService_WritesInvalidateHistory(t *testing.T) {
	cache := &fakeCache{ok: true}
	clients := &mockClientStore{
		UpdateFunc:     func(context.Context, entity.Client) error { return nil },
		DeactivateFunc: func(context.Context, int64) error { return nil },
	}
	svc := NewRecordService(clients, nil, &mockSubscriptionStore{}, logger.NewNop(), nil,
		WithRecordHistoryCache(cache))
	ctx := context.Background()

	require.NoError(t, svc.UpdateClient(ctx, entity.Client{ID: 1, FirstName: "Ana", LastName: "Díaz", Phone: "+573001"}))
	assert.Equal(t, 1, cache.invalidated)

	require.NoError(t, svc.DeleteClient(ctx, 1))
	assert.Equal(t, 2, cache.invalidated)

	sub := entity.Subscription{
		ID:             9,
		ClientID:       1,
		ProviderID:     2,
		Name:           "Netflix",
		Kind:           "Premium",
		Status:         entity.ServiceActive,
		StartDate:      entity.NewDate(2024, time.June, 1),
		ExpirationDate: entity.NewDate(2024, time.July, 1),
	}
	require.NoError(t, svc.UpdateSubscription(ctx, sub))
	assert.Equal(t, 3, cache.invalidated)

	require.NoError(t, svc.DeleteSubscription(ctx, 9))
	assert.Equal(t, 4, cache.invalidated)
	assert.False(t, cache.ok)
}

func TestRecordService_FailedWriteKeepsHistoryCache(t *testing.T) {
	cache := &fakeCache{ok: true}
	clients := &mockClientStore{
		DeactivateFunc: func(context.Context, int64) error { return entity.ErrDataNotFound },
	}
	svc := NewRecordService(clients, nil, nil, logger.NewNop(), nil, WithRecordHistoryCache(cache))

	err := svc.DeleteClient(context.Background(), 1)
	assert.ErrorIs(t, err, entity.ErrDataNotFound)
	assert.Zero(t, cache.invalidated)
}
