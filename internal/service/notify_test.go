package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamnotifier/internal/entity"
	"streamnotifier/internal/transport/sender"
	"streamnotifier/pkg/logger"
	"streamnotifier/pkg/postgres"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, store *memStore, snd MessageSender, opts ...Option) *NotifyService {
	t.Helper()

	if snd == nil {
		snd = sender.NewWhatsAppSender(logger.NewNop())
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)

	svc, err := NewNotifyService(store, store, store, snd, logger.NewNop(), opts...)
	require.NoError(t, err)
	return svc
}

func seedServices(store *memStore) {
	store.services = []memService{
		{ID: 1, ClientID: 10, Name: "Netflix", Expires: entity.NewDate(2024, time.June, 5), Status: entity.ServiceActive, ClientName: "Ana", Phone: "+573001"},
		{ID: 2, ClientID: 11, Name: "Disney+", Expires: entity.NewDate(2024, time.June, 10), Status: entity.ServiceActive, ClientName: "Luis", Phone: "+573002"},
		{ID: 3, ClientID: 12, Name: "HBO", Expires: entity.NewDate(2024, time.June, 3), Status: entity.ServiceCancelled, ClientName: "Eva", Phone: "+573003"},
	}
}

func TestGenerateAutomatic_SelectsWithinLeadTime(t *testing.T) {
	store := newMemStore()
	store.settings[entity.SettingLeadDays] = "7"
	seedServices(store)

	svc := newTestService(t, store, nil)

	res, err := svc.GenerateAutomatic(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Zero(t, res.Skipped)
	assert.Zero(t, res.Failed)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(1), res.Items[0].ServiceID)
	assert.Equal(t, GenerationCreated, res.Items[0].Outcome)

	n := store.byID(res.Items[0].NotificationID)
	assert.Equal(t, "Hola Ana, tu servicio Netflix vence el 2024-06-05. Por favor renueva tu suscripción.", n.Message)
	assert.Equal(t, entity.StatusPending, n.Status)
	assert.Equal(t, entity.TypeExpiration, n.Type)
	assert.True(t, n.Automatic)
	assert.NotEqual(t, uuid.Nil, n.IdempotencyKey)
	assert.Equal(t, "2024-06-01", n.CreatedOn.String())
	assert.Nil(t, n.SentAt)
}

func TestGenerateAutomatic_IsIdempotentWithinDay(t *testing.T) {
	store := newMemStore()
	seedServices(store)
	svc := newTestService(t, store, nil)

	first, err := svc.GenerateAutomatic(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.Created)

	second, err := svc.GenerateAutomatic(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Empty(t, second.Items)
	assert.Len(t, store.notifications, 1)
}

func TestGenerateAutomatic_ConcurrentDuplicateCountsAsSkipped(t *testing.T) {
	store := newMemStore()
	seedServices(store)
	svc := newTestService(t, store, nil)

	// Another generator inserted the row after the candidate query ran.
	serviceID := int64(1)
	finder := finderFunc(func(ctx context.Context, from, to, on entity.Date) ([]entity.ExpiringSubscription, error) {
		rows, err := store.GetActiveExpiringBetween(ctx, nil, from, to, on)
		_, _ = store.Create(ctx, nil, entity.Notification{
			ServiceID: &serviceID, ClientID: 10, Type: entity.TypeExpiration,
			Status: entity.StatusPending, Automatic: true, CreatedOn: on,
		})
		return rows, err
	})
	svc.subs = finder

	res, err := svc.GenerateAutomatic(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, store.notifications, 1)
}

func TestGenerateAutomatic_LeadTimeAndTemplateDefaults(t *testing.T) {
	tests := []struct {
		name     string
		lead     string
		template string
		wantIDs  []int64
		wantMsg  string
	}{
		{name: "non numeric lead uses 7", lead: "abc", wantIDs: []int64{1}},
		{name: "negative lead uses 7", lead: "-3", wantIDs: []int64{1}},
		{name: "zero lead only today", lead: "0", wantIDs: nil},
		{name: "wider lead", lead: "9", wantIDs: []int64{1, 2}},
		{
			name:     "custom template",
			lead:     "7",
			template: "{nombre}: {servicio} {fecha} {desconocido}",
			wantIDs:  []int64{1},
			wantMsg:  "Ana: Netflix 2024-06-05 {desconocido}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.settings[entity.SettingLeadDays] = tt.lead
			if tt.template != "" {
				store.settings[entity.SettingTemplate] = tt.template
			}
			seedServices(store)

			res, err := newTestService(t, store, nil).GenerateAutomatic(context.Background())
			require.NoError(t, err)

			var got []int64
			for _, it := range res.Items {
				got = append(got, it.ServiceID)
			}
			assert.Equal(t, tt.wantIDs, got)

			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, store.notifications[0].Message)
			}
		})
	}
}

func TestGenerateAutomatic_UsesConfiguredZoneForToday(t *testing.T) {
	store := newMemStore()
	store.settings[entity.SettingLeadDays] = "0"
	store.services = []memService{
		{ID: 1, ClientID: 10, Name: "Netflix", Expires: entity.NewDate(2024, time.May, 31), Status: entity.ServiceActive},
	}

	// 03:00 UTC on June 1 is still May 31 in Bogota.
	bogota := time.FixedZone("COT", -5*3600)
	svc := newTestService(t, store, nil,
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC) }),
		WithLocation(bogota),
	)

	res, err := svc.GenerateAutomatic(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, "2024-05-31", store.notifications[0].CreatedOn.String())
}

func TestGenerateAutomatic_Errors(t *testing.T) {
	t.Run("settings load fails", func(t *testing.T) {
		store := newMemStore()
		store.settingsErr = errors.New("db down")

		_, err := newTestService(t, store, nil).GenerateAutomatic(context.Background())
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("row insert failure is per item", func(t *testing.T) {
		store := newMemStore()
		seedServices(store)
		store.settings[entity.SettingLeadDays] = "9"
		store.createErr = errors.New("disk full")

		res, err := newTestService(t, store, nil).GenerateAutomatic(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, res.Failed)
		assert.Zero(t, res.Created)
		assert.Equal(t, "disk full", res.Items[0].Error)
	})

	t.Run("key generation failure is per item", func(t *testing.T) {
		store := newMemStore()
		seedServices(store)

		svc := newTestService(t, store, nil, WithKeyGenerator(func() (uuid.UUID, error) {
			return uuid.Nil, errors.New("entropy")
		}))
		res, err := svc.GenerateAutomatic(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
		assert.Zero(t, store.createCalls)
	})

	t.Run("cancelled context still runs every candidate", func(t *testing.T) {
		store := newMemStore()
		seedServices(store)
		store.settings[entity.SettingLeadDays] = "9"

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := newTestService(t, store, nil).GenerateAutomatic(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Created)
		assert.Equal(t, 2, store.createCalls)
	})
}

// gatewayByPhone answers each request with the status mapped to its phone.
func gatewayByPhone(t *testing.T, statuses map[string]int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body struct {
			Phone string `json:"phone"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(statuses[body.Phone])
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func pendingStore(gatewayURL string) *memStore {
	store := newMemStore()
	store.settings[entity.SettingGatewayURL] = gatewayURL
	store.settings[entity.SettingGatewayToken] = "secret"
	store.services = []memService{
		{ID: 1, ClientID: 10, Phone: "+1"},
		{ID: 2, ClientID: 11, Phone: "+2"},
		{ID: 3, ClientID: 12, Phone: "+3"},
	}
	for _, c := range []int64{10, 11, 12} {
		store.notifications = append(store.notifications, entity.Notification{
			ID: int64(len(store.notifications) + 1), ClientID: c, Message: "m",
			Status: entity.StatusPending, IdempotencyKey: uuid.New(),
		})
	}
	return store
}

func TestDispatchPending_MixedOutcomes(t *testing.T) {
	srv, calls := gatewayByPhone(t, map[string]int{"+1": 200, "+2": 500, "+3": 200})
	store := pendingStore(srv.URL)
	cache := &fakeCache{ok: true}

	svc := newTestService(t, store, nil, WithHistoryCache(cache))

	res, err := svc.DispatchPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.EqualValues(t, 3, calls.Load())

	first, second, third := store.byID(1), store.byID(2), store.byID(3)
	assert.Equal(t, entity.StatusSent, first.Status)
	require.NotNil(t, first.SentAt)
	assert.Equal(t, fixedNow, *first.SentAt)

	assert.Equal(t, entity.StatusFailed, second.Status)
	assert.Nil(t, second.SentAt)
	assert.Contains(t, second.LastError, "500")
	assert.Equal(t, entity.StatusSent, third.Status)

	assert.Equal(t, 1, cache.invalidated)

	again, err := svc.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Sent+again.Failed)
	assert.EqualValues(t, 3, calls.Load())
}

func TestDispatchPending_RunsToExhaustionPastCallerDeadline(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		time.Sleep(150 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	store := pendingStore(srv.URL)
	svc := newTestService(t, store, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	res, err := svc.DispatchPending(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Sent)
	assert.Zero(t, res.Failed)
	assert.EqualValues(t, 3, calls.Load())
	for _, id := range []int64{1, 2, 3} {
		n := store.byID(id)
		assert.Equal(t, entity.StatusSent, n.Status, "notification %d", id)
		assert.Empty(t, n.LastError)
	}
}

func TestDispatchPending_GatewayNotConfigured(t *testing.T) {
	srv, calls := gatewayByPhone(t, map[string]int{"+1": 200, "+2": 200, "+3": 200})
	store := pendingStore(srv.URL)
	delete(store.settings, entity.SettingGatewayToken)

	res, err := newTestService(t, store, nil).DispatchPending(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.Sent)
	assert.Equal(t, 3, res.Failed)
	assert.Zero(t, calls.Load())
	for _, it := range res.Items {
		assert.Equal(t, entity.StatusFailed, it.Status)
		assert.Equal(t, entity.ErrConfigurationMissing.Error(), it.Error)
	}
}

func TestDispatchPending_EmptyPhoneFailsWithoutCall(t *testing.T) {
	srv, calls := gatewayByPhone(t, map[string]int{"+1": 200, "+3": 200})
	store := pendingStore(srv.URL)
	store.services[1].Phone = ""

	res, err := newTestService(t, store, nil).DispatchPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, entity.StatusFailed, store.byID(2).Status)
	assert.Contains(t, store.byID(2).LastError, entity.ErrRecipientNotFound.Error())
}

func TestDispatchPending_PersistFailureIsReported(t *testing.T) {
	srv, _ := gatewayByPhone(t, map[string]int{"+1": 200, "+2": 200, "+3": 200})
	store := pendingStore(srv.URL)
	store.updateErr = errors.New("write timeout")

	res, err := newTestService(t, store, nil).DispatchPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Sent)
	for _, it := range res.Items {
		assert.Equal(t, "write timeout", it.PersistError)
	}
	assert.Equal(t, entity.StatusPending, store.byID(1).Status)
}

func TestHistory_Cache(t *testing.T) {
	store := newMemStore()
	seedServices(store)
	cache := &fakeCache{}
	svc := newTestService(t, store, nil, WithHistoryCache(cache))

	_, err := svc.GenerateAutomatic(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	history, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, cache.sets)

	cache.data = append(cache.data, entity.NotificationView{})
	cached, err := svc.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	cache.ok, cache.getErr = false, errors.New("redis down")
	fresh, err := svc.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestHistory_NewestFirst(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, nil)

	for _, msg := range []string{"first", "second"} {
		_, err := svc.CreateManual(context.Background(), entity.ManualNotification{ClientID: 10, Message: msg})
		require.NoError(t, err)
	}

	history, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Message)
}

func TestCreateManual(t *testing.T) {
	store := newMemStore()
	cache := &fakeCache{}
	svc := newTestService(t, store, nil, WithHistoryCache(cache))

	serviceID := int64(0)
	n, err := svc.CreateManual(context.Background(), entity.ManualNotification{
		ServiceID: &serviceID, ClientID: 10, Message: "Recordatorio",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), n.ID)
	assert.Nil(t, n.ServiceID)
	assert.False(t, n.Automatic)
	assert.Equal(t, entity.StatusPending, n.Status)
	assert.Equal(t, 1, cache.invalidated)

	_, err = svc.CreateManual(context.Background(), entity.ManualNotification{ClientID: 10, Message: "  "})
	assert.ErrorIs(t, err, entity.ErrInvalidData)

	_, err = svc.CreateManual(context.Background(), entity.ManualNotification{Message: "x"})
	assert.ErrorIs(t, err, entity.ErrInvalidData)

	store.createErr = entity.ErrDataNotFound
	_, err = svc.CreateManual(context.Background(), entity.ManualNotification{ClientID: 99, Message: "x"})
	assert.ErrorIs(t, err, entity.ErrDataNotFound)
}

func TestNewNotifyService_Validate(t *testing.T) {
	store := newMemStore()
	_, err := NewNotifyService(store, store, store, nil, logger.NewNop())
	assert.Error(t, err)
}

type finderFunc func(ctx context.Context, from, to, on entity.Date) ([]entity.ExpiringSubscription, error)

func (f finderFunc) GetActiveExpiringBetween(
	ctx context.Context,
	_ postgres.QueryExecuter,
	from, to, on entity.Date,
) ([]entity.ExpiringSubscription, error) {
	return f(ctx, from, to, on)
}
