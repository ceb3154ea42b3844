package service

import (
	"context"
	"sync"
	"time"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/postgres"
)

// memStore is an in-memory stand-in for the notifications, services and
// configuration tables, including the per-day uniqueness rule.
type memStore struct {
	mu sync.Mutex

	services      []memService
	notifications []entity.Notification
	settings      map[string]string

	createErr     error
	updateErr     error
	settingsErr   error
	createCalls   int
	statusUpdates map[int64]entity.NotificationStatus
}

type memService struct {
	ID         int64
	ClientID   int64
	Name       string
	Expires    entity.Date
	Status     entity.ServiceStatus
	ClientName string
	Phone      string
}

func newMemStore() *memStore {
	return &memStore{
		settings:      map[string]string{},
		statusUpdates: map[int64]entity.NotificationStatus{},
	}
}

func (m *memStore) GetAll(_ context.Context, _ postgres.QueryExecuter, keys []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.settingsErr != nil {
		return nil, m.settingsErr
	}
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := m.settings[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memStore) Set(_ context.Context, _ postgres.QueryExecuter, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings[key] = value
	return nil
}

func (m *memStore) GetActiveExpiringBetween(
	_ context.Context,
	_ postgres.QueryExecuter,
	from, to, notifiedOn entity.Date,
) ([]entity.ExpiringSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entity.ExpiringSubscription
	for _, s := range m.services {
		if s.Status != entity.ServiceActive || s.Expires.Before(from) || s.Expires.After(to) {
			continue
		}
		if m.notifiedLocked(s.ID, notifiedOn) {
			continue
		}
		out = append(out, entity.ExpiringSubscription{
			ID:             s.ID,
			ClientID:       s.ClientID,
			Name:           s.Name,
			ExpirationDate: s.Expires,
			ClientName:     s.ClientName,
			ClientPhone:    s.Phone,
		})
	}
	return out, nil
}

func (m *memStore) notifiedLocked(serviceID int64, day entity.Date) bool {
	for _, n := range m.notifications {
		if n.ServiceID != nil && *n.ServiceID == serviceID && n.Type == entity.TypeExpiration && n.CreatedOn.Equal(day) {
			return true
		}
	}
	return false
}

func (m *memStore) Create(_ context.Context, _ postgres.QueryExecuter, n entity.Notification) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if m.createErr != nil {
		return 0, m.createErr
	}
	if n.Automatic {
		for _, existing := range m.notifications {
			if existing.Automatic && existing.ServiceID != nil && n.ServiceID != nil &&
				*existing.ServiceID == *n.ServiceID && existing.Type == n.Type && existing.CreatedOn.Equal(n.CreatedOn) {
				return 0, entity.ErrConflictingData
			}
		}
	}

	n.ID = int64(len(m.notifications) + 1)
	m.notifications = append(m.notifications, n)
	return n.ID, nil
}

func (m *memStore) GetPending(context.Context, postgres.QueryExecuter) ([]entity.PendingNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entity.PendingNotification
	for _, n := range m.notifications {
		if n.Status != entity.StatusPending {
			continue
		}
		p := entity.PendingNotification{
			ID:             n.ID,
			ClientID:       n.ClientID,
			Message:        n.Message,
			IdempotencyKey: n.IdempotencyKey,
		}
		for _, s := range m.services {
			if s.ClientID == n.ClientID {
				p.Phone = s.Phone
				p.ClientName = s.ClientName
				break
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) UpdateStatus(
	_ context.Context,
	_ postgres.QueryExecuter,
	id int64,
	status entity.NotificationStatus,
	sentAt *time.Time,
	lastErr *string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.notifications {
		n := &m.notifications[i]
		if n.ID != id || n.Status != entity.StatusPending {
			continue
		}
		n.Status = status
		n.SentAt = sentAt
		if lastErr != nil {
			n.LastError = *lastErr
		}
		m.statusUpdates[id] = status
		return nil
	}
	return entity.ErrDataNotFound
}

func (m *memStore) ListHistory(context.Context, postgres.QueryExecuter) ([]entity.NotificationView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]entity.NotificationView, 0, len(m.notifications))
	for i := len(m.notifications) - 1; i >= 0; i-- {
		out = append(out, entity.NotificationView{Notification: m.notifications[i]})
	}
	return out, nil
}

func (m *memStore) byID(id int64) entity.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.notifications[id-1]
}

type fakeCache struct {
	data        []entity.NotificationView
	ok          bool
	getErr      error
	sets        int
	invalidated int
}

func (c *fakeCache) Get(context.Context) ([]entity.NotificationView, bool, error) {
	return c.data, c.ok, c.getErr
}

func (c *fakeCache) Set(_ context.Context, h []entity.NotificationView) error {
	c.sets++
	c.data, c.ok = h, true
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidated++
	c.data, c.ok = nil, false
	return nil
}

type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) ExecuteInTransaction(
	_ context.Context,
	_ string,
	fn func(tx postgres.QueryExecuter) error,
) error {
	f.calls++
	return fn(nil)
}
