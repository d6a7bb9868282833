package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vahabvahabov/silentsignals/internal/domain/alert"
	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
	"github.com/vahabvahabov/silentsignals/internal/domain/user"
	"github.com/vahabvahabov/silentsignals/internal/notify"
)

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	Users       map[int64]*user.User
	EmailIndex  map[string]*user.User
	NextID      int64
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:      make(map[int64]*user.User),
		EmailIndex: make(map[string]*user.User),
		NextID:     1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	u.ID = m.NextID
	m.NextID++
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return u, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.EmailIndex[email]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return u, nil
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Users[u.ID]; !ok {
		return fmt.Errorf("user not found")
	}
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	return nil
}

// MockContactRepository is a mock implementation of contact.Repository
type MockContactRepository struct {
	Contacts    map[int64]*contact.Contact
	NextID      int64
	CreateError error
	ListError   error
	UpdateError error
	DeleteError error
}

func NewMockContactRepository() *MockContactRepository {
	return &MockContactRepository{
		Contacts: make(map[int64]*contact.Contact),
		NextID:   1,
	}
}

func (m *MockContactRepository) Create(ctx context.Context, c *contact.Contact) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	c.ID = m.NextID
	m.NextID++
	m.Contacts[c.ID] = c
	return c.ID, nil
}

func (m *MockContactRepository) GetByID(ctx context.Context, userID, id int64) (*contact.Contact, error) {
	c, ok := m.Contacts[id]
	if !ok || c.UserID != userID {
		return nil, fmt.Errorf("contact not found")
	}
	return c, nil
}

func (m *MockContactRepository) ListByUser(ctx context.Context, userID int64) ([]*contact.Contact, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	var out []*contact.Contact
	for _, c := range m.Contacts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	// Stable insertion order, like a SELECT ordered by id
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockContactRepository) Update(ctx context.Context, c *contact.Contact) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Contacts[c.ID]; !ok {
		return fmt.Errorf("contact not found")
	}
	m.Contacts[c.ID] = c
	return nil
}

func (m *MockContactRepository) Delete(ctx context.Context, userID, id int64) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	c, ok := m.Contacts[id]
	if !ok || c.UserID != userID {
		return fmt.Errorf("contact not found")
	}
	delete(m.Contacts, id)
	return nil
}

// MockAlertRepository is a mock implementation of alert.Repository
type MockAlertRepository struct {
	Alerts      map[int64]*alert.Alert
	NextID      int64
	CreateError error
	ListError   error
	UpdateError error
}

func NewMockAlertRepository() *MockAlertRepository {
	return &MockAlertRepository{
		Alerts: make(map[int64]*alert.Alert),
		NextID: 1,
	}
}

func (m *MockAlertRepository) Create(ctx context.Context, a *alert.Alert) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	stored := *a
	stored.ID = m.NextID
	m.NextID++
	m.Alerts[stored.ID] = &stored
	return stored.ID, nil
}

func (m *MockAlertRepository) GetByID(ctx context.Context, userID, id int64) (*alert.Alert, error) {
	a, ok := m.Alerts[id]
	if !ok || a.UserID != userID {
		return nil, fmt.Errorf("alert not found")
	}
	return a, nil
}

func (m *MockAlertRepository) ListByStatus(ctx context.Context, status string) ([]*alert.Alert, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	var out []*alert.Alert
	for _, a := range m.Alerts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockAlertRepository) ListByUser(ctx context.Context, userID int64) ([]*alert.Alert, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	var out []*alert.Alert
	for _, a := range m.Alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MockAlertRepository) UpdateStatus(ctx context.Context, userID, id int64, status string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	a, ok := m.Alerts[id]
	if !ok || a.UserID != userID {
		return fmt.Errorf("alert not found")
	}
	a.Status = status
	return nil
}

// Delivery records one Deliver call made against a MockChannel
type Delivery struct {
	ContactID int64
	Message   notify.Message
}

// MockChannel is a mock implementation of notify.Channel. Recipient uses the
// contact's email unless PhoneBased is set.
type MockChannel struct {
	mu         sync.Mutex
	ChanName   string
	PhoneBased bool
	Result     notify.Status
	Deliveries []Delivery
}

func NewMockChannel(name string) *MockChannel {
	return &MockChannel{ChanName: name, Result: notify.StatusDelivered}
}

func (m *MockChannel) Name() string { return m.ChanName }

func (m *MockChannel) Recipient(c *contact.Contact) (string, bool) {
	if m.PhoneBased {
		return c.Phone, c.Phone != ""
	}
	return c.Email, c.Email != ""
}

func (m *MockChannel) Deliver(ctx context.Context, msg notify.Message, c *contact.Contact) notify.Result {
	m.mu.Lock()
	m.Deliveries = append(m.Deliveries, Delivery{ContactID: c.ID, Message: msg})
	m.mu.Unlock()

	res := notify.Result{Channel: m.ChanName, Status: m.Result}
	if m.Result == notify.StatusFailed {
		res.Reason = "mock failure"
		res.Err = fmt.Errorf("mock transport error")
	}
	return res
}

// DeliveryCount returns how many Deliver calls the channel has seen.
func (m *MockChannel) DeliveryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Deliveries)
}
