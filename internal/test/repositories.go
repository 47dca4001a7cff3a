package test

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainErrors "github.com/tilvo/tasko/internal/domain/errors"
	"github.com/tilvo/tasko/internal/domain/model"
	"github.com/tilvo/tasko/internal/domain/repository"
)

// MemoryStore is an in-memory store with all-or-nothing conversions.
// Error fields inject failures into the matching operation.
type MemoryStore struct {
	Drafts        map[string]*model.Draft
	Users         map[string]*model.User
	Orders        map[string]*model.Order
	Notifications []model.Notification

	// Conflicts makes the next n conversions fail to commit and be replayed.
	Conflicts int

	InsertOrderErr  error
	MarkDraftErr    error
	SaveAddressErr  error
	EnqueueErr      error
	UserReadErr     error
	UpdateUserErr   error
	ClaimErr        error
	MarkSentErr     error
	CommitErr       error
	ConversionRuns  int
	AddressWrites   int
	PaymentWrites   int
	AccountWrites   int
	notificationSeq int

	mu sync.Mutex
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Drafts: make(map[string]*model.Draft),
		Users:  make(map[string]*model.User),
		Orders: make(map[string]*model.Order),
	}
}

var (
	_ repository.OrderRepository        = (*MemoryStore)(nil)
	_ repository.UserRepository         = (*MemoryStore)(nil)
	_ repository.NotificationRepository = (*MemoryStore)(nil)
)

type snapshot struct {
	drafts        map[string]*model.Draft
	users         map[string]*model.User
	orders        map[string]*model.Order
	notifications []model.Notification
	addressWrites int
}

func (s *MemoryStore) snapshot() snapshot {
	snap := snapshot{
		drafts:        make(map[string]*model.Draft, len(s.Drafts)),
		users:         make(map[string]*model.User, len(s.Users)),
		orders:        make(map[string]*model.Order, len(s.Orders)),
		notifications: append([]model.Notification(nil), s.Notifications...),
		addressWrites: s.AddressWrites,
	}
	for id, d := range s.Drafts {
		snap.drafts[id] = copyDraft(d)
	}
	for id, u := range s.Users {
		snap.users[id] = copyUser(u)
	}
	for id, o := range s.Orders {
		copied := *o
		snap.orders[id] = &copied
	}
	return snap
}

func (s *MemoryStore) restore(snap snapshot) {
	s.Drafts = snap.drafts
	s.Users = snap.users
	s.Orders = snap.orders
	s.Notifications = snap.notifications
	s.AddressWrites = snap.addressWrites
}

// RunConversion runs fn under the store lock and discards its writes on error or conflict.
func (s *MemoryStore) RunConversion(ctx context.Context, fn func(tx repository.ConversionTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		s.ConversionRuns++
		snap := s.snapshot()
		if err := fn(&memoryTx{store: s}); err != nil {
			s.restore(snap)
			return err
		}
		if s.Conflicts > 0 {
			s.Conflicts--
			s.restore(snap)
			continue
		}
		if s.CommitErr != nil {
			s.restore(snap)
			return s.CommitErr
		}
		return nil
	}
}

// OrderCount returns the number of stored orders.
func (s *MemoryStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Orders)
}

// OrderForDraft returns the order created from draftID, if any.
func (s *MemoryStore) OrderForDraft(draftID string) *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Orders {
		if o.DraftID == draftID {
			copied := *o
			return &copied
		}
	}
	return nil
}

// Draft returns a copy of the stored draft.
func (s *MemoryStore) Draft(id string) *model.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.Drafts[id]; ok {
		return copyDraft(d)
	}
	return nil
}

// User returns a copy of the stored user.
func (s *MemoryStore) User(id string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.Users[id]; ok {
		return copyUser(u)
	}
	return nil
}

type memoryTx struct {
	store *MemoryStore
}

func (t *memoryTx) DraftForUpdate(ctx context.Context, draftID string) (*model.Draft, error) {
	d, ok := t.store.Drafts[draftID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return copyDraft(d), nil
}

func (t *memoryTx) UserForUpdate(ctx context.Context, userID string) (*model.User, error) {
	if t.store.UserReadErr != nil {
		return nil, t.store.UserReadErr
	}
	u, ok := t.store.Users[userID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return copyUser(u), nil
}

func (t *memoryTx) InsertOrder(ctx context.Context, order *model.Order) error {
	if t.store.InsertOrderErr != nil {
		return t.store.InsertOrderErr
	}
	for _, existing := range t.store.Orders {
		if existing.DraftID == order.DraftID {
			return fmt.Errorf("duplicate order for draft %s", order.DraftID)
		}
	}
	copied := *order
	t.store.Orders[order.ID] = &copied
	return nil
}

func (t *memoryTx) MarkDraftConverted(ctx context.Context, draftID, orderID string, at time.Time) error {
	if t.store.MarkDraftErr != nil {
		return t.store.MarkDraftErr
	}
	d, ok := t.store.Drafts[draftID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	d.Status = model.DraftStatusConverted
	d.ConvertedToOrderID = &orderID
	d.UpdatedAt = at
	return nil
}

func (t *memoryTx) SaveAddressBook(ctx context.Context, userID string, addresses []model.Address, personal model.PersonalDetails, at time.Time) error {
	if t.store.SaveAddressErr != nil {
		return t.store.SaveAddressErr
	}
	u, ok := t.store.Users[userID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	u.Addresses = append([]model.Address(nil), addresses...)
	u.Personal = personal
	u.UpdatedAt = at
	t.store.AddressWrites++
	return nil
}

func (t *memoryTx) EnqueueNotification(ctx context.Context, n *model.Notification) error {
	if t.store.EnqueueErr != nil {
		return t.store.EnqueueErr
	}
	t.store.Notifications = append(t.store.Notifications, *n)
	return nil
}

func (t *memoryTx) Savepoint(ctx context.Context, name string, fn func() error) error {
	snap := t.store.snapshot()
	if err := fn(); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// GetByID returns a copy of the user.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UserReadErr != nil {
		return nil, s.UserReadErr
	}
	u, ok := s.Users[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return copyUser(u), nil
}

// FindByStripeAccountID returns the user owning accountID.
func (s *MemoryStore) FindByStripeAccountID(ctx context.Context, accountID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UserReadErr != nil {
		return nil, s.UserReadErr
	}
	for _, u := range s.Users {
		if u.StripeAccountID != nil && *u.StripeAccountID == accountID {
			return copyUser(u), nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// UpdatePaymentMethods overwrites the saved payment methods.
func (s *MemoryStore) UpdatePaymentMethods(ctx context.Context, userID string, methods []model.SavedPaymentMethod, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateUserErr != nil {
		return s.UpdateUserErr
	}
	u, ok := s.Users[userID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	u.PaymentMethods = append([]model.SavedPaymentMethod(nil), methods...)
	u.UpdatedAt = at
	s.PaymentWrites++
	return nil
}

// UpdateAccountStatus overwrites the mirrored account flags.
func (s *MemoryStore) UpdateAccountStatus(ctx context.Context, userID string, status model.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateUserErr != nil {
		return s.UpdateUserErr
	}
	u, ok := s.Users[userID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	u.Account = status
	s.AccountWrites++
	return nil
}

// ClaimPending marks up to limit pending notifications as sending.
func (s *MemoryStore) ClaimPending(ctx context.Context, limit int) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClaimErr != nil {
		return nil, s.ClaimErr
	}
	var claimed []model.Notification
	for i := range s.Notifications {
		if len(claimed) >= limit {
			break
		}
		if s.Notifications[i].Status == model.NotificationStatusPending {
			s.Notifications[i].Status = model.NotificationStatusSending
			claimed = append(claimed, s.Notifications[i])
		}
	}
	return claimed, nil
}

// MarkSent records a successful delivery.
func (s *MemoryStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MarkSentErr != nil {
		return s.MarkSentErr
	}
	n := s.notification(id)
	if n == nil {
		return domainErrors.ErrNotFound
	}
	n.Status = model.NotificationStatusSent
	n.SentAt = &at
	n.LastError = nil
	return nil
}

// MarkFailed records a failed delivery and parks it at maxAttempts.
func (s *MemoryStore) MarkFailed(ctx context.Context, id string, reason string, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notification(id)
	if n == nil {
		return domainErrors.ErrNotFound
	}
	n.Attempts++
	n.LastError = &reason
	if n.Attempts >= maxAttempts {
		n.Status = model.NotificationStatusFailed
	} else {
		n.Status = model.NotificationStatusPending
	}
	return nil
}

// AddNotification appends a pending notification and returns its id.
func (s *MemoryStore) AddNotification(n model.Notification) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		s.notificationSeq++
		n.ID = fmt.Sprintf("n-%d", s.notificationSeq)
	}
	if n.Status == "" {
		n.Status = model.NotificationStatusPending
	}
	s.Notifications = append(s.Notifications, n)
	return n.ID
}

// Notification returns a copy of the stored notification.
func (s *MemoryStore) Notification(id string) *model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.notification(id); n != nil {
		copied := *n
		return &copied
	}
	return nil
}

func (s *MemoryStore) notification(id string) *model.Notification {
	for i := range s.Notifications {
		if s.Notifications[i].ID == id {
			return &s.Notifications[i]
		}
	}
	return nil
}

func copyDraft(d *model.Draft) *model.Draft {
	copied := *d
	if d.ConvertedToOrderID != nil {
		id := *d.ConvertedToOrderID
		copied.ConvertedToOrderID = &id
	}
	return &copied
}

func copyUser(u *model.User) *model.User {
	copied := *u
	copied.Addresses = append([]model.Address(nil), u.Addresses...)
	copied.PaymentMethods = append([]model.SavedPaymentMethod(nil), u.PaymentMethods...)
	return &copied
}
