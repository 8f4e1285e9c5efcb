package services

import (
	"context"
	"sync"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// fakeStore is an in-memory Store and UnitOfWork with real commit and
// rollback semantics: WithinTx snapshots the data and restores it when
// the callback fails, so the atomicity properties can be asserted.
type fakeStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users         map[string]domain.User
	listings      map[string]domain.Listing
	bids          map[string]domain.Bid
	notifications map[string]domain.Notification

	// failures queues an error per operation name, popped on each call.
	failures map[string][]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[string]domain.User),
		listings:      make(map[string]domain.Listing),
		bids:          make(map[string]domain.Bid),
		notifications: make(map[string]domain.Notification),
		failures:      make(map[string][]error),
	}
}

func (s *fakeStore) failNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], errs...)
}

// checkFail must be called with s.mu held.
func (s *fakeStore) checkFail(op string) error {
	if q := s.failures[op]; len(q) > 0 {
		err := q[0]
		s.failures[op] = q[1:]
		return err
	}
	return nil
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapUsers := cloneMap(s.users)
	snapListings := cloneMap(s.listings)
	snapBids := cloneMap(s.bids)
	snapNotifications := cloneMap(s.notifications)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users = snapUsers
		s.listings = snapListings
		s.bids = snapBids
		s.notifications = snapNotifications
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *fakeStore) Listings() domain.ListingRepository { return (*fakeListings)(s) }

func (s *fakeStore) Bids() domain.BidRepository { return (*fakeBids)(s) }

func (s *fakeStore) Notifications() domain.NotificationRepository { return (*fakeNotifications)(s) }

func (s *fakeStore) Users() domain.UserRepository { return (*fakeUsers)(s) }

// Seed helpers.

func (s *fakeStore) addUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *fakeStore) addListing(l domain.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[l.ID] = l
}

func (s *fakeStore) addBid(b domain.Bid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids[b.ID] = b
}

// Assertion helpers.

func (s *fakeStore) listing(id string) domain.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings[id]
}

func (s *fakeStore) bidCount(listingID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, b := range s.bids {
		if b.ListingID == listingID {
			count++
		}
	}
	return count
}

func (s *fakeStore) notificationsFor(userID string) []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (s *fakeStore) notificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

type fakeListings fakeStore

func (r *fakeListings) CreateListing(ctx context.Context, listing *domain.Listing) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFail("CreateListing"); err != nil {
		return err
	}
	s.listings[listing.ID] = *listing
	return nil
}

func (r *fakeListings) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFail("GetListing"); err != nil {
		return nil, err
	}
	listing, ok := s.listings[listingID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := listing
	return &copied, nil
}

func (r *fakeListings) GetListingForUpdate(ctx context.Context, listingID string) (*domain.Listing, error) {
	return r.GetListing(ctx, listingID)
}

func (r *fakeListings) ListListings(ctx context.Context) ([]*domain.Listing, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Listing
	for _, l := range s.listings {
		copied := l
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeListings) ListExpiredActiveListings(ctx context.Context, now time.Time) ([]*domain.Listing, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFail("ListExpiredActiveListings"); err != nil {
		return nil, err
	}
	var out []*domain.Listing
	for _, l := range s.listings {
		if l.Active && !l.EndTime.After(now) {
			copied := l
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeListings) UpdateListingPrice(ctx context.Context, listingID string, amount float64) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFail("UpdateListingPrice"); err != nil {
		return err
	}
	listing, ok := s.listings[listingID]
	if !ok {
		return domain.ErrNotFound
	}
	listing.CurrentPrice = amount
	s.listings[listingID] = listing
	return nil
}

func (r *fakeListings) SetListingInactive(ctx context.Context, listingID string) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFail("SetListingInactive"); err != nil {
		return err
	}
	listing, ok := s.listings[listingID]
	if !ok {
		return domain.ErrNotFound
	}
	listing.Active = false
	s.listings[listingID] = listing
	return nil
}

type fakeBids fakeStore

func (r *fakeBids) InsertBid(ctx context.Context, bid *domain.Bid) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFail("InsertBid"); err != nil {
		return err
	}
	s.bids[bid.ID] = *bid
	return nil
}

func (r *fakeBids) GetHighestBid(ctx context.Context, listingID string) (*domain.Bid, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFail("GetHighestBid"); err != nil {
		return nil, err
	}
	var best *domain.Bid
	for _, b := range s.bids {
		if b.ListingID != listingID {
			continue
		}
		copied := b
		if best == nil ||
			copied.Amount > best.Amount ||
			(copied.Amount == best.Amount && copied.PlacedAt.After(best.PlacedAt)) {
			best = &copied
		}
	}
	return best, nil
}

func (r *fakeBids) ListBidsForListing(ctx context.Context, listingID string) ([]*domain.Bid, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Bid
	for _, b := range s.bids {
		if b.ListingID == listingID {
			copied := b
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeNotifications fakeStore

func (r *fakeNotifications) InsertNotification(ctx context.Context, notification *domain.Notification) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFail("InsertNotification"); err != nil {
		return err
	}
	s.notifications[notification.ID] = *notification
	return nil
}

func (r *fakeNotifications) ListNotificationsForUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			copied := n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeNotifications) MarkNotificationRead(ctx context.Context, notificationID string) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok {
		return domain.ErrNotFound
	}
	n.Read = true
	s.notifications[notificationID] = n
	return nil
}

type fakeUsers fakeStore

func (r *fakeUsers) CreateUser(ctx context.Context, user *domain.User) error {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (r *fakeUsers) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	s := (*fakeStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := user
	return &copied, nil
}

// fakeLocker hands out one slot per listing, waiting up to wait before
// giving up with ErrBusy.
type fakeLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	wait  time.Duration
}

func newFakeLocker(wait time.Duration) *fakeLocker {
	return &fakeLocker{
		slots: make(map[string]chan struct{}),
		wait:  wait,
	}
}

func (l *fakeLocker) slot(listingID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[listingID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[listingID] = ch
	}
	return ch
}

func (l *fakeLocker) Acquire(ctx context.Context, listingID string) (func(), error) {
	ch := l.slot(listingID)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-time.After(l.wait):
		return nil, domain.ErrBusy
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fakeDispatcher records every message it is asked to deliver.
type fakeDispatcher struct {
	mu   sync.Mutex
	sent []domain.OutboundMessage
	err  error
}

func (d *fakeDispatcher) Send(ctx context.Context, msg domain.OutboundMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return d.err
}

func (d *fakeDispatcher) messages() []domain.OutboundMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.OutboundMessage(nil), d.sent...)
}

// fakePublisher records published market events.
type fakePublisher struct {
	mu     sync.Mutex
	events []domain.MarketEvent
}

func (p *fakePublisher) PublishMarketEvent(ctx context.Context, event *domain.MarketEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

type testEnv struct {
	store      *fakeStore
	locker     *fakeLocker
	dispatcher *fakeDispatcher
	publisher  *fakePublisher
	orch       *Orchestrator
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	locker := newFakeLocker(time.Second)
	dispatcher := &fakeDispatcher{}
	publisher := &fakePublisher{}
	log := logger.Nop()

	ledger := NewBidLedger(log)
	lifecycle := NewLifecycleManager(store, store, locker, log)
	orch := NewOrchestrator(ledger, lifecycle, store, locker, dispatcher, publisher, log)

	return &testEnv{
		store:      store,
		locker:     locker,
		dispatcher: dispatcher,
		publisher:  publisher,
		orch:       orch,
	}
}
