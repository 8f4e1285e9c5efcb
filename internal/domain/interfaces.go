package domain

import (
	"context"
	"time"
)

// Repository interfaces
type ListingRepository interface {
	CreateListing(ctx context.Context, listing *Listing) error
	GetListing(ctx context.Context, listingID string) (*Listing, error)
	// GetListingForUpdate reads the listing holding an exclusive row lock
	// for the remainder of the enclosing transaction.
	GetListingForUpdate(ctx context.Context, listingID string) (*Listing, error)
	ListListings(ctx context.Context) ([]*Listing, error)
	ListExpiredActiveListings(ctx context.Context, now time.Time) ([]*Listing, error)
	UpdateListingPrice(ctx context.Context, listingID string, amount float64) error
	SetListingInactive(ctx context.Context, listingID string) error
}

type BidRepository interface {
	InsertBid(ctx context.Context, bid *Bid) error
	// GetHighestBid returns the bid with the maximum amount for the listing,
	// most recent first on a tie. Returns (nil, nil) when no bids exist.
	GetHighestBid(ctx context.Context, listingID string) (*Bid, error)
	ListBidsForListing(ctx context.Context, listingID string) ([]*Bid, error)
}

type NotificationRepository interface {
	InsertNotification(ctx context.Context, notification *Notification) error
	ListNotificationsForUser(ctx context.Context, userID string) ([]*Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, userID string) (*User, error)
}

// Store groups the repositories behind a single handle. A Store may be
// backed by the database connection (auto-commit) or by a transaction.
type Store interface {
	Listings() ListingRepository
	Bids() BidRepository
	Notifications() NotificationRepository
	Users() UserRepository
}

// UnitOfWork runs fn against a transaction-scoped Store. The transaction
// commits when fn returns nil and rolls back on any error or panic, so
// every write fn performs is all-or-nothing.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// ListingLocker serializes access to a single listing across instances.
// Acquire blocks for at most the configured wait and returns ErrBusy when
// the lock cannot be taken in time.
type ListingLocker interface {
	Acquire(ctx context.Context, listingID string) (release func(), err error)
}

// Dispatcher delivers a message to a user out-of-band. Best-effort: a
// failure never affects the outcome of the operation that produced it.
type Dispatcher interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// Event interfaces
type EventPublisher interface {
	PublishMarketEvent(ctx context.Context, event *MarketEvent) error
}

type EventSubscriber interface {
	SubscribeToMarketEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *MarketEvent) error
