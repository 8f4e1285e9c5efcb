package domain

import (
	"time"
)

type User struct {
	ID        string
	Username  string
	Email     string
	Phone     string
	CreatedAt time.Time
}

type Listing struct {
	ID            string
	Title         string
	Description   string
	StartingPrice float64
	CurrentPrice  float64
	EndTime       time.Time
	OwnerID       string
	Active        bool
	CreatedAt     time.Time
}

// Expired reports whether the listing should no longer accept bids.
// A listing whose timer lapsed but has not been swept yet is already expired.
func (l *Listing) Expired(now time.Time) bool {
	return !l.Active || !now.Before(l.EndTime)
}

type Bid struct {
	ID        string
	ListingID string
	BidderID  string
	Amount    float64
	PlacedAt  time.Time
}

type Notification struct {
	ID        string
	UserID    string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// BidReceipt is returned to the caller after a bid is accepted.
type BidReceipt struct {
	BidID        string
	CurrentPrice float64
}

// OutboundMessage is a notification to deliver out-of-band once the owning
// transaction has committed. Phone may be empty when the recipient has no
// usable contact channel; delivery is best-effort either way.
type OutboundMessage struct {
	UserID  string
	Phone   string
	Message string
}

type MarketEvent struct {
	Type      MarketEventType `json:"type"`
	ListingID string          `json:"listing_id"`
	UserID    string          `json:"user_id"`
	Amount    float64         `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

type MarketEventType string

const (
	EventBidAccepted  MarketEventType = "bid_accepted"
	EventListingEnded MarketEventType = "listing_ended"
)
