package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"
)

// BidLedger validates and records bids against a listing. All writes go
// through the transaction-scoped Store handed in by the orchestrator, so a
// bid, the price update and the notification rows commit as one unit.
type BidLedger struct {
	log logger.Logger
}

func NewBidLedger(log logger.Logger) *BidLedger {
	return &BidLedger{log: log}
}

// PlaceBid applies the bidding rules and, on success, records the bid,
// raises the listing price and inserts the notification rows. The returned
// messages are delivered by the caller after the transaction commits.
//
// Validation order is fixed: unknown listing, ended listing, amount not
// above the current price, then owner bidding on their own listing. The
// first failing check wins and nothing is written.
func (l *BidLedger) PlaceBid(ctx context.Context, tx domain.Store, listingID, bidderID string, amount float64, now time.Time) (*domain.BidReceipt, []domain.OutboundMessage, error) {
	listing, err := tx.Listings().GetListingForUpdate(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}

	if listing.Expired(now) {
		return nil, nil, fmt.Errorf("listing %s: %w", listingID, domain.ErrExpired)
	}

	if amount <= listing.CurrentPrice {
		return nil, nil, fmt.Errorf("%w: current price is %.2f", domain.ErrBidTooLow, listing.CurrentPrice)
	}

	if bidderID == listing.OwnerID {
		return nil, nil, fmt.Errorf("listing %s: %w", listingID, domain.ErrSelfBidForbidden)
	}

	// The previous leader is whoever held the highest amount before this
	// bid. nil means the seller still holds the implicit floor.
	previousLeader, err := tx.Bids().GetHighestBid(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}

	bid := &domain.Bid{
		ID:        utils.GenerateID("bid"),
		ListingID: listingID,
		BidderID:  bidderID,
		Amount:    amount,
		PlacedAt:  now,
	}

	if err := tx.Bids().InsertBid(ctx, bid); err != nil {
		return nil, nil, err
	}

	if err := tx.Listings().UpdateListingPrice(ctx, listingID, amount); err != nil {
		return nil, nil, err
	}

	outbound, err := l.fanOut(ctx, tx, listing, previousLeader, bidderID, now)
	if err != nil {
		return nil, nil, err
	}

	l.log.Info("Bid accepted",
		"bid_id", bid.ID, "listing_id", listingID, "bidder_id", bidderID, "amount", amount)

	receipt := &domain.BidReceipt{BidID: bid.ID, CurrentPrice: amount}
	return receipt, outbound, nil
}

// fanOut inserts the notification rows for an accepted bid and collects
// the matching out-of-band messages. A bidder raising their own leading
// bid notifies nobody.
func (l *BidLedger) fanOut(ctx context.Context, tx domain.Store, listing *domain.Listing, previousLeader *domain.Bid, bidderID string, now time.Time) ([]domain.OutboundMessage, error) {
	if previousLeader != nil && previousLeader.BidderID == bidderID {
		return nil, nil
	}

	var outbound []domain.OutboundMessage

	sellerMsg := fmt.Sprintf("A new bid has been placed on your listing: %s", listing.Title)
	msg, err := l.notify(ctx, tx, listing.OwnerID, sellerMsg, now)
	if err != nil {
		return nil, err
	}
	outbound = append(outbound, msg)

	if previousLeader != nil && previousLeader.BidderID != bidderID {
		outbidMsg := fmt.Sprintf("You have been outbid on %s.", listing.Title)
		msg, err := l.notify(ctx, tx, previousLeader.BidderID, outbidMsg, now)
		if err != nil {
			return nil, err
		}
		outbound = append(outbound, msg)
	}

	return outbound, nil
}

// notify persists a notification row and resolves the recipient's contact
// channel. A missing user row only means no out-of-band delivery; the
// notification record is kept regardless.
func (l *BidLedger) notify(ctx context.Context, tx domain.Store, userID, message string, now time.Time) (domain.OutboundMessage, error) {
	notification := &domain.Notification{
		ID:        utils.GenerateID("ntf"),
		UserID:    userID,
		Message:   message,
		Read:      false,
		CreatedAt: now,
	}

	if err := tx.Notifications().InsertNotification(ctx, notification); err != nil {
		return domain.OutboundMessage{}, err
	}

	out := domain.OutboundMessage{UserID: userID, Message: message}
	user, err := tx.Users().GetUser(ctx, userID)
	switch {
	case err == nil:
		out.Phone = user.Phone
	case errors.Is(err, domain.ErrNotFound):
		l.log.Warn("Notification recipient has no user record", "user_id", userID)
	default:
		return domain.OutboundMessage{}, err
	}

	return out, nil
}
