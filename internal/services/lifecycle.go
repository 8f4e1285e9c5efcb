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

// ListingTransition describes one listing closed by a sweep, with the
// messages to deliver once its transaction has committed.
type ListingTransition struct {
	ListingID  string
	SellerID   string
	WinningBid *domain.Bid
	Outbound   []domain.OutboundMessage
}

// LifecycleManager closes expired listings. Each listing transitions in
// its own transaction under its own lock, so a failure on one never
// aborts the sweep of the rest, and re-running the sweep is harmless.
type LifecycleManager struct {
	store domain.Store
	uow   domain.UnitOfWork
	locks domain.ListingLocker
	log   logger.Logger
}

func NewLifecycleManager(store domain.Store, uow domain.UnitOfWork, locks domain.ListingLocker, log logger.Logger) *LifecycleManager {
	return &LifecycleManager{
		store: store,
		uow:   uow,
		locks: locks,
		log:   log,
	}
}

// SweepExpiredListings deactivates every listing whose end time has
// passed, exactly once, and prepares the seller and winner notifications.
// Safe to call repeatedly and from concurrent instances.
func (m *LifecycleManager) SweepExpiredListings(ctx context.Context, now time.Time) ([]ListingTransition, error) {
	expired, err := m.store.Listings().ListExpiredActiveListings(ctx, now)
	if err != nil {
		return nil, err
	}

	if len(expired) == 0 {
		return nil, nil
	}

	m.log.Info("Sweeping expired listings", "candidates", len(expired), "now", now)

	var transitions []ListingTransition
	for _, candidate := range expired {
		transition, err := m.transition(ctx, candidate.ID, now)
		if err != nil {
			// Another instance may hold the lock or have won the race;
			// either way this listing is not ours this tick.
			if errors.Is(err, domain.ErrBusy) {
				m.log.Debug("Listing locked by another sweeper", "listing_id", candidate.ID)
				continue
			}
			m.log.Error("Failed to close expired listing", "listing_id", candidate.ID, "error", err)
			continue
		}
		if transition != nil {
			transitions = append(transitions, *transition)
		}
	}

	return transitions, nil
}

// transition closes a single listing atomically. Returns (nil, nil) when
// the listing was already closed by a concurrent sweep.
func (m *LifecycleManager) transition(ctx context.Context, listingID string, now time.Time) (*ListingTransition, error) {
	release, err := m.locks.Acquire(ctx, listingID)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *ListingTransition
	err = m.uow.WithinTx(ctx, func(tx domain.Store) error {
		listing, err := tx.Listings().GetListingForUpdate(ctx, listingID)
		if err != nil {
			return err
		}

		// Re-check under the row lock: the active filter is what makes
		// repeated sweeps idempotent.
		if !listing.Active {
			return nil
		}

		if err := tx.Listings().SetListingInactive(ctx, listingID); err != nil {
			return err
		}

		transition := &ListingTransition{ListingID: listingID, SellerID: listing.OwnerID}

		sellerMsg := fmt.Sprintf("Your listing '%s' has ended.", listing.Title)
		msg, err := m.notify(ctx, tx, listing.OwnerID, sellerMsg, now)
		if err != nil {
			return err
		}
		transition.Outbound = append(transition.Outbound, msg)

		winner, err := tx.Bids().GetHighestBid(ctx, listingID)
		if err != nil {
			return err
		}
		if winner != nil {
			transition.WinningBid = winner
			winnerMsg := fmt.Sprintf("Congratulations! You won the listing '%s' with a bid of %.2f.",
				listing.Title, winner.Amount)
			msg, err := m.notify(ctx, tx, winner.BidderID, winnerMsg, now)
			if err != nil {
				return err
			}
			transition.Outbound = append(transition.Outbound, msg)
		}

		result = transition
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result != nil {
		m.log.Info("Listing closed",
			"listing_id", listingID, "seller_id", result.SellerID, "has_winner", result.WinningBid != nil)
	}
	return result, nil
}

func (m *LifecycleManager) notify(ctx context.Context, tx domain.Store, userID, message string, now time.Time) (domain.OutboundMessage, error) {
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
		m.log.Warn("Notification recipient has no user record", "user_id", userID)
	default:
		return domain.OutboundMessage{}, err
	}

	return out, nil
}
