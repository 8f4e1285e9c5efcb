package services

import (
	"context"
	"errors"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

const (
	maxConflictRetries = 3
	conflictBackoff    = 25 * time.Millisecond
)

// Orchestrator wires the bid ledger and the lifecycle manager to the
// store, the listing locks and the dispatch channel. It exposes the only
// two operations the transport layer and the sweep trigger consume.
type Orchestrator struct {
	ledger     *BidLedger
	lifecycle  *LifecycleManager
	uow        domain.UnitOfWork
	locks      domain.ListingLocker
	dispatcher domain.Dispatcher
	events     domain.EventPublisher
	log        logger.Logger
}

func NewOrchestrator(
	ledger *BidLedger,
	lifecycle *LifecycleManager,
	uow domain.UnitOfWork,
	locks domain.ListingLocker,
	dispatcher domain.Dispatcher,
	events domain.EventPublisher,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		ledger:     ledger,
		lifecycle:  lifecycle,
		uow:        uow,
		locks:      locks,
		dispatcher: dispatcher,
		events:     events,
		log:        log,
	}
}

// PlaceBid runs the bid ledger inside a unit of work under the listing
// lock. Conflicts are retried a bounded number of times with a fresh
// read; validation errors surface unchanged. Out-of-band delivery happens
// only after the transaction has committed and never affects the result.
func (o *Orchestrator) PlaceBid(ctx context.Context, listingID, bidderID string, amount float64, now time.Time) (*domain.BidReceipt, error) {
	release, err := o.locks.Acquire(ctx, listingID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		receipt  *domain.BidReceipt
		outbound []domain.OutboundMessage
	)

	for attempt := 0; ; attempt++ {
		err = o.uow.WithinTx(ctx, func(tx domain.Store) error {
			r, msgs, err := o.ledger.PlaceBid(ctx, tx, listingID, bidderID, amount, now)
			if err != nil {
				return err
			}
			receipt, outbound = r, msgs
			return nil
		})
		if err == nil || !errors.Is(err, domain.ErrConflict) || attempt >= maxConflictRetries {
			break
		}

		o.log.Warn("Retrying bid after conflict", "listing_id", listingID, "attempt", attempt+1)
		select {
		case <-time.After(conflictBackoff << attempt):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	o.dispatch(ctx, outbound)
	o.publish(ctx, &domain.MarketEvent{
		Type:      domain.EventBidAccepted,
		ListingID: listingID,
		UserID:    bidderID,
		Amount:    amount,
		Timestamp: now,
	})

	return receipt, nil
}

// SweepExpiredListings closes every expired active listing and returns
// how many transitioned in this invocation.
func (o *Orchestrator) SweepExpiredListings(ctx context.Context, now time.Time) (int, error) {
	transitions, err := o.lifecycle.SweepExpiredListings(ctx, now)
	if err != nil {
		return 0, err
	}

	for _, t := range transitions {
		o.dispatch(ctx, t.Outbound)

		event := &domain.MarketEvent{
			Type:      domain.EventListingEnded,
			ListingID: t.ListingID,
			Timestamp: now,
		}
		if t.WinningBid != nil {
			event.UserID = t.WinningBid.BidderID
			event.Amount = t.WinningBid.Amount
		}
		o.publish(ctx, event)
	}

	return len(transitions), nil
}

// dispatch delivers committed notifications. Failures are logged and
// swallowed: the bid or sweep already succeeded.
func (o *Orchestrator) dispatch(ctx context.Context, messages []domain.OutboundMessage) {
	if o.dispatcher == nil {
		return
	}
	for _, msg := range messages {
		if err := o.dispatcher.Send(ctx, msg); err != nil {
			o.log.Error("Failed to dispatch notification", "user_id", msg.UserID, "error", err)
		}
	}
}

func (o *Orchestrator) publish(ctx context.Context, event *domain.MarketEvent) {
	if o.events == nil {
		return
	}
	if err := o.events.PublishMarketEvent(ctx, event); err != nil {
		o.log.Error("Failed to publish market event", "type", event.Type, "listing_id", event.ListingID, "error", err)
	}
}
