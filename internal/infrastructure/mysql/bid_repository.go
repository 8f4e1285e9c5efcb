package mysql

import (
	"context"
	"database/sql"
	"errors"

	"auction-marketplace/internal/domain"
)

type bidRepository struct {
	q querier
}

func (r *bidRepository) InsertBid(ctx context.Context, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, listing_id, user_id, amount, placed_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.q.ExecContext(ctx, query,
		bid.ID, bid.ListingID, bid.BidderID, bid.Amount, bid.PlacedAt)
	return mapError(err)
}

func (r *bidRepository) GetHighestBid(ctx context.Context, listingID string) (*domain.Bid, error) {
	query := `
        SELECT id, listing_id, user_id, amount, placed_at
        FROM bids
        WHERE listing_id = ?
        ORDER BY amount DESC, placed_at DESC
        LIMIT 1
    `

	var bid domain.Bid
	err := r.q.QueryRowContext(ctx, query, listingID).Scan(
		&bid.ID, &bid.ListingID, &bid.BidderID, &bid.Amount, &bid.PlacedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &bid, nil
}

func (r *bidRepository) ListBidsForListing(ctx context.Context, listingID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, listing_id, user_id, amount, placed_at
        FROM bids
        WHERE listing_id = ?
        ORDER BY placed_at ASC
    `

	rows, err := r.q.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		err := rows.Scan(&bid.ID, &bid.ListingID, &bid.BidderID, &bid.Amount, &bid.PlacedAt)
		if err != nil {
			return nil, mapError(err)
		}
		bids = append(bids, &bid)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return bids, nil
}
