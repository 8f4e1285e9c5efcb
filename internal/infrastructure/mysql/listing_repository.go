package mysql

import (
	"context"
	"database/sql"
	"time"

	"auction-marketplace/internal/domain"
)

type listingRepository struct {
	q querier
}

const listingColumns = `id, title, description, starting_price, current_price, end_time, user_id, is_active, created_at`

func (r *listingRepository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	query := `
        INSERT INTO listings (id, title, description, starting_price, current_price, end_time, user_id, is_active, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.q.ExecContext(ctx, query,
		listing.ID, listing.Title, listing.Description,
		listing.StartingPrice, listing.CurrentPrice, listing.EndTime,
		listing.OwnerID, listing.Active, listing.CreatedAt)
	return mapError(err)
}

func (r *listingRepository) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	return r.scanListing(r.q.QueryRowContext(ctx, query, listingID))
}

func (r *listingRepository) GetListingForUpdate(ctx context.Context, listingID string) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ? FOR UPDATE`
	return r.scanListing(r.q.QueryRowContext(ctx, query, listingID))
}

func (r *listingRepository) ListListings(ctx context.Context) ([]*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *listingRepository) ListExpiredActiveListings(ctx context.Context, now time.Time) ([]*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE end_time <= ? AND is_active = TRUE`

	rows, err := r.q.QueryContext(ctx, query, now)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *listingRepository) UpdateListingPrice(ctx context.Context, listingID string, amount float64) error {
	query := `UPDATE listings SET current_price = ? WHERE id = ?`
	_, err := r.q.ExecContext(ctx, query, amount, listingID)
	return mapError(err)
}

func (r *listingRepository) SetListingInactive(ctx context.Context, listingID string) error {
	query := `UPDATE listings SET is_active = FALSE WHERE id = ?`
	_, err := r.q.ExecContext(ctx, query, listingID)
	return mapError(err)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *listingRepository) scanListing(row rowScanner) (*domain.Listing, error) {
	var listing domain.Listing
	err := row.Scan(&listing.ID, &listing.Title, &listing.Description,
		&listing.StartingPrice, &listing.CurrentPrice, &listing.EndTime,
		&listing.OwnerID, &listing.Active, &listing.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &listing, nil
}

func (r *listingRepository) collect(rows *sql.Rows) ([]*domain.Listing, error) {
	var listings []*domain.Listing
	for rows.Next() {
		listing, err := r.scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return listings, nil
}
