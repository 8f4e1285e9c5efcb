package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auction-marketplace/internal/domain"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so the repositories
// work identically in auto-commit and transactional mode.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store implements domain.Store and domain.UnitOfWork over MySQL.
type Store struct {
	q  querier
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{q: db, db: db}
}

func (s *Store) Listings() domain.ListingRepository {
	return &listingRepository{q: s.q}
}

func (s *Store) Bids() domain.BidRepository {
	return &bidRepository{q: s.q}
}

func (s *Store) Notifications() domain.NotificationRepository {
	return &notificationRepository{q: s.q}
}

func (s *Store) Users() domain.UserRepository {
	return &userRepository{q: s.q}
}

// WithinTx runs fn against a transaction-scoped Store, committing on nil
// and rolling back on error or panic.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.db == nil {
		return fmt.Errorf("%w: nested transaction", domain.ErrStoreFailure)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{q: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

// MySQL error numbers for lock wait timeout and deadlock victim.
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// mapError translates driver errors into the domain taxonomy at the
// repository edge; no raw driver error escapes this package.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errLockWaitTimeout, errDeadlock:
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		}
	}

	return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
}
