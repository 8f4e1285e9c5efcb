package mysql

import (
	"context"

	"auction-marketplace/internal/domain"
)

type userRepository struct {
	q querier
}

func (r *userRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
        INSERT INTO users (id, username, email, phone_number, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.q.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.Phone, user.CreatedAt)
	return mapError(err)
}

func (r *userRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
        SELECT id, username, email, phone_number, created_at
        FROM users WHERE id = ?
    `

	var user domain.User
	err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Username, &user.Email, &user.Phone, &user.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}
