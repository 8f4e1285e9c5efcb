package mysql

import (
	"context"

	"auction-marketplace/internal/domain"
)

type notificationRepository struct {
	q querier
}

func (r *notificationRepository) InsertNotification(ctx context.Context, notification *domain.Notification) error {
	query := `
        INSERT INTO notifications (id, user_id, message, is_read, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.q.ExecContext(ctx, query,
		notification.ID, notification.UserID, notification.Message,
		notification.Read, notification.CreatedAt)
	return mapError(err)
}

func (r *notificationRepository) ListNotificationsForUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	query := `
        SELECT id, user_id, message, is_read, created_at
        FROM notifications
        WHERE user_id = ?
        ORDER BY created_at DESC
    `

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, mapError(err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return notifications, nil
}

func (r *notificationRepository) MarkNotificationRead(ctx context.Context, notificationID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = ?`

	result, err := r.q.ExecContext(ctx, query, notificationID)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
