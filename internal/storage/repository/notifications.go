package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
)

// CreateNotification сохраняет уведомление для мастера и возвращает его.
func (s *Storage) CreateNotification(ctx context.Context, userID int, content string) (*models.Notification, error) {
	const op = "storage.CreateNotification"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO notifications (user_id, content)
			  VALUES ($1, $2)
			  RETURNING id, user_id, content, read, created_at`
	var n models.Notification
	if err := s.DB.QueryRowContext(ctx, query, userID, content).Scan(
		&n.ID, &n.UserID, &n.Content, &n.Read, &n.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &n, nil
}

// ListNotifications возвращает уведомления мастера, новые первыми.
func (s *Storage) ListNotifications(ctx context.Context, userID, limit, offset int) ([]*models.Notification, error) {
	const op = "storage.ListNotifications"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, content, read, created_at
			  FROM notifications
			  WHERE user_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Notification
	for rows.Next() {
		var item models.Notification
		if err := rows.Scan(&item.ID, &item.UserID, &item.Content, &item.Read, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkNotificationRead помечает уведомление прочитанным. Чужое или
// несуществующее уведомление отображается в ErrNotificationNotFound.
func (s *Storage) MarkNotificationRead(ctx context.Context, id, userID int) (*models.Notification, error) {
	const op = "storage.MarkNotificationRead"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE notifications
			  SET read = true
			  WHERE id = $1 AND user_id = $2
			  RETURNING id, user_id, content, read, created_at`
	var n models.Notification
	if err := s.DB.QueryRowContext(ctx, query, id, userID).Scan(
		&n.ID, &n.UserID, &n.Content, &n.Read, &n.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotificationNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &n, nil
}
