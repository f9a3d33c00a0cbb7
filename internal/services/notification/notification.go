// Package services содержит бизнес-логику уведомлений мастеров.
package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
)

// ErrNotProvider возвращается, когда уведомления запрашивает обычный клиент.
var ErrNotProvider = errors.New("only providers can load notifications")

const pageSize = 20

// NotificationRepository определяет методы хранилища для уведомлений.
type NotificationRepository interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
	ListNotifications(ctx context.Context, userID, limit, offset int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID int) (*models.Notification, error)
}

// NotificationService реализует выдачу и прочтение уведомлений мастера.
type NotificationService struct {
	repo NotificationRepository
	log  *slog.Logger
}

// NewNotificationService создает новый экземпляр NotificationService.
func NewNotificationService(repo NotificationRepository, log *slog.Logger) *NotificationService {
	return &NotificationService{
		repo: repo,
		log:  log,
	}
}

// List возвращает страницу уведомлений мастера, новые первыми.
func (s *NotificationService) List(ctx context.Context, userID, page int) ([]*models.Notification, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Provider {
		return nil, ErrNotProvider
	}
	if page < 1 {
		page = 1
	}
	return s.repo.ListNotifications(ctx, userID, pageSize, (page-1)*pageSize)
}

// MarkRead помечает уведомление мастера прочитанным.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int) (*models.Notification, error) {
	return s.repo.MarkNotificationRead(ctx, id, userID)
}
