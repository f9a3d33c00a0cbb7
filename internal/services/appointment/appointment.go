// Package services содержит бизнес-логику бронирования и отмены записей:
// цепочку проверок при создании, двухчасовое окно отмены и публикацию
// сообщения для письма об отмене.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/ptbr"
	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
	"github.com/magabrotheeeer/appointment-scheduler/internal/rabbitmq"
	"github.com/magabrotheeeer/appointment-scheduler/internal/storage/repository"
)

// Ошибки бизнес-правил бронирования и отмены. Обработчики переводят их
// в статусы и сообщения ответов.
var (
	ErrInvalidDate     = errors.New("invalid appointment date")
	ErrNotProvider     = errors.New("appointments can only be created with providers")
	ErrSelfBooking     = errors.New("providers cannot create appointments to themselves")
	ErrPastDate        = errors.New("past dates are not permitted")
	ErrSlotTaken       = errors.New("appointment date is not available")
	ErrNotFound        = errors.New("appointment not found")
	ErrNotOwner        = errors.New("appointment belongs to another user")
	ErrAlreadyCanceled = errors.New("appointment is already canceled")
	ErrTooLate         = errors.New("appointments can only be canceled two hours in advance")
)

// cancelWindow — минимальный запас времени до начала приёма,
// при котором отмена ещё разрешена.
const cancelWindow = 2 * time.Hour

// pageSize — фиксированный размер страницы списка записей.
const pageSize = 20

// AppointmentRepository определяет методы хранилища, нужные для работы с записями.
type AppointmentRepository interface {
	// FindProvider возвращает пользователя-мастера по ID.
	FindProvider(ctx context.Context, id int) (*models.User, error)
	// GetUser возвращает пользователя по ID.
	GetUser(ctx context.Context, id int) (*models.User, error)
	// CreateAppointment транзакционно создаёт запись в свободном слоте.
	CreateAppointment(ctx context.Context, userID, providerID int, date time.Time) (*models.Appointment, error)
	// ListAppointments возвращает неотменённые записи клиента с пагинацией.
	ListAppointments(ctx context.Context, userID, limit, offset int) ([]*models.AppointmentView, error)
	// GetAppointmentDetail возвращает запись вместе с данными её сторон.
	GetAppointmentDetail(ctx context.Context, id int) (*models.AppointmentDetail, error)
	// CancelAppointment проставляет canceled_at, возвращает число изменённых строк.
	CancelAppointment(ctx context.Context, id int, at time.Time) (int, error)
	// CreateNotification сохраняет уведомление мастера о новой записи.
	CreateNotification(ctx context.Context, userID int, content string) (*models.Notification, error)
	// ListSchedule возвращает дневное расписание мастера.
	ListSchedule(ctx context.Context, providerID int, day time.Time) ([]*models.ScheduleItem, error)
}

// Publisher описывает публикацию сообщений в брокер.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// AppointmentService реализует бизнес-логику работы с записями.
type AppointmentService struct {
	repo      AppointmentRepository
	cache     Cache
	publisher Publisher
	log       *slog.Logger
	appURL    string
}

// NewAppointmentService создает новый экземпляр AppointmentService.
// appURL используется для построения ссылок на аватары в ответах.
func NewAppointmentService(repo AppointmentRepository, cache Cache, publisher Publisher,
	log *slog.Logger, appURL string) *AppointmentService {
	return &AppointmentService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		log:       log,
		appURL:    appURL,
	}
}

// Create проводит запрос на бронирование через цепочку проверок и при успехе
// создаёт запись и уведомление мастера. Порядок проверок фиксирован: мастер,
// самозапись, прошедшая дата, занятость слота.
func (s *AppointmentService) Create(ctx context.Context, userID int, req models.DummyAppointment) (*models.Appointment, *models.Notification, error) {
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}

	if _, err := s.repo.FindProvider(ctx, req.ProviderID); err != nil {
		if errors.Is(err, repository.ErrProviderNotFound) {
			return nil, nil, ErrNotProvider
		}
		return nil, nil, err
	}

	if req.ProviderID == userID {
		return nil, nil, ErrSelfBooking
	}

	hourStart := date.Truncate(time.Hour)
	if hourStart.Before(time.Now()) {
		return nil, nil, ErrPastDate
	}

	appointment, err := s.repo.CreateAppointment(ctx, userID, req.ProviderID, hourStart)
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, nil, ErrSlotTaken
		}
		return nil, nil, err
	}
	s.log.Info("created new appointment",
		slog.Int("id", appointment.ID), slog.Int("provider_id", req.ProviderID))

	client, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	content := fmt.Sprintf("Novo agendamento de %s para %s",
		client.Name, ptbr.FormatDate(hourStart))
	notification, err := s.repo.CreateNotification(ctx, req.ProviderID, content)
	if err != nil {
		return nil, nil, err
	}

	return appointment, notification, nil
}

// List возвращает страницу неотменённых записей клиента, по 20 на страницу,
// отсортированных по дате, с заполненными ссылками на аватары мастеров.
func (s *AppointmentService) List(ctx context.Context, userID, page int) ([]*models.AppointmentView, error) {
	if page < 1 {
		page = 1
	}
	entries, err := s.repo.ListAppointments(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.Provider.Avatar != nil {
			entry.Provider.Avatar.URL = s.avatarURL(entry.Provider.Avatar.Path)
		}
	}
	return entries, nil
}

// Cancel отменяет запись клиента: проверяет владельца, повторную отмену
// и двухчасовое окно, затем проставляет canceled_at и публикует сообщение
// для письма мастеру. Ошибка публикации не откатывает отмену.
func (s *AppointmentService) Cancel(ctx context.Context, id, userID int) (*models.AppointmentDetail, error) {
	detail, err := s.getDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAppointmentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if detail.UserID != userID {
		return nil, ErrNotOwner
	}
	if detail.CanceledAt != nil {
		return nil, ErrAlreadyCanceled
	}
	if time.Now().After(detail.Date.Add(-cancelWindow)) {
		return nil, ErrTooLate
	}

	now := time.Now()
	affected, err := s.repo.CancelAppointment(ctx, id, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Конкурентная отмена успела раньше.
		return nil, ErrAlreadyCanceled
	}
	detail.CanceledAt = &now
	detail.UpdatedAt = now

	cacheKey := fmt.Sprintf("appointment:%d", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), sl.Err(err))
	}

	message := models.CancellationMessage{
		AppointmentID: detail.ID,
		Date:          detail.Date,
		ProviderName:  detail.ProviderName,
		ProviderEmail: detail.ProviderEmail,
		ClientName:    detail.ClientName,
	}
	if err := s.publisher.Publish(rabbitmq.ExchangeName, rabbitmq.CancellationKey, message); err != nil {
		s.log.Error("failed to publish cancellation message",
			slog.Int("appointment_id", id), sl.Err(err))
	}

	s.log.Info("appointment canceled", slog.Int("id", id))
	return detail, nil
}

// getDetail читает запись из кеша, при промахе обращается к хранилищу
// и кладёт результат в кеш. Устаревший canceled_at из кеша не опасен:
// CancelAppointment меняет только ещё не отменённые строки.
func (s *AppointmentService) getDetail(ctx context.Context, id int) (*models.AppointmentDetail, error) {
	cacheKey := fmt.Sprintf("appointment:%d", id)
	var cached models.AppointmentDetail
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read appointment from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, detail, time.Hour); err != nil {
		s.log.Warn("failed to cache appointment", slog.String("key", cacheKey), sl.Err(err))
	}
	return detail, nil
}

// Schedule возвращает дневное расписание мастера. Запрашивать его может
// только пользователь с признаком мастера.
func (s *AppointmentService) Schedule(ctx context.Context, providerID int, day time.Time) ([]*models.ScheduleItem, error) {
	user, err := s.repo.GetUser(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !user.Provider {
		return nil, ErrNotProvider
	}
	return s.repo.ListSchedule(ctx, providerID, day)
}

func (s *AppointmentService) avatarURL(path string) string {
	return s.appURL + "/files/" + path
}
