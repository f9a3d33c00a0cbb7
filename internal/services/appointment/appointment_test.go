package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
	"github.com/magabrotheeeer/appointment-scheduler/internal/rabbitmq"
	"github.com/magabrotheeeer/appointment-scheduler/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) FindProvider(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetUser(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) CreateAppointment(ctx context.Context, userID, providerID int, date time.Time) (*models.Appointment, error) {
	args := m.Called(ctx, userID, providerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *RepoMock) ListAppointments(ctx context.Context, userID, limit, offset int) ([]*models.AppointmentView, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AppointmentView), args.Error(1)
}

func (m *RepoMock) GetAppointmentDetail(ctx context.Context, id int) (*models.AppointmentDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppointmentDetail), args.Error(1)
}

func (m *RepoMock) CancelAppointment(ctx context.Context, id int, at time.Time) (int, error) {
	args := m.Called(ctx, id, at)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) CreateNotification(ctx context.Context, userID int, content string) (*models.Notification, error) {
	args := m.Called(ctx, userID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *RepoMock) ListSchedule(ctx context.Context, providerID int, day time.Time) ([]*models.ScheduleItem, error) {
	args := m.Called(ctx, providerID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduleItem), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(exchange, routingKey string, message any) error {
	return m.Called(exchange, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestAppointmentService_Create(t *testing.T) {
	future := time.Now().Add(48 * time.Hour).Truncate(time.Hour).Add(30 * time.Minute)
	futureHour := future.Truncate(time.Hour)
	provider := &models.User{ID: 2, Name: "Carlos Barber", Provider: true}
	client := &models.User{ID: 1, Name: "Maria Silva"}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		userID     int
		req        models.DummyAppointment
		wantErr    error
	}{
		{
			name: "success create",
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("FindProvider", mock.Anything, 2).Return(provider, nil).Once()
				r.On("CreateAppointment", mock.Anything, 1, 2, futureHour).
					Return(&models.Appointment{ID: 42, UserID: 1, ProviderID: 2, Date: futureHour}, nil).Once()
				r.On("GetUser", mock.Anything, 1).Return(client, nil).Once()
				r.On("CreateNotification", mock.Anything, 2, mock.MatchedBy(func(content string) bool {
					return assert.Contains(t, content, "Novo agendamento de Maria Silva")
				})).Return(&models.Notification{ID: 7, UserID: 2}, nil).Once()
			},
			userID:  1,
			req:     models.DummyAppointment{Date: future.Format(time.RFC3339), ProviderID: 2},
			wantErr: nil,
		},
		{
			name:       "invalid date",
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			userID:     1,
			req:        models.DummyAppointment{Date: "not-a-date", ProviderID: 2},
			wantErr:    ErrInvalidDate,
		},
		{
			name: "provider does not exist",
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("FindProvider", mock.Anything, 99).
					Return(nil, repository.ErrProviderNotFound).Once()
			},
			userID:  1,
			req:     models.DummyAppointment{Date: future.Format(time.RFC3339), ProviderID: 99},
			wantErr: ErrNotProvider,
		},
		{
			name: "self booking",
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("FindProvider", mock.Anything, 2).Return(provider, nil).Once()
			},
			userID:  2,
			req:     models.DummyAppointment{Date: future.Format(time.RFC3339), ProviderID: 2},
			wantErr: ErrSelfBooking,
		},
		{
			name: "past date",
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("FindProvider", mock.Anything, 2).Return(provider, nil).Once()
			},
			userID: 1,
			req: models.DummyAppointment{
				Date:       time.Now().Add(-24 * time.Hour).Format(time.RFC3339),
				ProviderID: 2,
			},
			wantErr: ErrPastDate,
		},
		{
			name: "slot already taken",
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("FindProvider", mock.Anything, 2).Return(provider, nil).Once()
				r.On("CreateAppointment", mock.Anything, 1, 2, futureHour).
					Return(nil, repository.ErrSlotTaken).Once()
			},
			userID:  1,
			req:     models.DummyAppointment{Date: future.Format(time.RFC3339), ProviderID: 2},
			wantErr: ErrSlotTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			publisher := new(PublisherMock)
			tt.setupMocks(repo, cache)

			svc := NewAppointmentService(repo, cache, publisher, newNoopLogger(), "http://localhost:8080")
			appointment, notification, err := svc.Create(context.Background(), tt.userID, tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, appointment)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 42, appointment.ID)
				assert.Equal(t, futureHour, appointment.Date)
				assert.NotNil(t, notification)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestAppointmentService_Create_truncatesToHourStart(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	publisher := new(PublisherMock)

	raw := time.Now().Add(72 * time.Hour).Truncate(time.Hour).Add(45 * time.Minute)
	hourStart := raw.Truncate(time.Hour)

	repo.On("FindProvider", mock.Anything, 2).
		Return(&models.User{ID: 2, Provider: true}, nil).Once()
	repo.On("CreateAppointment", mock.Anything, 1, 2, hourStart).
		Return(&models.Appointment{ID: 5, Date: hourStart}, nil).Once()
	repo.On("GetUser", mock.Anything, 1).
		Return(&models.User{ID: 1, Name: "Maria Silva"}, nil).Once()
	repo.On("CreateNotification", mock.Anything, 2, mock.Anything).
		Return(&models.Notification{ID: 1}, nil).Once()

	svc := NewAppointmentService(repo, cache, publisher, newNoopLogger(), "http://localhost:8080")
	appointment, _, err := svc.Create(context.Background(), 1,
		models.DummyAppointment{Date: raw.Format(time.RFC3339), ProviderID: 2})

	assert.NoError(t, err)
	assert.Equal(t, hourStart, appointment.Date)
	repo.AssertExpectations(t)
}

func TestAppointmentService_List(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	publisher := new(PublisherMock)

	entries := []*models.AppointmentView{
		{
			ID:   1,
			Date: time.Now().Add(24 * time.Hour),
			Provider: models.ProviderView{
				ID:     2,
				Name:   "Carlos Barber",
				Avatar: &models.AvatarView{ID: 3, Path: "avatar.png"},
			},
		},
		{ID: 4, Provider: models.ProviderView{ID: 5, Name: "Joana Nails"}},
	}
	repo.On("ListAppointments", mock.Anything, 1, 20, 20).Return(entries, nil).Once()

	svc := NewAppointmentService(repo, cache, publisher, newNoopLogger(), "http://localhost:8080")
	got, err := svc.List(context.Background(), 1, 2)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "http://localhost:8080/files/avatar.png", got[0].Provider.Avatar.URL)
	assert.Nil(t, got[1].Provider.Avatar)
	repo.AssertExpectations(t)
}

func TestAppointmentService_List_defaultsToFirstPage(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListAppointments", mock.Anything, 1, 20, 0).
		Return([]*models.AppointmentView{}, nil).Once()

	svc := NewAppointmentService(repo, new(CacheMock), new(PublisherMock), newNoopLogger(), "http://localhost:8080")
	got, err := svc.List(context.Background(), 1, 0)

	assert.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertExpectations(t)
}

func TestAppointmentService_Cancel(t *testing.T) {
	canceledAt := time.Now().Add(-time.Hour)

	makeDetail := func(userID int, date time.Time, canceled *time.Time) *models.AppointmentDetail {
		return &models.AppointmentDetail{
			Appointment: models.Appointment{
				ID:         10,
				UserID:     userID,
				ProviderID: 2,
				Date:       date,
				CanceledAt: canceled,
			},
			ProviderName:  "Carlos Barber",
			ProviderEmail: "carlos@example.com",
			ClientName:    "Maria Silva",
		}
	}

	tests := []struct {
		name        string
		setupMocks  func(r *RepoMock, c *CacheMock, p *PublisherMock)
		userID      int
		wantErr     error
		wantPublish bool
	}{
		{
			name: "success cancel",
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				c.On("Get", "appointment:10", mock.Anything).Return(false, nil).Once()
				r.On("GetAppointmentDetail", mock.Anything, 10).
					Return(makeDetail(1, time.Now().Add(5*time.Hour), nil), nil).Once()
				c.On("Set", "appointment:10", mock.Anything, time.Hour).Return(nil).Once()
				r.On("CancelAppointment", mock.Anything, 10, mock.Anything).Return(1, nil).Once()
				c.On("Invalidate", "appointment:10").Return(nil).Once()
				p.On("Publish", rabbitmq.ExchangeName, rabbitmq.CancellationKey,
					mock.MatchedBy(func(msg models.CancellationMessage) bool {
						return msg.AppointmentID == 10 &&
							msg.ProviderEmail == "carlos@example.com" &&
							msg.ClientName == "Maria Silva"
					})).Return(nil).Once()
			},
			userID:      1,
			wantErr:     nil,
			wantPublish: true,
		},
		{
			name: "appointment not found",
			setupMocks: func(r *RepoMock, c *CacheMock, _ *PublisherMock) {
				c.On("Get", "appointment:10", mock.Anything).Return(false, nil).Once()
				r.On("GetAppointmentDetail", mock.Anything, 10).
					Return(nil, repository.ErrAppointmentNotFound).Once()
			},
			userID:  1,
			wantErr: ErrNotFound,
		},
		{
			name: "belongs to another user",
			setupMocks: func(r *RepoMock, c *CacheMock, _ *PublisherMock) {
				c.On("Get", "appointment:10", mock.Anything).Return(false, nil).Once()
				r.On("GetAppointmentDetail", mock.Anything, 10).
					Return(makeDetail(77, time.Now().Add(5*time.Hour), nil), nil).Once()
				c.On("Set", "appointment:10", mock.Anything, time.Hour).Return(nil).Once()
			},
			userID:  1,
			wantErr: ErrNotOwner,
		},
		{
			name: "already canceled",
			setupMocks: func(r *RepoMock, c *CacheMock, _ *PublisherMock) {
				c.On("Get", "appointment:10", mock.Anything).Return(false, nil).Once()
				r.On("GetAppointmentDetail", mock.Anything, 10).
					Return(makeDetail(1, time.Now().Add(5*time.Hour), &canceledAt), nil).Once()
				c.On("Set", "appointment:10", mock.Anything, time.Hour).Return(nil).Once()
			},
			userID:  1,
			wantErr: ErrAlreadyCanceled,
		},
		{
			name: "less than two hours before start",
			setupMocks: func(r *RepoMock, c *CacheMock, _ *PublisherMock) {
				c.On("Get", "appointment:10", mock.Anything).Return(false, nil).Once()
				r.On("GetAppointmentDetail", mock.Anything, 10).
					Return(makeDetail(1, time.Now().Add(time.Hour), nil), nil).Once()
				c.On("Set", "appointment:10", mock.Anything, time.Hour).Return(nil).Once()
			},
			userID:  1,
			wantErr: ErrTooLate,
		},
		{
			name: "concurrent cancel lost the race",
			setupMocks: func(r *RepoMock, c *CacheMock, _ *PublisherMock) {
				c.On("Get", "appointment:10", mock.Anything).Return(false, nil).Once()
				r.On("GetAppointmentDetail", mock.Anything, 10).
					Return(makeDetail(1, time.Now().Add(5*time.Hour), nil), nil).Once()
				c.On("Set", "appointment:10", mock.Anything, time.Hour).Return(nil).Once()
				r.On("CancelAppointment", mock.Anything, 10, mock.Anything).Return(0, nil).Once()
			},
			userID:  1,
			wantErr: ErrAlreadyCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			publisher := new(PublisherMock)
			tt.setupMocks(repo, cache, publisher)

			svc := NewAppointmentService(repo, cache, publisher, newNoopLogger(), "http://localhost:8080")
			detail, err := svc.Cancel(context.Background(), 10, tt.userID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, detail)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, detail.CanceledAt)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
			publisher.AssertExpectations(t)
			if !tt.wantPublish {
				publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAppointmentService_Cancel_cacheHitSkipsStorageRead(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	publisher := new(PublisherMock)

	cached := models.AppointmentDetail{
		Appointment:   models.Appointment{ID: 10, UserID: 1, ProviderID: 2, Date: time.Now().Add(5 * time.Hour)},
		ProviderName:  "Carlos Barber",
		ProviderEmail: "carlos@example.com",
		ClientName:    "Maria Silva",
	}
	cache.On("Get", "appointment:10", mock.Anything).
		Run(func(args mock.Arguments) {
			*(args.Get(1).(*models.AppointmentDetail)) = cached
		}).Return(true, nil).Once()
	repo.On("CancelAppointment", mock.Anything, 10, mock.Anything).Return(1, nil).Once()
	cache.On("Invalidate", "appointment:10").Return(nil).Once()
	publisher.On("Publish", rabbitmq.ExchangeName, rabbitmq.CancellationKey,
		mock.MatchedBy(func(msg models.CancellationMessage) bool {
			return msg.ProviderEmail == "carlos@example.com"
		})).Return(nil).Once()

	svc := NewAppointmentService(repo, cache, publisher, newNoopLogger(), "http://localhost:8080")
	detail, err := svc.Cancel(context.Background(), 10, 1)

	assert.NoError(t, err)
	assert.NotNil(t, detail.CanceledAt)
	repo.AssertNotCalled(t, "GetAppointmentDetail", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAppointmentService_Cancel_staleCacheStillRejectsDoubleCancel(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	publisher := new(PublisherMock)

	// В кеше запись ещё без canceled_at, в базе она уже отменена.
	stale := models.AppointmentDetail{
		Appointment: models.Appointment{ID: 10, UserID: 1, Date: time.Now().Add(5 * time.Hour)},
	}
	cache.On("Get", "appointment:10", mock.Anything).
		Run(func(args mock.Arguments) {
			*(args.Get(1).(*models.AppointmentDetail)) = stale
		}).Return(true, nil).Once()
	repo.On("CancelAppointment", mock.Anything, 10, mock.Anything).Return(0, nil).Once()

	svc := NewAppointmentService(repo, cache, publisher, newNoopLogger(), "http://localhost:8080")
	detail, err := svc.Cancel(context.Background(), 10, 1)

	assert.ErrorIs(t, err, ErrAlreadyCanceled)
	assert.Nil(t, detail)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestAppointmentService_Cancel_publishFailureDoesNotUndoCancel(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	publisher := new(PublisherMock)

	cache.On("Get", "appointment:10", mock.Anything).Return(false, nil).Once()
	repo.On("GetAppointmentDetail", mock.Anything, 10).Return(&models.AppointmentDetail{
		Appointment: models.Appointment{ID: 10, UserID: 1, Date: time.Now().Add(5 * time.Hour)},
	}, nil).Once()
	cache.On("Set", "appointment:10", mock.Anything, time.Hour).Return(nil).Once()
	repo.On("CancelAppointment", mock.Anything, 10, mock.Anything).Return(1, nil).Once()
	cache.On("Invalidate", "appointment:10").Return(nil).Once()
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker is down")).Once()

	svc := NewAppointmentService(repo, cache, publisher, newNoopLogger(), "http://localhost:8080")
	detail, err := svc.Cancel(context.Background(), 10, 1)

	assert.NoError(t, err)
	assert.NotNil(t, detail.CanceledAt)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAppointmentService_Schedule(t *testing.T) {
	day := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantErr    error
		wantLen    int
	}{
		{
			name: "success schedule",
			setupMocks: func(r *RepoMock) {
				r.On("GetUser", mock.Anything, 2).
					Return(&models.User{ID: 2, Provider: true}, nil).Once()
				r.On("ListSchedule", mock.Anything, 2, day).Return([]*models.ScheduleItem{
					{ID: 1, Date: day.Add(9 * time.Hour), ClientName: "Maria Silva"},
					{ID: 2, Date: day.Add(11 * time.Hour), ClientName: "Pedro Santos"},
				}, nil).Once()
			},
			wantLen: 2,
		},
		{
			name: "user is not a provider",
			setupMocks: func(r *RepoMock) {
				r.On("GetUser", mock.Anything, 2).
					Return(&models.User{ID: 2, Provider: false}, nil).Once()
			},
			wantErr: ErrNotProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			svc := NewAppointmentService(repo, new(CacheMock), new(PublisherMock), newNoopLogger(), "http://localhost:8080")
			items, err := svc.Schedule(context.Background(), 2, day)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Len(t, items, tt.wantLen)
			}
			repo.AssertExpectations(t)
		})
	}
}
