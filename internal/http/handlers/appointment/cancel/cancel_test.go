package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/appointment-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
	appointmentservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/appointment"
)

// MockService реализует интерфейс cancel.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Cancel(ctx context.Context, id, userID int) (*models.AppointmentDetail, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppointmentDetail), args.Error(1)
}

func TestCancelHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	now := time.Now()

	canceled := &models.AppointmentDetail{
		Appointment: models.Appointment{
			ID: 10, UserID: 1, ProviderID: 2,
			Date:       now.Add(5 * time.Hour),
			CanceledAt: &now,
		},
		ProviderName: "Carlos Barber",
		ClientName:   "Maria Silva",
	}

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная отмена",
			id:   "10",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, 10, 1).Return(canceled, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"canceled_at"`,
		},
		{
			name:           "некорректный id",
			id:             "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid id`,
		},
		{
			name: "запись не найдена",
			id:   "10",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, 10, 1).
					Return(nil, appointmentservice.ErrNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `appointment not found`,
		},
		{
			name: "чужая запись",
			id:   "10",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, 10, 1).
					Return(nil, appointmentservice.ErrNotOwner).Once()
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `You don't have permission to cancel this appointment.`,
		},
		{
			name: "повторная отмена",
			id:   "10",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, 10, 1).
					Return(nil, appointmentservice.ErrAlreadyCanceled).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `Appointment is already canceled`,
		},
		{
			name: "окно отмены прошло",
			id:   "10",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, 10, 1).
					Return(nil, appointmentservice.ErrTooLate).Once()
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `You can only cancel appointments two hours in advance.`,
		},
		{
			name: "внутренняя ошибка",
			id:   "10",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, 10, 1).
					Return(nil, errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not cancel appointment`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodDelete, "/appointments/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserID, 1)
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
