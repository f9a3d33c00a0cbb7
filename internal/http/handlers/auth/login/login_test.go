package login

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
	authservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/auth"
)

// MockService реализует интерфейс login.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, req models.DummyLogin) (string, *models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	logger := newNoopLogger()
	user := &models.User{ID: 1, Name: "Maria Silva", Email: "maria@example.com"}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		wantStatusCode int
		wantBody       string
	}{
		{
			name: "valid login",
			body: `{"email":"maria@example.com","password":"secret123"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, models.DummyLogin{
					Email:    "maria@example.com",
					Password: "secret123",
				}).Return("signed-token", user, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantBody:       `"token":"signed-token"`,
		},
		{
			name:           "invalid json body",
			body:           `not a json`,
			setupMock:      func(_ *MockService) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `invalid request body`,
		},
		{
			name:           "validation error - missing password",
			body:           `{"email":"maria@example.com"}`,
			setupMock:      func(_ *MockService) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `field Password is a required field`,
		},
		{
			name: "invalid credentials",
			body: `{"email":"maria@example.com","password":"wrong"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, mock.Anything).
					Return("", nil, authservice.ErrInvalidCredentials).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `invalid email or password`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.wantBody),
				"response body should contain %s, got %s", tt.wantBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
