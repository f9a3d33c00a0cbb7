// Package services содержит бизнес-логику регистрации и входа пользователей.
package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/password"
	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
	providerservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/provider"
	"github.com/magabrotheeeer/appointment-scheduler/internal/storage/repository"
)

// Ошибки аутентификации.
var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserRepository определяет методы хранилища для учётных записей.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (int, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenMaker описывает выпуск JWT токенов.
type TokenMaker interface {
	GenerateToken(userID int, name string, provider bool) (string, error)
}

// Cache описывает инвалидирование кешированных данных.
type Cache interface {
	Invalidate(key string) error
}

// AuthService реализует регистрацию и вход с выпуском JWT.
type AuthService struct {
	repo  UserRepository
	maker TokenMaker
	cache Cache
	log   *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(repo UserRepository, maker TokenMaker, cache Cache, log *slog.Logger) *AuthService {
	return &AuthService{
		repo:  repo,
		maker: maker,
		cache: cache,
		log:   log,
	}
}

// Register создаёт нового пользователя и возвращает его ID.
// Регистрация мастера инвалидирует кеш справочника мастеров.
func (s *AuthService) Register(ctx context.Context, req models.DummyRegister) (int, error) {
	hash, err := password.GetHash(req.Password)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateUser(ctx, models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Provider:     req.Provider,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	s.log.Info("registered new user", slog.Int("id", id), slog.Bool("provider", req.Provider))

	if req.Provider {
		if err := s.cache.Invalidate(providerservice.CacheKey); err != nil {
			s.log.Warn("failed to invalidate providers cache", sl.Err(err))
		}
	}
	return id, nil
}

// Login проверяет учётные данные и возвращает JWT вместе с пользователем.
func (s *AuthService) Login(ctx context.Context, req models.DummyLogin) (string, *models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.maker.GenerateToken(user.ID, user.Name, user.Provider)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
