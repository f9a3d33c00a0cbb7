package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
)

// uniqueViolation — код ошибки PostgreSQL для нарушения уникального ограничения.
const uniqueViolation = "23505"

// CreateUser сохраняет нового пользователя в базу данных и возвращает его ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO users (name, email, password_hash, provider)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Provider).Scan(&newID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByEmail возвращает пользователя по его email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email, password_hash, provider, avatar_id, created_at, updated_at
			  FROM users
			  WHERE email = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

// GetUser возвращает пользователя по его ID.
func (s *Storage) GetUser(ctx context.Context, id int) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email, password_hash, provider, avatar_id, created_at, updated_at
			  FROM users
			  WHERE id = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, id), op)
}

// FindProvider возвращает пользователя-мастера по его ID.
// Обычный клиент с таким ID считается отсутствием мастера.
func (s *Storage) FindProvider(ctx context.Context, id int) (*models.User, error) {
	const op = "storage.FindProvider"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email, password_hash, provider, avatar_id, created_at, updated_at
			  FROM users
			  WHERE id = $1 AND provider = true`
	u, err := s.scanUser(s.DB.QueryRowContext(ctx, query, id), op)
	if errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrProviderNotFound)
	}
	return u, err
}

// ListProviders возвращает всех мастеров вместе с их аватарами.
func (s *Storage) ListProviders(ctx context.Context) ([]*models.ProviderView, error) {
	const op = "storage.ListProviders"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.id, u.name, f.id, f.path
			  FROM users u
			  LEFT JOIN files f ON f.id = u.avatar_id
			  WHERE u.provider = true
			  ORDER BY u.name`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ProviderView
	for rows.Next() {
		var item models.ProviderView
		var avatarID sql.NullInt64
		var avatarPath sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &avatarID, &avatarPath); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if avatarID.Valid {
			item.Avatar = &models.AvatarView{
				ID:   int(avatarID.Int64),
				Path: avatarPath.String,
			}
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var avatarID sql.NullInt64
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Provider, &avatarID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if avatarID.Valid {
		id := int(avatarID.Int64)
		u.AvatarID = &id
	}
	return u, nil
}
