package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
)

// CreateAppointment вставляет новую запись в транзакции: сначала проверяет,
// что слот (provider_id, date) свободен, затем вставляет строку. Частичный
// уникальный индекс страхует от конкурентной вставки между проверкой
// и записью — его срабатывание тоже отображается в ErrSlotTaken.
func (s *Storage) CreateAppointment(ctx context.Context, userID, providerID int, date time.Time) (*models.Appointment, error) {
	const op = "storage.CreateAppointment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var taken bool
	checkQuery := `SELECT EXISTS (
			  SELECT 1 FROM appointments
			  WHERE provider_id = $1 AND date = $2 AND canceled_at IS NULL
		  )`
	if err := tx.QueryRowContext(ctx, checkQuery, providerID, date).Scan(&taken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return nil, fmt.Errorf("%s: %w", op, ErrSlotTaken)
	}

	query := `INSERT INTO appointments (user_id, provider_id, date)
			  VALUES ($1, $2, $3)
			  RETURNING id, user_id, provider_id, date, canceled_at, created_at, updated_at`
	appointment, err := scanAppointment(tx.QueryRowContext(ctx, query, userID, providerID, date))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, ErrSlotTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return appointment, nil
}

// ListAppointments возвращает неотменённые записи клиента с пагинацией,
// отсортированные по дате, вместе с данными мастера и его аватаром.
func (s *Storage) ListAppointments(ctx context.Context, userID, limit, offset int) ([]*models.AppointmentView, error) {
	const op = "storage.ListAppointments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT a.id, a.date, p.id, p.name, f.id, f.path
			  FROM appointments a
			  JOIN users p ON p.id = a.provider_id
			  LEFT JOIN files f ON f.id = p.avatar_id
			  WHERE a.user_id = $1 AND a.canceled_at IS NULL
			  ORDER BY a.date
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.AppointmentView
	for rows.Next() {
		var item models.AppointmentView
		var avatarID sql.NullInt64
		var avatarPath sql.NullString
		if err := rows.Scan(&item.ID, &item.Date, &item.Provider.ID, &item.Provider.Name,
			&avatarID, &avatarPath); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if avatarID.Valid {
			item.Provider.Avatar = &models.AvatarView{
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

// GetAppointmentDetail возвращает запись по ID вместе с именем и почтой
// мастера и именем клиента.
func (s *Storage) GetAppointmentDetail(ctx context.Context, id int) (*models.AppointmentDetail, error) {
	const op = "storage.GetAppointmentDetail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT a.id, a.user_id, a.provider_id, a.date, a.canceled_at,
			      a.created_at, a.updated_at, p.name, p.email, c.name
			  FROM appointments a
			  JOIN users p ON p.id = a.provider_id
			  JOIN users c ON c.id = a.user_id
			  WHERE a.id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var detail models.AppointmentDetail
	var canceledAt sql.NullTime
	if err := row.Scan(&detail.ID, &detail.UserID, &detail.ProviderID, &detail.Date,
		&canceledAt, &detail.CreatedAt, &detail.UpdatedAt,
		&detail.ProviderName, &detail.ProviderEmail, &detail.ClientName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrAppointmentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if canceledAt.Valid {
		detail.CanceledAt = &canceledAt.Time
	}
	return &detail, nil
}

// CancelAppointment проставляет canceled_at у ещё не отменённой записи.
// Возвращает количество изменённых строк: ноль означает, что запись
// отсутствует либо уже была отменена.
func (s *Storage) CancelAppointment(ctx context.Context, id int, at time.Time) (int, error) {
	const op = "storage.CancelAppointment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE appointments
			  SET canceled_at = $1, updated_at = $1
			  WHERE id = $2 AND canceled_at IS NULL`
	result, err := s.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListSchedule возвращает неотменённые записи мастера за календарный день
// вместе с именами клиентов.
func (s *Storage) ListSchedule(ctx context.Context, providerID int, day time.Time) ([]*models.ScheduleItem, error) {
	const op = "storage.ListSchedule"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `SELECT a.id, a.date, c.name
			  FROM appointments a
			  JOIN users c ON c.id = a.user_id
			  WHERE a.provider_id = $1
			    AND a.canceled_at IS NULL
			    AND a.date >= $2 AND a.date < $3
			  ORDER BY a.date`
	rows, err := s.DB.QueryContext(ctx, query, providerID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ScheduleItem
	for rows.Next() {
		var item models.ScheduleItem
		if err := rows.Scan(&item.ID, &item.Date, &item.ClientName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanAppointment(row *sql.Row) (*models.Appointment, error) {
	var a models.Appointment
	var canceledAt sql.NullTime
	if err := row.Scan(&a.ID, &a.UserID, &a.ProviderID, &a.Date,
		&canceledAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if canceledAt.Valid {
		a.CanceledAt = &canceledAt.Time
	}
	return &a, nil
}
