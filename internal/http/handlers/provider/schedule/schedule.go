// Package schedule реализует HTTP-обработчик дневного расписания мастера.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/appointment-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/response"
	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
	appointmentservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/appointment"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики расписания мастера.
type Service interface {
	Schedule(ctx context.Context, providerID int, day time.Time) ([]*models.ScheduleItem, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Расписание мастера на день
// @Description Возвращает неотменённые записи текущего мастера за выбранный день.
// @Tags Providers
// @Produce  json
// @Param date query string true "День в формате 2006-01-02"
// @Success 200 {object} map[string]any "Записи за день"
// @Failure 400 {object} response.ErrorResponse "Некорректная дата"
// @Failure 401 {object} response.ErrorResponse "Пользователь не является мастером"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /schedule [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.provider.schedule"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		log.Error("invalid date format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid date, expected format 2006-01-02"))
		return
	}

	userID, ok := r.Context().Value(middlewarectx.UserID).(int)
	if !ok || userID == 0 {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.Schedule(r.Context(), userID, day)
	if err != nil {
		if errors.Is(err, appointmentservice.ErrNotProvider) {
			log.Error("user is not a provider", sl.Err(err))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("only providers can load schedule"))
			return
		}
		log.Error("failed to load schedule", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to load schedule"))
		return
	}

	log.Info("schedule loaded", slog.Int("count", len(res)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"schedule": res,
	}))
}
