// Package cancel реализует HTTP-обработчик отмены записи клиентом.
//
// Неизвестная запись, чужая запись, повторная отмена и нарушение двухчасового
// окна — независимые отказы со своими статусами; внутренняя ошибка всегда
// возвращает 500 с JSON-телом.
package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
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

// Service описывает интерфейс бизнес-логики отмены записи.
type Service interface {
	Cancel(ctx context.Context, id, userID int) (*models.AppointmentDetail, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить запись
// @Description Отменяет запись текущего клиента не позднее чем за два часа до начала приёма.
// @Tags Appointments
// @Produce  json
// @Param id path int true "Идентификатор записи"
// @Success 200 {object} map[string]any "Отменённая запись"
// @Failure 400 {object} response.ErrorResponse "Некорректный id или запись уже отменена"
// @Failure 401 {object} response.ErrorResponse "Чужая запись или окно отмены прошло"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при отмене записи"
// @Router /appointments/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.appointment.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Error("invalid id format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	userID, ok := r.Context().Value(middlewarectx.UserID).(int)
	if !ok || userID == 0 {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	if userName, ok := r.Context().Value(middlewarectx.UserName).(string); ok {
		log = log.With(slog.String("user_name", userName))
	}

	res, err := h.service.Cancel(r.Context(), id, userID)
	if err != nil {
		h.writeServiceError(w, r, log, err)
		return
	}

	log.Info("appointment canceled", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"appointment": res,
	}))
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, appointmentservice.ErrNotFound):
		log.Error("appointment not found", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("appointment not found"))
	case errors.Is(err, appointmentservice.ErrNotOwner):
		log.Error("appointment belongs to another user", sl.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("You don't have permission to cancel this appointment."))
	case errors.Is(err, appointmentservice.ErrAlreadyCanceled):
		log.Error("appointment already canceled", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Appointment is already canceled"))
	case errors.Is(err, appointmentservice.ErrTooLate):
		log.Error("cancellation window passed", sl.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("You can only cancel appointments two hours in advance."))
	default:
		log.Error("failed to cancel appointment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not cancel appointment"))
	}
}
