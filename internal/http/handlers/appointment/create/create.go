// Package create реализует HTTP-обработчик для бронирования записи к мастеру.
//
// Handler принимает JSON-запрос с датой и идентификатором мастера, валидирует его,
// извлекает идентификатор клиента из контекста и проводит запрос через цепочку
// бизнес-проверок сервиса. Каждая проверка цепочки даёт свой статус и текст ошибки.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/appointment-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/response"
	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
	appointmentservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/appointment"
)

// Handler управляет HTTP-запросами на бронирование записей.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики бронирования.
type Service interface {
	Create(ctx context.Context, userID int, req models.DummyAppointment) (*models.Appointment, *models.Notification, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Забронировать запись к мастеру
// @Description Создает запись текущего клиента к мастеру на часовой слот. Возвращает запись и уведомление мастера.
// @Tags Appointments
// @Accept  json
// @Produce  json
// @Param request body models.DummyAppointment true "Дата (RFC3339) и идентификатор мастера"
// @Success 200 {object} map[string]any "Созданная запись и уведомление"
// @Failure 400 {object} response.ErrorResponse "Некорректные данные, прошедшая дата или занятый слот"
// @Failure 401 {object} response.ErrorResponse "Не мастер, самозапись или нет авторизации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании записи"
// @Router /appointments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.appointment.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAppointment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
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

	appointment, notification, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		h.writeServiceError(w, r, log, err)
		return
	}

	log.Info("appointment created", slog.Int("id", appointment.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"appointment":  appointment,
		"notification": notification,
	}))
}

// writeServiceError переводит ошибку бизнес-проверки в статус и текст ответа.
// Тексты повторяют сообщения, которые видят клиенты мобильного приложения.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, appointmentservice.ErrInvalidDate):
		log.Error("invalid date in request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Validation fails"))
	case errors.Is(err, appointmentservice.ErrNotProvider):
		log.Error("target user is not a provider", sl.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("You can only create appointments with providers"))
	case errors.Is(err, appointmentservice.ErrSelfBooking):
		log.Error("provider tried to book himself", sl.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("Providers cannot create appointments to themselves"))
	case errors.Is(err, appointmentservice.ErrPastDate):
		log.Error("past date in request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Past dates are not permitted"))
	case errors.Is(err, appointmentservice.ErrSlotTaken):
		log.Error("slot already taken", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Appointment date is not available"))
	default:
		log.Error("failed to create appointment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create appointment"))
	}
}
