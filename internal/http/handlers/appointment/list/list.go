// Package list реализует HTTP-обработчик списка записей клиента.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/appointment-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/response"
	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выдачи списка записей.
type Service interface {
	List(ctx context.Context, userID, page int) ([]*models.AppointmentView, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список записей клиента
// @Description Возвращает неотменённые записи текущего клиента по дате, страницами по 20.
// @Tags Appointments
// @Produce  json
// @Param page query int false "Номер страницы (по умолчанию 1)"
// @Success 200 {object} map[string]any "Список записей"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /appointments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.appointment.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	userID, ok := r.Context().Value(middlewarectx.UserID).(int)
	if !ok || userID == 0 {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.List(r.Context(), userID, page)
	if err != nil {
		log.Error("failed to list appointments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list appointments"))
		return
	}

	log.Info("list appointments", slog.Int("count", len(res)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"page":         page,
		"appointments": res,
	}))
}
