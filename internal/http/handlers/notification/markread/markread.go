// Package markread реализует HTTP-обработчик прочтения уведомления мастером.
package markread

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
	"github.com/magabrotheeeer/appointment-scheduler/internal/storage/repository"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики прочтения уведомления.
type Service interface {
	MarkRead(ctx context.Context, id, userID int) (*models.Notification, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Пометить уведомление прочитанным
// @Description Помечает уведомление текущего мастера прочитанным.
// @Tags Notifications
// @Produce  json
// @Param id path int true "Идентификатор уведомления"
// @Success 200 {object} map[string]any "Обновлённое уведомление"
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 404 {object} response.ErrorResponse "Уведомление не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /notifications/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.markread"

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

	res, err := h.service.MarkRead(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			log.Error("notification not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("notification not found"))
			return
		}
		log.Error("failed to mark notification read", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to mark notification read"))
		return
	}

	log.Info("notification marked read", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"notification": res,
	}))
}
