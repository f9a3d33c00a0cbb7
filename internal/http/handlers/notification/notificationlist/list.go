// Package notificationlist реализует HTTP-обработчик списка уведомлений мастера.
package notificationlist

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/appointment-scheduler/internal/http/middlewarectx"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/response"
	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
	notificationservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/notification"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики уведомлений.
type Service interface {
	List(ctx context.Context, userID, page int) ([]*models.Notification, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Уведомления мастера
// @Description Возвращает уведомления текущего мастера, новые первыми.
// @Tags Notifications
// @Produce  json
// @Param page query int false "Номер страницы (по умолчанию 1)"
// @Success 200 {object} map[string]any "Список уведомлений"
// @Failure 401 {object} response.ErrorResponse "Пользователь не является мастером"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /notifications [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.list"

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
		if errors.Is(err, notificationservice.ErrNotProvider) {
			log.Error("user is not a provider", sl.Err(err))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("only providers can load notifications"))
			return
		}
		log.Error("failed to list notifications", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list notifications"))
		return
	}

	log.Info("list notifications", slog.Int("count", len(res)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"notifications": res,
	}))
}
