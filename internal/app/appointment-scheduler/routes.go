package appointmentscheduler

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/appointment-scheduler/internal/http/handlers/appointment/cancel"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/handlers/appointment/create"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/handlers/appointment/list"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/handlers/health"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/handlers/notification/markread"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/handlers/notification/notificationlist"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/handlers/provider/providerlist"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/handlers/provider/schedule"
	"github.com/magabrotheeeer/appointment-scheduler/internal/http/middlewarectx"
	appointmentservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/appointment"
	authservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/auth"
	notificationservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/notification"
	providerservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/provider"
)

// RegisterRoutes настраивает middleware и маршруты HTTP API.
func RegisterRoutes(router *chi.Mux, log *slog.Logger, maker middlewarectx.TokenParser,
	authSvc *authservice.AuthService,
	appointmentSvc *appointmentservice.AppointmentService,
	providerSvc *providerservice.ProviderService,
	notificationSvc *notificationservice.NotificationService,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Route("/api/v1", func(r chi.Router) {
		r.Method("POST", "/register", register.New(log, authSvc))
		r.Method("POST", "/login", login.New(log, authSvc))

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, log))
			r.Use(middlewarectx.RateLimitMiddleware(log))

			r.Method("POST", "/appointments", create.New(log, appointmentSvc))
			r.Method("GET", "/appointments", list.New(log, appointmentSvc))
			r.Method("DELETE", "/appointments/{id}", cancel.New(log, appointmentSvc))
			r.Method("GET", "/providers", providerlist.New(log, providerSvc))
			r.Method("GET", "/schedule", schedule.New(log, appointmentSvc))
			r.Method("GET", "/notifications", notificationlist.New(log, notificationSvc))
			r.Method("PUT", "/notifications/{id}", markread.New(log, notificationSvc))
		})
	})

	router.Method("GET", "/health", health.New(log))
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/docs/*", httpSwagger.WrapHandler)
}
