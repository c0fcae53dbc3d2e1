package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/charity-reminder/internal/approval"
	"github.com/frahmantamala/charity-reminder/internal/auth"
	"github.com/frahmantamala/charity-reminder/internal/inbound"
	"github.com/frahmantamala/charity-reminder/internal/payment"
	"github.com/frahmantamala/charity-reminder/internal/report"
	"github.com/frahmantamala/charity-reminder/internal/scheduler"
	"github.com/frahmantamala/charity-reminder/internal/transport/middleware"
	"github.com/frahmantamala/charity-reminder/internal/transport/swagger"
)

// Handlers groups the HTTP handlers mounted under /api/v1. A nil handler
// leaves its routes out.
type Handlers struct {
	Auth      *auth.Handler
	Approval  *approval.Handler
	Payment   *payment.Handler
	Report    *report.Handler
	Scheduler *scheduler.Handler
	Inbound   *inbound.Handler
	Calendar  *CalendarHandler
	Metrics   http.Handler
	OpenAPI   []byte
}

func RegisterAllRoutes(router chi.Router, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	if h.OpenAPI != nil {
		router.Get(swagger.DocumentPath, swagger.DocumentHandler(h.OpenAPI).ServeHTTP)
		router.Handle("/swagger/*", swagger.Handler())
	}
	if h.Metrics != nil {
		router.Handle("/metrics", h.Metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Calendar != nil {
			r.Get("/calendar/today", h.Calendar.Today)
			r.Get("/calendar/convert", h.Calendar.Convert)
		}

		if h.Auth == nil {
			return
		}
		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.Approval != nil {
				pr.Get("/approvals", h.Approval.ListOpen)
				pr.Get("/approvals/{id}", h.Approval.Get)
			}

			if h.Payment != nil {
				pr.Get("/donors/{id}/payments", h.Payment.History)
				pr.Get("/donors/{id}/payments/{year}/{month}", h.Payment.Status)
				pr.Get("/payments/{id}/transitions", h.Payment.Transitions)
			}

			if h.Report != nil {
				pr.Get("/reports/{year}/{month}", h.Report.Get)
			}

			if h.Scheduler != nil {
				pr.Get("/triggers", h.Scheduler.List)
				pr.Post("/triggers/{kind}", h.Scheduler.Run)
			}

			if h.Inbound != nil {
				pr.Route("/inbound", func(ir chi.Router) {
					ir.Post("/pin", h.Inbound.EnterPIN)
					ir.Post("/receipt", h.Inbound.SubmitReceipt)
					ir.Post("/decision", h.Inbound.Decide)
					ir.Post("/command", h.Inbound.Command)
				})
			}
		})
	})
}
