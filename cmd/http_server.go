package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/charity-reminder/internal/approval"
	"github.com/frahmantamala/charity-reminder/internal/auth"
	"github.com/frahmantamala/charity-reminder/internal/inbound"
	"github.com/frahmantamala/charity-reminder/internal/payment"
	"github.com/frahmantamala/charity-reminder/internal/report"
	"github.com/frahmantamala/charity-reminder/internal/scheduler"
	"github.com/frahmantamala/charity-reminder/internal/transport/rest"
	"github.com/frahmantamala/charity-reminder/internal/transport/swagger"
)

var openAPIPath string

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the admin HTTP API together with the scheduler loop and the Telegram poller.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(true)
	},
}

func init() {
	httpServerCmd.Flags().StringVar(&openAPIPath, "openapi", "api/openapi.yml", "OpenAPI document served at /openapi.yml")
}

func runServer(withHTTP bool) error {
	cfg, lg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)

	if withHTTP {
		server, err := a.httpServer(gctx)
		if err != nil {
			return err
		}
		g.Go(func() error {
			lg.Info("starting HTTP server", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if cfg.Scheduler.Enabled {
		g.Go(func() error { return a.scheduler.Run(gctx) })
	} else {
		lg.Warn("scheduler disabled")
	}

	if p := a.poller(); p != nil {
		g.Go(func() error { return p.Run(gctx) })
	}

	if !withHTTP {
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	}

	err = g.Wait()
	lg.Info("shutting down", "error", err)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *app) httpServer(ctx context.Context) (*http.Server, error) {
	var openAPI []byte
	if openAPIPath != "" {
		if _, err := swagger.Load(ctx, openAPIPath); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(openAPIPath)
		if err != nil {
			return nil, err
		}
		openAPI = raw
	}

	tokens := auth.NewJWTTokenGenerator(a.cfg.Security.JWTSecret, a.cfg.Security.AccessTokenDuration)
	authService := auth.NewService(auth.Credentials{
		Username:     a.cfg.Security.AdminUsername,
		PasswordHash: a.cfg.Security.AdminPasswordHash,
	}, tokens, a.logger)

	handlers := rest.Handlers{
		Auth:      auth.NewHandler(authService),
		Approval:  approval.NewHandler(a.approvals),
		Payment:   payment.NewHandler(a.payments),
		Report:    report.NewHandler(a.reports),
		Scheduler: scheduler.NewHandler(a.scheduler),
		Inbound:   inbound.NewHandler(a.inbound),
		Calendar:  rest.NewCalendarHandler(a.source),
		OpenAPI:   openAPI,
	}
	if a.cfg.Observability.Metrics.Enabled {
		handlers.Metrics = a.metrics.Handler()
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, a.db.SQLX.DB, handlers, a.logger)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       a.cfg.Server.IdleTimeout,
	}, nil
}
