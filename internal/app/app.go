package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/tilvo/tasko/internal/adapter/payments"
	"github.com/tilvo/tasko/internal/config"
	"github.com/tilvo/tasko/internal/server/http/handlers"
	"github.com/tilvo/tasko/internal/storage/postgres"
	"github.com/tilvo/tasko/internal/usecase"
	"github.com/tilvo/tasko/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newPaymentsFacade,
		func(f *PaymentsFacade) handlers.PaymentsFacade { return f },
		newHTTPServer,
		newNotificationDispatcher,
	),
	fx.Invoke(registerLifecycle),
)

type facadeParams struct {
	fx.In

	Parser         *payments.Client
	Storage        *postgres.Storage
	Conversion     *usecase.ConversionUseCase
	PaymentMethods *usecase.PaymentMethodUseCase
	Accounts       *usecase.AccountStatusUseCase
	Notifications  *usecase.NotificationUseCase
	Logger         *slog.Logger
}

func newPaymentsFacade(p facadeParams) *PaymentsFacade {
	return NewPaymentsFacade(p.Parser, p.Storage, p.Conversion, p.PaymentMethods, p.Accounts, p.Notifications, p.Logger)
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:              p.Config.RunAddress,
		Handler:           p.Router,
		ReadHeaderTimeout: p.Config.ShutdownTimeout,
	}
}

type workerParams struct {
	fx.In

	Facade *PaymentsFacade
	Config *config.Config
	Logger *slog.Logger
}

func newNotificationDispatcher(p workerParams) *worker.NotificationDispatcher {
	return worker.NewNotificationDispatcher(
		p.Facade,
		p.Config.OutboxPollInterval,
		p.Config.OutboxBatchSize,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.NotificationDispatcher
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	mailEnabled := p.Config.MailEnabled()

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting tasko webhooks",
				slog.String("addr", p.Server.Addr),
				slog.Bool("emulated", p.Config.Emulated),
				slog.Bool("mail_enabled", mailEnabled),
			)
			if mailEnabled {
				p.Worker.Start(ctx)
			}
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if mailEnabled {
				p.Worker.Stop()
			}

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("tasko webhooks stopped")
			return nil
		},
	})
}
