package di

import (
	"go.uber.org/fx"

	"github.com/tilvo/tasko/internal/adapter/mail"
	"github.com/tilvo/tasko/internal/adapter/payments"
	"github.com/tilvo/tasko/internal/app"
	"github.com/tilvo/tasko/internal/config"
	"github.com/tilvo/tasko/internal/logger"
	"github.com/tilvo/tasko/internal/server/http/router"
	"github.com/tilvo/tasko/internal/storage/postgres"
	"github.com/tilvo/tasko/internal/usecase"
)

// Module assembles the whole service graph; opts are appended last so tests can replace providers.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		postgres.Module,
		payments.Module,
		mail.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
