package payments

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/tilvo/tasko/internal/config"
	"github.com/tilvo/tasko/internal/usecase"
)

// Module exposes the payment processor client to the fx graph.
var Module = fx.Options(
	fx.Provide(newClient),
	fx.Provide(func(c *Client) usecase.PaymentProcessor { return c }),
)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) *Client {
	return New(p.Config.StripeSecretKey, p.Config.WebhookSecret(), nil, p.Logger)
}
