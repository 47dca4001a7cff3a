package mail

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/tilvo/tasko/internal/config"
)

// Module exposes the mail sender to the fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Sender, error) {
	return NewHTTPClient(p.Config.MailAPIURL, p.Config.MailAPIKey, p.Config.MailFrom, p.Logger)
}
