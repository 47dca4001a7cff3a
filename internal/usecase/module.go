package usecase

import (
	"go.uber.org/fx"

	"github.com/tilvo/tasko/internal/config"
)

// Module provides payment event use cases to the fx container.
var Module = fx.Options(
	fx.Provide(
		newConversionSettings,
		NewConversionUseCase,
		NewPaymentMethodUseCase,
		NewAccountStatusUseCase,
		newNotificationUseCase,
	),
)

func newConversionSettings(cfg *config.Config) ConversionSettings {
	return ConversionSettings{ClearingPeriod: cfg.ClearingPeriod}
}
