package logger

import (
	"context"

	"github.com/himakhaitan/redislens/pkg/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module(service string) fx.Option {
	return fx.Options(
		fx.Provide(
			func(cfg *config.Config) (*zap.Logger, error) {
				return New(service, cfg.LogLevel)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					_ = logger.Sync()
					return nil
				},
			})
		}),
	)
}
