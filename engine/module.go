package engine

import (
	"context"

	"github.com/himakhaitan/redislens/pkg/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// OptionsFromConfig maps the browser section of cfg onto session options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.Browser.PageSize > 0 {
		opts.PageSize = cfg.Browser.PageSize
	}
	if cfg.Browser.SearchDebounce > 0 {
		opts.SearchDebounce = cfg.Browser.SearchDebounce
	}
	if cfg.Browser.HistoryLimit > 0 {
		opts.HistoryLimit = cfg.Browser.HistoryLimit
	}
	return opts
}

// Module provides a *Session over whatever gateway.Gateway the app supplies.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			OptionsFromConfig,
			NewSession,
		),
		fx.Invoke(func(lc fx.Lifecycle, s *Session, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					logger.Debug("Closing browsing session")
					s.Close()
					return nil
				},
			})
		}),
	)
}
