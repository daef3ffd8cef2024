package server

import (
	"context"

	"github.com/himakhaitan/redislens/gateway"
	"github.com/himakhaitan/redislens/monitor"
	"github.com/himakhaitan/redislens/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the HTTP API server wired with fx
func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewGateway),
		fx.Provide(NewRegistry),
		fx.Provide(NewHandlers),
		fx.Provide(NewRouter),
		fx.Provide(NewHTTPServer),
		fx.Invoke(RegisterMonitor),
		fx.Invoke(RegisterHooks),
	)
}

// NewGateway opens the pooled Redis gateway and closes it on stop.
func NewGateway(lc fx.Lifecycle, logger *zap.Logger) gateway.Gateway {
	gw := gateway.NewRedis(logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return gw.Close()
		},
	})
	return gw
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// RegisterMonitor polls the configured Redis server and exports it on
// /metrics when the monitor is enabled.
func RegisterMonitor(lc fx.Lifecycle, cfg *config.Config, gw gateway.Gateway, reg *prometheus.Registry, logger *zap.Logger) error {
	if !cfg.Monitor.Enabled {
		logger.Info("Monitor disabled")
		return nil
	}
	p := monitor.NewPoller(gw, cfg.Redis, cfg.Monitor.Interval, logger.Named("monitor"))
	if err := reg.Register(monitor.NewCollector(p)); err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Start(context.Background())
			return nil
		},
		OnStop: func(context.Context) error {
			p.Stop()
			return nil
		},
	})
	return nil
}
