package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/himakhaitan/redislens/cli/output"
	"github.com/himakhaitan/redislens/engine"
	"github.com/himakhaitan/redislens/gateway"
	"github.com/himakhaitan/redislens/pkg/config"
	"github.com/himakhaitan/redislens/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Viper keys for flags that are not part of config.Config.
const (
	KeyDirect  = "cli.direct"
	KeyVerbose = "cli.verbose"
	KeyTimeout = "cli.timeout"
)

const defaultTimeout = 10 * time.Second

// env is what a command works with once the effective config is known.
type env struct {
	cfg     *config.Config
	gw      gateway.Gateway
	session *engine.Session
	logger  *zap.Logger
	stop    func()
}

func (e *env) Close() { e.stop() }

func (e *env) params() gateway.ConnParams { return e.cfg.Redis }

// newGateway talks to the API server unless --direct asks for a straight
// Redis connection.
func newGateway(lc fx.Lifecycle, cfg *config.Config, lg *zap.Logger) gateway.Gateway {
	if !viper.GetBool(KeyDirect) {
		return gateway.NewHTTP(cfg.ServerURL, requestTimeout())
	}
	gw := gateway.NewRedis(lg)
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return gw.Close() }})
	return gw
}

func requestTimeout() time.Duration {
	if t := viper.GetDuration(KeyTimeout); t > 0 {
		return t
	}
	return defaultTimeout
}

func newLogger() (*zap.Logger, error) {
	level := ""
	if viper.GetBool(KeyVerbose) {
		level = "debug"
	}
	return logger.NewCLI(level)
}

// openEnv decodes the effective config (file, env and flags) and starts a
// connected browsing session.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(newLogger, newGateway),
		engine.Module(),
		fx.Populate(&e.session, &e.gw, &e.logger),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	e.stop = func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
		_ = e.logger.Sync()
	}

	if err := e.session.Connect(ctx, cfg.Redis); err != nil {
		e.stop()
		return nil, err
	}
	return e, nil
}

// withEnv runs fn against a fresh session and reports any failure as an
// output line. Commands never exit the process themselves.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx)
	if err != nil {
		report(err)
		return
	}
	defer e.Close()

	if err := fn(ctx, e); err != nil {
		report(err)
	}
}

// report turns an engine error class into one output line.
func report(err error) {
	var remote *gateway.RemoteError
	switch {
	case errors.Is(err, engine.ErrNotConnected):
		output.Error("Not connected. Check the server URL and Redis address.")
	case errors.Is(err, engine.ErrNotFound):
		output.Warn(err.Error())
	case errors.Is(err, engine.ErrValidation):
		output.Warn(err.Error())
	case errors.Is(err, engine.ErrPartialFailure):
		output.Warn(err.Error())
	case errors.Is(err, engine.ErrMutationInFlight):
		output.Warn(err.Error())
	case errors.As(err, &remote):
		output.Error(fmt.Sprintf("Server error (%d): %s", remote.Status, remote.Detail))
	default:
		output.Error(err.Error())
	}
}
