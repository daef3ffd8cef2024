package commands

import (
	"context"
	"fmt"

	"github.com/himakhaitan/redislens/cli/output"
	"github.com/himakhaitan/redislens/gateway"
	"github.com/himakhaitan/redislens/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewServerCommand creates a new server command
func NewServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Check that the RedisLens API server is up and can reach Redis",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Decode(viper.GetViper())
			if err != nil {
				output.Error(err.Error())
				return
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			gw := gateway.NewHTTP(cfg.ServerURL, requestTimeout())
			if err := gw.Health(ctx); err != nil {
				output.Error(fmt.Sprintf("API server at %s is not healthy: %v", cfg.ServerURL, err))
				output.Info("Use the 'redislensd' binary to start the server.")
				return
			}
			output.Success(fmt.Sprintf("API server at %s is up", cfg.ServerURL))

			if err := gw.Ping(ctx, cfg.Redis); err != nil {
				output.Warn(fmt.Sprintf("Redis at %s is not reachable: %v", cfg.Redis, err))
				return
			}
			output.Success(fmt.Sprintf("Redis at %s is reachable", cfg.Redis))
		},
	}
}
