package cli

import (
	"github.com/himakhaitan/redislens/cli/commands"
	"github.com/himakhaitan/redislens/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type CLI struct {
	root *cobra.Command
}

// NewCLI builds the root command. cfg is the configuration loaded from file
// and environment; it supplies the flag defaults, and flags set on the
// command line override it through viper.
func NewCLI(cfg *config.Config) *CLI {
	cli := &CLI{}
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "redislens",
		Short: "A terminal browser for Redis-compatible stores",
		Long:  "RedisLens is a command-line browser and console for Redis, talking to a redislensd API server or directly to Redis",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile == "" {
				return nil
			}
			_, err := config.LoadFile(viper.GetViper(), configFile)
			return err
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default ./redislens.yaml)")
	flags.String("server", cfg.ServerURL, "redislensd API server URL")
	flags.String("host", cfg.Redis.Host, "Redis host")
	flags.Int("port", cfg.Redis.Port, "Redis port")
	flags.Int("db", cfg.Redis.DB, "Redis database number")
	flags.String("password", "", "Redis password")
	flags.Bool("direct", false, "connect to Redis directly instead of through the API server")
	flags.BoolP("verbose", "v", false, "log gateway calls to stderr")
	flags.Duration("timeout", 0, "request timeout against the API server (default 10s)")

	bind := map[string]string{
		"server_url":        "server",
		"redis.host":        "host",
		"redis.port":        "port",
		"redis.db":          "db",
		"redis.password":    "password",
		commands.KeyDirect:  "direct",
		commands.KeyVerbose: "verbose",
		commands.KeyTimeout: "timeout",
	}
	for key, name := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}

	// Create command registry and register all commands
	registry := commands.NewCommandRegistry()
	registry.RegisterCommands(rootCmd)

	cli.root = rootCmd

	return cli
}

func (c *CLI) Run() error {
	return c.root.Execute()
}
