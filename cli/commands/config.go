package commands

import (
	"fmt"
	"os"

	"github.com/himakhaitan/redislens/cli/output"
	"github.com/himakhaitan/redislens/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Decode(viper.GetViper())
			if err != nil {
				output.Error(err.Error())
				return
			}
			if !showSecrets && cfg.Redis.Password != "" {
				cfg.Redis.Password = "********"
			}
			b, err := yaml.Marshal(cfg)
			if err != nil {
				output.Error(fmt.Sprintf("Failed to encode config: %v", err))
				return
			}
			if f := viper.ConfigFileUsed(); f != "" {
				output.Dim("# from " + f)
			}
			_, _ = os.Stdout.Write(b)
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print the Redis password instead of masking it")
	return cmd
}
