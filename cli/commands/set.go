package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/himakhaitan/redislens/cli/output"
	"github.com/himakhaitan/redislens/engine"
	"github.com/spf13/cobra"
)

// NewSetCommand creates a new set command
func NewSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Replace the value of an existing string key, keeping its TTL",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			key, val := args[0], args[1]
			withEnv(cmd, func(ctx context.Context, e *env) error {
				if err := e.session.SetValue(ctx, key, val); err != nil {
					return err
				}
				output.Success(fmt.Sprintf("Set %s = %s", key, val))
				return nil
			})
		},
	}
}

// NewExpireCommand creates the expire command
func NewExpireCommand() *cobra.Command {
	var persist bool

	cmd := &cobra.Command{
		Use:   "expire <key> [seconds]",
		Short: "Set a key's TTL in seconds, or remove it with --persist",
		Args:  cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			key := args[0]
			ttl := engine.Persist
			if !persist {
				if len(args) != 2 {
					output.Warn("Give a TTL in seconds or pass --persist")
					return
				}
				n, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					output.Warn(fmt.Sprintf("Invalid TTL '%s': must be a whole number of seconds", args[1]))
					return
				}
				ttl = n
			}

			withEnv(cmd, func(ctx context.Context, e *env) error {
				if err := e.session.SetExpiration(ctx, key, ttl); err != nil {
					return err
				}
				if ttl == engine.Persist {
					output.Success(fmt.Sprintf("Removed expiration from %s", key))
				} else {
					output.Success(fmt.Sprintf("%s expires in %d seconds", key, ttl))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&persist, "persist", false, "remove the expiration")
	return cmd
}
