package commands

import (
	"context"
	"fmt"

	"github.com/himakhaitan/redislens/cli/output"
	"github.com/himakhaitan/redislens/engine"
	"github.com/spf13/cobra"
)

// NewGetCommand creates a new get command
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Aliases: []string{"inspect"},
		Short:   "Show a key's type, TTL, size and value",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			key := args[0]
			withEnv(cmd, func(ctx context.Context, e *env) error {
				st, err := e.session.Inspect(ctx, key)
				if err != nil {
					return err
				}
				if st.Status == engine.StatusNotFound {
					output.Warn(fmt.Sprintf("Key '%s' not found", key))
					return nil
				}
				printDetails(st)
				return nil
			})
		},
	}
}
