package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/himakhaitan/redislens/cli/output"
	"github.com/himakhaitan/redislens/engine"
	"github.com/spf13/cobra"
)

// NewDeleteCommand creates a new delete command
func NewDeleteCommand() *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "delete [key...]",
		Short: "Delete one or more keys, or every key on the first page of --pattern",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 && pattern == "" {
				output.Warn("Nothing to delete: give keys or --pattern")
				return
			}
			withEnv(cmd, func(ctx context.Context, e *env) error {
				if pattern != "" {
					return deletePage(ctx, e, pattern)
				}
				if len(args) == 1 {
					if err := e.session.DeleteKey(ctx, args[0]); err != nil {
						return err
					}
					output.Success(fmt.Sprintf("Deleted key: %s", args[0]))
					return nil
				}
				res, err := e.session.DeleteKeys(ctx, args)
				printBulk(res)
				if errors.Is(err, engine.ErrPartialFailure) {
					return nil
				}
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "delete the keys on the first page matching this pattern")
	return cmd
}

// deletePage selects every key on the first page of pattern and deletes the
// selection, the same path a user takes with select-all.
func deletePage(ctx context.Context, e *env, pattern string) error {
	page, err := e.session.Index().Search(ctx, pattern)
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		output.Info(fmt.Sprintf("No keys match '%s'", pattern))
		return nil
	}
	e.session.Selection().SelectAll()
	res, err := e.session.DeleteSelected(ctx)
	printBulk(res)
	if errors.Is(err, engine.ErrPartialFailure) {
		return nil
	}
	if err == nil && page.TotalPages > 1 {
		output.Dim(fmt.Sprintf("%d more keys match '%s'", e.session.Index().Current().TotalMatches, pattern))
	}
	return err
}

func printBulk(res engine.BulkDeleteResult) {
	if res.TotalCount == 0 {
		return
	}
	msg := fmt.Sprintf("Deleted %d of %d keys", res.DeletedCount, res.TotalCount)
	if res.Status == "partial" {
		output.Warn(msg)
		for _, e := range res.Errors {
			output.Dim("  " + e)
		}
		return
	}
	output.Success(msg)
}
