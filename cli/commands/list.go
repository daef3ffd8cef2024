package commands

import (
	"context"
	"fmt"

	"github.com/himakhaitan/redislens/cli/output"
	"github.com/himakhaitan/redislens/engine"
	"github.com/spf13/cobra"
)

// NewListCommand creates the keys command
func NewListCommand() *cobra.Command {
	var (
		pattern string
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:     "keys [pattern]",
		Aliases: []string{"list", "ls"},
		Short:   "List keys matching a pattern, one page at a time",
		Args:    cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				pattern = args[0]
			}
			withEnv(cmd, func(ctx context.Context, e *env) error {
				ix := e.session.Index()
				cur, err := ix.Search(ctx, pattern)
				if err != nil {
					return err
				}
				if perPage != 0 && perPage != cur.PageSize {
					if _, err := ix.SetPageSize(ctx, perPage); err != nil {
						return err
					}
				}
				if page > 1 {
					if _, err := ix.GoToPage(ctx, page); err != nil {
						return err
					}
				}
				printPage(ix.Current())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "*", "glob-style key pattern")
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "keys per page (defaults to browser.page_size)")
	return cmd
}

func printPage(p engine.KeyPage) {
	if p.TotalMatches == 0 {
		output.Info(fmt.Sprintf("No keys match '%s'", p.Pattern))
		return
	}
	offset := (p.Page - 1) * p.PageSize
	for i, k := range p.Items {
		output.Plain(fmt.Sprintf("%4d  %s", offset+i+1, k))
	}
	output.Dim(fmt.Sprintf("Page %d of %d (%d keys match '%s')", p.Page, p.TotalPages, p.TotalMatches, p.Pattern))
}
