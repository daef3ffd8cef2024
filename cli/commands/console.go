package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/himakhaitan/redislens/cli/output"
	"github.com/himakhaitan/redislens/engine"
	"github.com/spf13/cobra"
)

// NewExecCommand creates the exec command
func NewExecCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command> [args...]",
		Short: "Run one store command and print the reply",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			line := joinArgs(args)
			withEnv(cmd, func(ctx context.Context, e *env) error {
				recs := e.session.Console().Execute(ctx, line)
				// The command record is the echo of what was typed.
				if len(recs) > 1 {
					recs = recs[1:]
				}
				printRecords(recs)
				return nil
			})
		},
	}
}

// joinArgs quotes arguments so the console tokenizer sees them unchanged.
func joinArgs(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'\\") {
			a = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(a) + `"`
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

// NewConsoleCommand creates the interactive console command
func NewConsoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive command console with history",
		Long: `Reads commands from standard input, one per line, and prints each reply.
Besides store commands, the console understands:
  :prev      recall the previous history entry
  :next      recall the next history entry
  :history   list history, most recent first
  :quit      leave the console (also exit, quit or end of input)`,
		Run: func(cmd *cobra.Command, args []string) {
			withEnv(cmd, func(ctx context.Context, e *env) error {
				runConsole(ctx, e.session.Console(), cmd.InOrStdin())
				return nil
			})
		},
	}
}

func runConsole(ctx context.Context, c *engine.Console, in io.Reader) {
	printRecords(c.Transcript())
	output.Dim("Type HELP for examples, :quit to leave.")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case ":quit", "exit", "quit":
			return
		case ":prev":
			recall(c.Previous())
			continue
		case ":next":
			recall(c.Next())
			continue
		case ":history":
			for i, h := range c.History() {
				output.Dim(fmt.Sprintf("%3d  %s", i+1, h))
			}
			continue
		case "":
			// An empty line runs a recalled entry, if any.
			line = c.Input()
			if line == "" {
				continue
			}
		}

		recs := c.Execute(ctx, line)
		if recs == nil && strings.EqualFold(line, "clear") {
			output.Dim("Console cleared")
			continue
		}
		printRecords(recs)
	}
}

func recall(entry string) {
	if entry == "" {
		output.Dim("(no entry)")
		return
	}
	output.Dim("recalled: " + entry + "  (press enter to run)")
}
