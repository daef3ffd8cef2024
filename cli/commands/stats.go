package commands

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/himakhaitan/redislens/cli/output"
	"github.com/himakhaitan/redislens/monitor"
	"github.com/spf13/cobra"
)

// NewInfoCommand creates the info command
func NewInfoCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show server information grouped into dashboard sections",
		Run: func(cmd *cobra.Command, args []string) {
			withEnv(cmd, func(ctx context.Context, e *env) error {
				if all {
					return printAllSections(ctx, e)
				}
				fields, err := e.gw.ServerInfo(ctx, e.params())
				if err != nil {
					return err
				}
				info := monitor.NewInfo(fields)
				if v, err := info.Version(); err == nil {
					output.Info(fmt.Sprintf("Redis %s at %s", v, e.params()))
				}
				for _, sec := range monitor.Dashboard(info) {
					output.Heading(sec.Name)
					rows := make([][2]string, len(sec.Rows))
					for i, r := range sec.Rows {
						rows[i] = [2]string{r.Label, r.Value}
					}
					output.Pairs(rows)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "print every INFO section as the server reports it")
	return cmd
}

// printAllSections runs INFO through the console path so the reply keeps
// its section headers.
func printAllSections(ctx context.Context, e *env) error {
	reply, err := e.gw.Execute(ctx, e.params(), "INFO", nil)
	if err != nil {
		return err
	}
	text, ok := reply.(string)
	if !ok {
		return fmt.Errorf("unexpected INFO reply of type %T", reply)
	}
	for _, sec := range monitor.ParseInfo(text).Sections {
		output.Heading(sec.Name)
		rows := make([][2]string, len(sec.Fields))
		for i, f := range sec.Fields {
			rows[i] = [2]string{f.Name, f.Value}
		}
		output.Pairs(rows)
	}
	return nil
}

// NewStatsCommand creates a new stats command
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show memory, key and performance statistics",
		Run: func(cmd *cobra.Command, args []string) {
			withEnv(cmd, func(ctx context.Context, e *env) error {
				fields, err := e.gw.ServerInfo(ctx, e.params())
				if err != nil {
					return err
				}
				info := monitor.NewInfo(fields)
				st := monitor.Summarize(info, e.params().DB)

				output.Heading("Memory")
				output.Pairs([][2]string{
					{"used", st.Memory.UsedMemoryHuman},
					{"peak", st.Memory.UsedMemoryPeakHuman},
					{"dataset", fmt.Sprintf("%d bytes", st.Memory.UsedMemoryDataset)},
					{"fragmentation", strconv.FormatFloat(st.Memory.MemFragmentationRatio, 'f', 2, 64)},
				})
				output.Heading("Keys")
				rows := [][2]string{{fmt.Sprintf("db%d", e.params().DB), strconv.FormatInt(st.Keys.Total, 10)}}
				ks := info.Keyspace()
				dbs := make([]int, 0, len(ks))
				for db := range ks {
					if db != e.params().DB {
						dbs = append(dbs, db)
					}
				}
				sort.Ints(dbs)
				for _, db := range dbs {
					rows = append(rows, [2]string{fmt.Sprintf("db%d", db), strconv.FormatInt(ks[db], 10)})
				}
				output.Pairs(rows)
				output.Heading("Performance")
				output.Pairs([][2]string{
					{"ops/sec", strconv.FormatInt(st.Performance.InstantaneousOpsPerSec, 10)},
					{"commands", strconv.FormatInt(st.Performance.TotalCommandsProcessed, 10)},
					{"connections", strconv.FormatInt(st.Performance.TotalConnectionsReceived, 10)},
					{"clients", strconv.FormatInt(st.Performance.ConnectedClients, 10)},
				})
				return nil
			})
		},
	}
}
