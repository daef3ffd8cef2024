package commands

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/himakhaitan/redislens/cli/output"
	"github.com/spf13/cobra"
)

const alphanum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	var (
		count int
		size  int
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with sample keys of every type",
		Run: func(cmd *cobra.Command, args []string) {
			if count <= 0 || size <= 0 {
				output.Warn("--count and --size must be positive")
				return
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			plan := seedCommands(rand.New(rand.NewSource(seed)), count, size)

			withEnv(cmd, func(ctx context.Context, e *env) error {
				for _, c := range plan {
					if _, err := e.gw.Execute(ctx, e.params(), c[0], c[1:]); err != nil {
						return fmt.Errorf("%s %s: %w", c[0], c[1], err)
					}
					output.Dim(fmt.Sprintf("%s %s", c[0], c[1]))
				}
				output.Success(fmt.Sprintf("Created %d keys in %s", len(plan), e.params()))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "keys per type")
	cmd.Flags().IntVar(&size, "size", 5, "elements per list, set, sorted set and hash")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed, for repeatable data")
	return cmd
}

// seedCommands plans one write per key: strings, lists, sets, hashes and
// sorted sets under "<type>:key:<n>".
func seedCommands(rnd *rand.Rand, count, size int) [][]string {
	word := func() string {
		b := make([]byte, 8)
		for i := range b {
			b[i] = alphanum[rnd.Intn(len(alphanum))]
		}
		return string(b)
	}

	var plan [][]string
	for i := 0; i < count; i++ {
		plan = append(plan, []string{"SET", fmt.Sprintf("string:key:%d", i), word()})
	}
	for i := 0; i < count; i++ {
		c := []string{"RPUSH", fmt.Sprintf("list:key:%d", i)}
		for j := 0; j < size; j++ {
			c = append(c, word())
		}
		plan = append(plan, c)
	}
	for i := 0; i < count; i++ {
		c := []string{"SADD", fmt.Sprintf("set:key:%d", i)}
		for j := 0; j < size; j++ {
			c = append(c, word())
		}
		plan = append(plan, c)
	}
	for i := 0; i < count; i++ {
		c := []string{"HSET", fmt.Sprintf("hash:key:%d", i)}
		for j := 0; j < size; j++ {
			c = append(c, fmt.Sprintf("field%d", j), word())
		}
		plan = append(plan, c)
	}
	for i := 0; i < count; i++ {
		c := []string{"ZADD", fmt.Sprintf("zset:key:%d", i)}
		for j := 0; j < size; j++ {
			c = append(c, strconv.FormatFloat(rnd.Float64()*100, 'f', 2, 64), word())
		}
		plan = append(plan, c)
	}
	return plan
}
