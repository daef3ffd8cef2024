package commands

import (
	"bytes"
	"io"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/himakhaitan/redislens/gateway"
	"github.com/himakhaitan/redislens/pkg/config"
	"github.com/himakhaitan/redislens/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// executeCommand runs the cobra command with given arguments.
// This helper is shared across all test files in the 'commands' package.
func executeCommand(t *testing.T, cmd *cobra.Command, args []string) {
	cmd.SetArgs(args)
	// We only check for cobra errors (arg count), not runtime errors (logged via output.Error)
	err := cmd.Execute()
	assert.NoError(t, err)
}

// run executes a fresh command and returns what it printed.
func run(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	return captureOutput(func() { executeCommand(t, cmd, args) })
}

func captureOutput(f func()) string {
	stdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	f()

	w.Close()
	os.Stdout = stdout
	return <-done
}

// setupLens points the global viper at a miniredis instance, either through
// an in-process API server or, with direct, straight at Redis. Output is
// uncoloured for the duration of the test.
func setupLens(t *testing.T, direct bool) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	viper.Reset()
	config.SetDefaults(viper.GetViper())
	viper.Set("redis.host", mr.Host())
	viper.Set("redis.port", port)
	viper.Set(KeyDirect, direct)

	if !direct {
		logger := zaptest.NewLogger(t)
		gw := gateway.NewRedis(logger)
		ts := httptest.NewServer(server.NewRouter(server.NewHandlers(gw, logger), prometheus.NewRegistry(), logger))
		t.Cleanup(func() {
			ts.Close()
			_ = gw.Close()
		})
		viper.Set("server_url", ts.URL)
	}

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = noColor
		viper.Reset()
	})
	return mr
}
