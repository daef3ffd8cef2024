package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/himakhaitan/redislens/pkg/config"
	"github.com/himakhaitan/redislens/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T, enabled bool) *config.Config {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	return &config.Config{
		ListenAddr: "127.0.0.1:0",
		Redis:      types.ConnParams{Host: mr.Host(), Port: port},
		Monitor:    config.MonitorConfig{Enabled: enabled, Interval: 10 * time.Millisecond},
	}
}

func TestModule_ServesMetrics(t *testing.T) {
	var router *mux.Router
	app := fxtest.New(t,
		fx.Supply(testConfig(t, true)),
		fx.Provide(func() *zap.Logger { return zaptest.NewLogger(t) }),
		Module(),
		fx.Populate(&router),
	)
	app.RequireStart()
	defer app.RequireStop()

	ts := httptest.NewServer(router)
	defer ts.Close()

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK &&
			containsAll(string(body), "redislens_up", "redislens_monitor_polls_total", "go_goroutines")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestModule_MonitorDisabled(t *testing.T) {
	var router *mux.Router
	app := fxtest.New(t,
		fx.Supply(testConfig(t, false)),
		fx.Provide(func() *zap.Logger { return zaptest.NewLogger(t) }),
		Module(),
		fx.Populate(&router),
	)
	app.RequireStart()
	defer app.RequireStop()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redislens_up")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
