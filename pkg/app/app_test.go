package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	shutdownCh chan struct{}
}

func (a *testApp) Init(_ Config, _ *newrelic.Application) error { return nil }

func (a *testApp) RegisterWithHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func (a *testApp) ShutdownChan() <-chan struct{} { return a.shutdownCh }

func (a *testApp) Stop() {}

func TestHealthHandler(t *testing.T) {
	handler := newHTTPHandler(&testApp{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthCheckPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":"Healthy!"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, HealthCheckPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, HealthCheckPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestDebugMux(t *testing.T) {
	mux := newDebugMux(BaseConfig{EnableExpvar: true})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_NAME", "valhalla-test")

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "valhalla-test", config.AppName)
	assert.Equal(t, defaultConfig.LogLevel, config.LogLevel)
	assert.Equal(t, defaultConfig.ListenAddress, config.ListenAddress)
	assert.Equal(t, defaultConfig.ShutdownGracePeriod, config.ShutdownGracePeriod)
	assert.False(t, config.EnableMemoryLeakCron)
	assert.Empty(t, config.AppConfig)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
app_name: valhalla
log_level: debug
listen_address: ":9000"
shutdown_grace_period: 5s
ballast_capacity: 0.9
app:
  store: memory
  payer_key_file: payer.json
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	t.Setenv("LOG_LEVEL", "warn")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "valhalla", config.AppName)
	assert.Equal(t, "warn", config.LogLevel)
	assert.Equal(t, ":9000", config.ListenAddress)
	assert.Equal(t, 5*time.Second, config.ShutdownGracePeriod)
	assert.EqualValues(t, maxBallastCapacity, config.BallastCapacity)
	assert.Equal(t, "memory", config.AppConfig["store"])
	assert.Equal(t, "payer.json", config.AppConfig["payer_key_file"])
}

func TestLoadConfig_RequiresAppName(t *testing.T) {
	t.Setenv("APP_NAME", "")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestMemoryLeakCron(t *testing.T) {
	_, err := newMemoryLeakCron("not a schedule", make(chan struct{}))
	assert.Error(t, err)

	shutdownCh := make(chan struct{})
	cronJob, err := newMemoryLeakCron("@every 1s", shutdownCh)
	require.NoError(t, err)
	cronJob.Start()
	defer cronJob.Stop()

	select {
	case <-shutdownCh:
	case <-time.After(5 * time.Second):
		t.Fatal("memory leak cron did not fire")
	}

	// Later firings must not panic on the closed channel
	time.Sleep(1500 * time.Millisecond)
}
