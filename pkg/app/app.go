// Package app runs a long lived process around an App: config loading,
// logging, metrics, the HTTP listeners and graceful shutdown.
package app

import (
	"context"
	"expvar"
	"flag"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/metrics"
	"github.com/valhalla-so/valhalla-server/pkg/osutil"
)

// App is a long lived application.
//
// The lifecycle of the App is tied to the process. The app gets initialized
// before the HTTP server runs, and gets stopped after the HTTP server has
// stopped serving.
type App interface {
	// Init initializes the application in a blocking fashion. When Init
	// returns, the application is expected to be running.
	Init(config Config, metricsProvider *newrelic.Application) error

	// RegisterWithHTTP installs the application's handlers. The health check
	// is always installed.
	RegisterWithHTTP(mux *http.ServeMux)

	// ShutdownChan returns a channel that is closed when the application is
	// shutdown.
	ShutdownChan() <-chan struct{}

	// Stop stops the application, allowing for it to clean up any resources.
	//
	// Stop should be idempotent.
	Stop()
}

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")

	osSigCh = make(chan os.Signal, 1)
)

func init() {
	signal.Notify(osSigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
}

func Run(app App) error {
	flag.Parse()

	logger := logrus.StandardLogger().WithField("type", "app")

	config, err := LoadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Error("failed to load config")
		os.Exit(1)
	}

	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		metricsProvider, err = newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Error("error connecting to new relic")
			os.Exit(1)
		}
	}

	configureLogger(config, metricsProvider)

	// pprof and expvar install themselves on the default mux, which must not
	// be exposed on the public listener.
	http.DefaultServeMux = http.NewServeMux()

	debugMux := newDebugMux(config)
	if config.EnableExpvar || config.EnablePprof {
		go func() {
			for {
				if err := http.ListenAndServe(config.DebugListenAddress, debugMux); err != nil {
					logger.WithError(err).Warn("Debug HTTP server failed. Retrying in 5s...")
				}
				time.Sleep(5 * time.Second)
			}
		}()
	}

	var ballast []byte
	if config.EnableBallast {
		ballast = make([]byte, uint64(config.BallastCapacity*float32(osutil.GetTotalMemory())))
	}

	memoryLeakShutdownCh := make(chan struct{})
	if config.EnableMemoryLeakCron {
		cronJob, err := newMemoryLeakCron(config.MemoryLeakCronSchedule, memoryLeakShutdownCh)
		if err != nil {
			logger.WithError(err).Error("failed to initialize memory leak cron")
			os.Exit(1)
		}
		cronJob.Start()
		defer cronJob.Stop()
	}

	lis, err := net.Listen("tcp", config.ListenAddress)
	if err != nil {
		logger.WithError(err).Errorf("failed to listen on %s", config.ListenAddress)
		os.Exit(1)
	}

	if err := app.Init(config.AppConfig, metricsProvider); err != nil {
		logger.WithError(err).Error("failed to initialize application")
		os.Exit(1)
	}

	server := &http.Server{
		Handler:           newHTTPHandler(app, metricsProvider),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverShutdownCh := make(chan struct{})
	go func() {
		if err := server.Serve(lis); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http serve stopped")
		} else {
			logger.Info("http server stopped")
		}

		close(serverShutdownCh)
	}()

	select {
	case <-osSigCh:
		logger.Info("interrupt received, shutting down")
	case <-serverShutdownCh:
		logger.Info("http server shutdown")
	case <-memoryLeakShutdownCh:
		logger.Info("shutdown to deal with memory leak")
	case <-app.ShutdownChan():
		logger.Info("app shutdown")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownGracePeriod)
	defer cancel()

	shutdownCh := make(chan struct{})
	go func() {
		// Both shutdown paths are idempotent, so they're called regardless of
		// the shutdown condition.
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("http server did not shutdown cleanly")
		}
		app.Stop()

		close(shutdownCh)
	}()

	select {
	case <-shutdownCh:
		// Keep the ballast reachable until exit
		if len(ballast) > 0 {
			ballast[0] = 1
		}

		if metricsProvider != nil {
			metricsProvider.Shutdown(config.ShutdownGracePeriod)
		}
		return nil
	case <-ctx.Done():
		return errors.Errorf("failed to stop the application within %v", config.ShutdownGracePeriod)
	}
}

func newHTTPHandler(app App, metricsProvider *newrelic.Application) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(newrelic.WrapHandleFunc(metricsProvider, HealthCheckPath, HealthHandler))
	app.RegisterWithHTTP(mux)

	if metricsProvider == nil {
		return mux
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(metrics.WithNewRelic(r.Context(), metricsProvider)))
	})
}

func newDebugMux(config BaseConfig) *http.ServeMux {
	mux := http.NewServeMux()
	if config.EnableExpvar {
		mux.Handle("/debug/vars", expvar.Handler())
	}
	if config.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

// newMemoryLeakCron closes shutdownCh the first time schedule fires
func newMemoryLeakCron(schedule string, shutdownCh chan struct{}) (*cron.Cron, error) {
	cronJob := cron.New(cron.WithLocation(time.Local))

	var once sync.Once
	_, err := cronJob.AddFunc(schedule, func() {
		once.Do(func() { close(shutdownCh) })
	})
	if err != nil {
		return nil, err
	}
	return cronJob, nil
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewCustomNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stdout)
}
