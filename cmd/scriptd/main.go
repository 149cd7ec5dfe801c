package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scriptd/scriptd/config"
	"github.com/scriptd/scriptd/pkg/api"
	"github.com/scriptd/scriptd/pkg/api/handlers"
	"github.com/scriptd/scriptd/pkg/logger"
	"github.com/scriptd/scriptd/pkg/metrics"
	"github.com/scriptd/scriptd/pkg/multicast"
	"github.com/scriptd/scriptd/pkg/script"
	"github.com/scriptd/scriptd/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")

	// CLI overrides
	logLevel   = flag.String("log-level", "", "Override log level")
	serverPort = flag.Int("port", 0, "Override introspection server port")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	if *versionFlag {
		for k, v := range version.Info() {
			fmt.Printf("%s: %s\n", k, v)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scriptd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	overrides := map[string]interface{}{}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *debugMode {
		overrides["app.debug"] = true
		overrides["log.level"] = "debug"
	}

	cfg, err := config.NewLoader().Load(*configPath, overrides)
	if err != nil {
		return err
	}

	log := logger.New(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	logger.SetGlobal(log)
	defer log.Close()

	log.Info("starting scriptd",
		"version", version.Version,
		"environment", cfg.App.Environment,
	)

	// Metrics wiring: one manager feeds the pool and script recorders and
	// the exposition endpoint.
	mgr := metrics.NewManager(metrics.Config{
		Enabled:             cfg.Metrics.Enabled,
		Path:                cfg.Metrics.Path,
		RunDurationBuckets:  metrics.DefaultConfig().RunDurationBuckets,
		HTTPDurationBuckets: metrics.DefaultConfig().HTTPDurationBuckets,
	})
	if mgr.Enabled() {
		multicast.SetMetricsRecorder(mgr)
		script.SetMetricsRecorder(mgr)
	}

	// The process-wide multicast pool. Every task thread gets this one
	// instance; Close at exit unregisters whatever is left.
	pool := multicast.NewPool()
	defer pool.Close()

	var bridge *multicast.RedisBridge
	if cfg.Bus.Bridge.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Bus.Bridge.Addr,
			Password: cfg.Bus.Bridge.Password,
			DB:       cfg.Bus.Bridge.DB,
		})
		bridge, err = multicast.NewRedisBridge(context.Background(), client, cfg.Bus.Bridge.Channel, pool)
		if err != nil {
			return fmt.Errorf("redis bridge: %w", err)
		}
		defer bridge.Close()
		log.Info("redis bridge attached", "addr", cfg.Bus.Bridge.Addr, "channel", cfg.Bus.Bridge.Channel)
	}

	registry := script.NewRegistry()
	defer registry.CloseAll()

	// Hot-reload the log level when a config file is being used.
	watcherCtx, cancelWatcher := context.WithCancel(context.Background())
	defer cancelWatcher()
	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath)
		if err != nil {
			log.Warn("config watcher unavailable", "error", err)
		} else {
			watcher.OnChange(func(next *config.Config) {
				log.SetLevel(logger.ParseLevel(next.Log.Level))
				log.Info("log level reloaded", "level", next.Log.Level)
			})
			go func() {
				if err := watcher.Watch(watcherCtx); err != nil && watcherCtx.Err() == nil {
					log.Warn("config watcher stopped", "error", err)
				}
			}()
			defer watcher.Stop()
		}
	}

	var srv *api.HTTPServer
	if cfg.Server.Enabled {
		h := &api.Handlers{
			Health:     handlers.NewHealthHandler(pool),
			Threads:    handlers.NewThreadHandler(registry),
			Multicasts: handlers.NewMulticastHandler(pool, log),
		}
		if mgr.Enabled() {
			h.Metrics = mgr.Handler()
			h.MetricsRecorder = mgr
		}
		srv = api.NewHTTPServer(cfg, log, h)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error("introspection server exited", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", "signal", sig.String())

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}
	return nil
}
