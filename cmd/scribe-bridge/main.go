// Command scribe-bridge runs the bridge client as a standalone agent: it
// holds the connection to the configured endpoint, answers heartbeats,
// dispatches inbound requests to a diagnostic echo handler and serves
// Prometheus metrics. Real deployments embed the bridge package and
// register their own handler instead.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"scribelink.io/bridge"
	"scribelink.io/bridge/telemetry"
)

type config struct {
	Endpoint    string `yaml:"endpoint"`
	MetricsAddr string `yaml:"metrics_addr"`
	Reconnect   struct {
		InitialMS   int `yaml:"initial_ms"`
		MaxMS       int `yaml:"max_ms"`
		MaxAttempts int `yaml:"max_attempts"`
	} `yaml:"reconnect"`
}

func defaultConfig() config {
	var cfg config
	cfg.MetricsAddr = ":9090"
	cfg.Reconnect.InitialMS = 1000
	cfg.Reconnect.MaxMS = 30000
	return cfg
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func main() {
	var configPath string
	var endpoint string

	rootCmd := &cobra.Command{
		Use:   "scribe-bridge",
		Short: "Persistent bridge between an automation host and a remote application",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the endpoint and serve until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if endpoint != "" {
				cfg.Endpoint = endpoint
			}
			if cfg.Endpoint == "" {
				return fmt.Errorf("no endpoint configured (use --endpoint or the config file)")
			}
			return run(cfg)
		},
	}
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	runCmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "ws:// or wss:// endpoint (overrides config)")

	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	agentID := uuid.NewString()
	logger := telemetry.NewLoggerWith(
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("agent_id", agentID),
	)
	metrics := telemetry.NewMetrics(nil, map[string]string{"agent_id": agentID})

	client := bridge.New(cfg.Endpoint,
		bridge.WithLogger(logger),
		bridge.WithMetrics(metrics),
		bridge.WithRetryPolicy(bridge.RetryPolicy{
			InitialBackoff: time.Duration(cfg.Reconnect.InitialMS) * time.Millisecond,
			MaxBackoff:     time.Duration(cfg.Reconnect.MaxMS) * time.Millisecond,
			MaxAttempts:    cfg.Reconnect.MaxAttempts,
		}),
	)

	// Diagnostic handler: echoes the request back to the caller.
	client.SetHandler(func(ctx context.Context, req bridge.Request) (any, error) {
		return map[string]any{"action": req.Action, "payload": req.Payload}, nil
	})

	client.Connect()

	r := chi.NewRouter()
	r.Handle("/metrics", telemetry.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":%q}`, client.Status())
	})

	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(err, "metrics server failed", "addr", cfg.MetricsAddr)
		}
	}()

	logger.Info("bridge agent started", "endpoint", cfg.Endpoint, "metrics_addr", cfg.MetricsAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	client.Disconnect()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
