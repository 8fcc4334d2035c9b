package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/bizsim-client/internal/auth"
	"github.com/rickgao/bizsim-client/internal/config"
	"github.com/rickgao/bizsim-client/internal/connection"
	"github.com/rickgao/bizsim-client/internal/logging"
	"github.com/rickgao/bizsim-client/internal/metrics"
	"github.com/rickgao/bizsim-client/internal/transport"
	"github.com/rickgao/bizsim-client/internal/version"
)

func runCmd() *cobra.Command {
	var configPath, debugAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the game server and relay events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, debugAddr, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "configs/bizsim.yaml", "path to config file")
	cmd.Flags().StringVar(&debugAddr, "debug-addr", "", "health/metrics listen address (default :<metrics.port>)")

	return cmd
}

func run(ctx context.Context, configPath, debugAddr string, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(cfg.Logging, os.Stdout)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("starting bizsim",
		"version", version.Version,
		"commit", version.Commit,
		"config", configPath,
		"server", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"transport", cfg.Server.Transport,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	tr, err := transport.New(cfg.Server.Transport, cfg.Server.WSPath)
	if err != nil {
		return err
	}

	mgr := connection.NewManager(connectionConfig(cfg), tr, m, logger)
	c := &client{mgr: mgr, cfg: cfg}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if err := c.start(gctx); err != nil {
		mgr.Close()
		return err
	}

	// Event consumer: runs until the relay is closed.
	g.Go(func() error {
		for {
			ev, ok := mgr.Events().Receive()
			if !ok {
				return nil
			}
			logEvent(logger, ev)
		}
	})

	// Config watch: restart the session when the server or credentials change.
	g.Go(func() error {
		err := config.Watch(gctx, configPath, logger, func(next *config.ClientConfig) {
			if err := c.reload(gctx, next); err != nil {
				logger.Error("restart after config change failed", "error", err)
			}
		})
		if err != nil {
			logger.Warn("config watch disabled", "error", err)
		}
		return nil
	})

	if debugAddr == "" && cfg.Metrics.Port > 0 {
		debugAddr = fmt.Sprintf(":%d", cfg.Metrics.Port)
	}
	if debugAddr != "" {
		srv := &http.Server{
			Addr:              debugAddr,
			Handler:           newDebugHandler(mgr, reg, cfg.Metrics.Path),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("starting debug server", "addr", debugAddr, "metrics_path", cfg.Metrics.Path)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("debug server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// Shutdown: stop the session and close the relay so the consumer exits.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		mgr.Close()
		return nil
	})

	// Stdin is not cancellable; the reader is left behind on exit.
	go readConsole(in, c, logger)

	err = g.Wait()
	logger.Info("bizsim stopped", "reconnects", mgr.Stats().Reconnects)
	return err
}

// client holds the running manager and the config it was started with.
type client struct {
	mgr connection.Manager

	mu  sync.Mutex
	cfg *config.ClientConfig
}

func (c *client) login() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Credentials.Login
}

func (c *client) start(ctx context.Context) error {
	c.mu.Lock()
	cfg := c.cfg
	c.mu.Unlock()

	return c.mgr.Start(ctx, cfg.Server.Host, cfg.Server.Port, credentials(cfg))
}

// reload restarts the session if next changes where or as whom we connect.
// This is also how new credentials reach a session stuck in InvalidLogin.
func (c *client) reload(ctx context.Context, next *config.ClientConfig) error {
	c.mu.Lock()
	prev := c.cfg
	c.cfg = next
	c.mu.Unlock()

	if !needsRestart(prev, next) {
		return nil
	}

	slog.Info("connection settings changed, restarting session",
		"host", next.Server.Host,
		"port", next.Server.Port,
		"login", next.Credentials.Login,
	)
	c.mgr.Stop()
	return c.start(ctx)
}

func needsRestart(prev, next *config.ClientConfig) bool {
	return prev.Server.Host != next.Server.Host ||
		prev.Server.Port != next.Server.Port ||
		!credentials(prev).Equal(credentials(next))
}

func credentials(cfg *config.ClientConfig) auth.Credentials {
	return auth.Credentials{
		Login:    cfg.Credentials.Login,
		Password: cfg.Credentials.Password,
	}
}

// connectionConfig maps the YAML settings onto the manager's config.
func connectionConfig(cfg *config.ClientConfig) connection.Config {
	cc := connection.DefaultConfig()
	cc.ReconnectWindow = cfg.Connection.ReconnectWindow
	cc.IdleTick = cfg.Connection.IdleTick
	cc.WatchTick = cfg.Connection.WatchTick
	cc.KeepAliveIdle = cfg.Connection.KeepAliveIdle
	cc.KeepAliveInterval = cfg.Connection.KeepAliveInterval
	cc.KeepAliveCount = cfg.Connection.KeepAliveCount
	if cfg.Connection.NoDelay != nil {
		cc.NoDelay = *cfg.Connection.NoDelay
	}
	cc.ReadBufferSize = cfg.Connection.ReadBufferSize
	cc.RelayCapacity = cfg.Relay.InitialCapacity
	return cc
}
