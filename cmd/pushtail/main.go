// pushtail connects to a push endpoint and tails inbound frames to the
// console. Lines read from stdin are sent to the server verbatim.
// Usage: go run ./cmd/pushtail --url wss://push.example.com/push
//
// With --record (and recorder settings in the config file), inbound
// frames are also persisted to PostgreSQL for later inspection.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pushsock/pushsock/internal/config"
	"github.com/pushsock/pushsock/internal/connection"
	"github.com/pushsock/pushsock/internal/database"
	"github.com/pushsock/pushsock/internal/recorder"
	"github.com/pushsock/pushsock/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	urlFlag := flag.String("url", "", "connection target (overrides config)")
	baseURLFlag := flag.String("base-url", "", "http(s) origin for a relative --url (overrides config)")
	record := flag.Bool("record", false, "record inbound frames to PostgreSQL")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("pushtail " + version.String())
		return
	}

	// Setup logger
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	// Load config
	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	if *urlFlag != "" {
		cfg.Server.URL = *urlFlag
	}
	if *baseURLFlag != "" {
		cfg.Server.BaseURL = *baseURLFlag
	}
	if *record {
		cfg.Recorder.Enabled = true
	}
	if cfg.Server.URL == "" {
		logger.Error("no connection target: set --url or server.url in the config file")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Optional frame recorder
	var rec *recorder.Recorder
	if cfg.Recorder.Enabled {
		pool, err := database.Connect(ctx, cfg.Recorder.Postgres)
		if err != nil {
			logger.Error("failed to connect recorder database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		rec = recorder.New(cfg.Recorder, pool, logger)
		if err := rec.Start(ctx); err != nil {
			logger.Error("failed to start recorder", "error", err)
			os.Exit(1)
		}
		logger.Info("recording frames", "session", rec.Session())
	}

	// Connection Manager
	header := http.Header{}
	for k, v := range cfg.Server.Headers {
		header.Set(k, v)
	}

	mgr := connection.NewManager(connection.Config{
		URL:                cfg.Server.URL,
		BaseURL:            cfg.Server.BaseURL,
		Header:             header,
		HeartbeatInterval:  cfg.Connection.HeartbeatInterval,
		ReconnectBaseDelay: cfg.Connection.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Connection.ReconnectMaxDelay,
		HandshakeTimeout:   cfg.Connection.HandshakeTimeout,
		WriteTimeout:       cfg.Connection.WriteTimeout,
		OnMessage: func(payload string) {
			fmt.Println(payload)
			if rec != nil {
				rec.Record(payload)
			}
		},
		OnStateChange: func(s connection.State) {
			logger.Info("connection state changed", "state", s)
		},
	}, logger)

	if err := mgr.Connect(); err != nil {
		logger.Error("failed to start connection", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Send stdin lines to the server
	g.Go(func() error {
		lines := make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				select {
				case lines <- scanner.Text():
				case <-gctx.Done():
					return
				}
			}
		}()

		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if err := mgr.Send(line); err != nil {
					if errors.Is(err, connection.ErrNotConnected) {
						logger.Warn("dropped input line, not connected")
						continue
					}
					logger.Warn("send failed", "error", err)
				}
			}
		}
	})

	// Periodic stats
	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				attrs := []any{"connected", mgr.IsConnected()}
				if rec != nil {
					stats := rec.Stats()
					attrs = append(attrs,
						"recorded", stats.Inserts,
						"dropped", stats.Drops,
						"errors", stats.Errors,
					)
				}
				logger.Info("stats", attrs...)
			}
		}
	})

	logger.Info("tailing started - press Ctrl+C to stop", "url", cfg.Server.URL)

	<-ctx.Done()
	g.Wait()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down...")
	mgr.Disconnect()
	if rec != nil {
		rec.Stop(shutdownCtx)
	}

	logger.Info("shutdown complete")
}
