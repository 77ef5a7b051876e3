package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/switchconnector/internal/config"
	"github.com/HerbHall/switchconnector/internal/event"
	"github.com/HerbHall/switchconnector/internal/metrics"
	"github.com/HerbHall/switchconnector/internal/plugin"
	"github.com/HerbHall/switchconnector/internal/server"
	"github.com/HerbHall/switchconnector/internal/switchport"
	"github.com/HerbHall/switchconnector/internal/vault"
	"github.com/HerbHall/switchconnector/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	v, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(v)

	logger, err := newLogger(cfg.GetString("mode"), cfg.GetString("log.level"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("SwitchConnector server starting", zap.String("version", version.Short()))

	bus := event.NewBus(logger.Named("event"))
	m := metrics.New()
	credentials := vault.NewStore()

	registry := plugin.NewRegistry(logger)

	// Register all plugins (compile-time composition). The vault goes first so
	// its inventory is loaded before switches serve requests.
	plugins := []plugin.Plugin{
		vault.New(credentials, cfg.GetString("inventory.file")),
		switchport.New(credentials.Lookup, switchport.WithMetrics(m)),
	}
	for _, p := range plugins {
		if err := registry.Register(p); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := registry.InitAll(ctx, cfg, bus); err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}
	if err := registry.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	addr := net.JoinHostPort(cfg.GetString("server.host"), cfg.GetString("server.port"))
	srv := server.New(addr, registry, m.Handler(), logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("SwitchConnector server ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	registry.StopAll()

	logger.Info("SwitchConnector server stopped")
}

// newLogger builds the production logger in production mode and the
// development logger otherwise. A recognised level overrides the default.
func newLogger(mode, level string) (*zap.Logger, error) {
	var zc zap.Config
	if mode == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	switch level {
	case "debug", "info", "warn", "error":
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zc.Build()
}
