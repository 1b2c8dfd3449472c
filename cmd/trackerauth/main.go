package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting tracker auth service",
		"issuer", cfg.Auth.Issuer,
		"signed_assertion", cfg.Auth.UsesSignedAssertion(),
		"addr", cfg.HTTP.Addr)

	redisClient, err := bootstrap.ConnectRedis(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	core, err := bootstrap.BuildAuthCore(cfg, redisClient, logger)
	if err != nil {
		return err
	}

	server := bootstrap.StartHTTPServer(bootstrap.HTTPServerConfig{
		Addr:   cfg.HTTP.Addr,
		Core:   core,
		Logger: logger,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logger.InfoContext(ctx, "signal received", "signal", sig.String())

	return bootstrap.ShutdownHTTPServer(ctx, server, logger)
}
