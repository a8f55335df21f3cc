package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"finitefield.org/cinema-web/internal/config"
	"finitefield.org/cinema-web/internal/logging"
	mw "finitefield.org/cinema-web/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "cinema-web: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("cinema-web", pflag.ContinueOnError)
	var (
		addr    = flags.String("addr", "", "HTTP listen address (overrides CINEMA_ADDR/CINEMA_PORT/PORT)")
		envFile = flags.String("env-file", ".env", "optional .env file with local overrides")
		p       paths
	)
	flags.StringVar(&p.Templates, "templates", "templates", "templates directory")
	flags.StringVar(&p.Public, "public", "public", "public assets directory")
	flags.StringVar(&p.Locales, "locales", "locales", "locale dictionaries directory")
	flags.StringVar(&p.Content, "content", "content", "markdown content directory")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(config.WithEnvFile(*envFile))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if ephemeral := mw.ConfigureSessions(cfg.Site.SessionSigningKey, cfg.Production()); ephemeral {
		logger.Warn("session signing key not set; using an ephemeral key")
	}

	a, err := newApp(cfg, p, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	if a.configErr != nil {
		logger.Warn("service not configured; serving the configuration page", zap.Error(a.configErr))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening",
			zap.String("addr", srv.Addr),
			zap.Bool("dev", cfg.Site.Dev),
			zap.String("env", cfg.Site.Environment),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
