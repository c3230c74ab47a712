// Command server runs the Shopnex product catalog API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"shopnex/internal/catalog"
	"shopnex/internal/config"
	"shopnex/internal/httpapi"
	"shopnex/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "env",
			Usage: "env files to load, later ones win",
			// from cmd/server the repository root is two levels up
			Value: []string{".env", "../.env", "../../.env"},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "optional YAML config file",
			Sources: cli.EnvVars("CONFIG_FILE"),
		},
	}

	app := &cli.Command{
		Name:   "server",
		Usage:  "Shopnex product catalog API",
		Flags:  flags,
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serveAction,
			},
			{
				Name:   "migrate",
				Usage:  "create tables or indexes for the configured store",
				Action: migrateAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		slog.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cli.Command) (config.Config, error) {
	if err := config.LoadEnvFiles(cmd.StringSlice("env")...); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	}, os.Stdout)
	return cfg, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	slog.Info("service_starting", "backend", cfg.StoreBackend, "addr", cfg.Addr())

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer st.close()

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	svc := catalog.NewService(st, cfg.StoreTimeout)
	router := httpapi.NewRouter(httpapi.NewHandler(svc), httpapi.RouterOptions{
		Logger:         slog.Default(),
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutdown_signal")

	ctxSrv, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctxSrv); err != nil {
		slog.Error("http_shutdown_error", "error", err)
	}
	slog.Info("service_stopped")
	return nil
}

func migrateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// migrations run explicitly below
	cfg.Postgres.AutoMigrate = false
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()
	if err := st.migrate(ctx); err != nil {
		return err
	}
	slog.Info("migrate_complete", "backend", cfg.StoreBackend)
	return nil
}
