// Package main provides the maistats entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/minty99/maistats/internal/adapters/gateway"
	"github.com/minty99/maistats/internal/adapters/http/api"
	"github.com/minty99/maistats/internal/adapters/http/swagger"
	"github.com/minty99/maistats/internal/adapters/repository"
	service "github.com/minty99/maistats/internal/app"
	"github.com/minty99/maistats/internal/config"
	"github.com/minty99/maistats/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

var (
	configPath string
	serveAddr  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "maistats",
		Short:        "Score and playlog explorer for maimai DX records",
		SilenceUsage: true,
		RunE:         runServeCmd,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides "+config.EnvConfigFile+")")
	rootCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newScoresCmd())
	rootCmd.AddCommand(newPlaylogsCmd())
	rootCmd.AddCommand(newDetailCmd())
	rootCmd.AddCommand(newOptionsCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP explorer (default)",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address")
	return cmd
}

// loadConfig loads configuration and installs the global logger writing to out.
func loadConfig(ctx context.Context, out io.Writer) (*config.Config, error) {
	if configPath != "" {
		if err := os.Setenv(config.EnvConfigFile, configPath); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts := []logger.Option{logger.WithOutput(out)}
	if cfg.LogFile != "" {
		opts = append(opts, logger.WithFile(cfg.LogFile))
	}
	if err := logger.Init(opts...); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// openStore opens the preference store named by cfg. An empty path keeps
// preferences in memory for the life of the process.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.PrefsPath == "" {
		return repository.NewMemoryStore(nil), nil
	}
	store, err := repository.OpenSQLite(ctx, cfg.PrefsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	return store, nil
}

// newSession assembles a session from cfg. scheduled controls whether the
// refresh schedule and the start-up refresh apply.
func newSession(cfg *config.Config, store repository.Store, scheduled bool) *service.Session {
	opts := []service.Option{
		service.WithLogger(logger.Named("session")),
		service.WithGateway(gateway.New(
			gateway.WithTimeout(cfg.RequestTimeout()),
			gateway.WithLogger(logger.Named("gateway")),
		)),
		service.WithStore(store),
		service.WithDefaultEndpoints(service.Endpoints{
			SongInfoURL:        cfg.SongInfoURL,
			RecordCollectorURL: cfg.RecordCollectorURL,
		}),
		service.WithConcurrency(cfg.MetadataConcurrency),
		service.WithRecentLimit(cfg.RecentLimit),
	}
	if scheduled {
		opts = append(opts,
			service.WithSchedule(cfg.RefreshSchedule),
			service.WithRefreshOnStart(cfg.RefreshOnStart),
		)
	} else {
		opts = append(opts, service.WithRefreshOnStart(false))
	}
	return service.New(opts...)
}

func newMux(ctx context.Context, sess *service.Session) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(sess).Register(ctx, mux)
	return mux
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to sync logs:", err)
		}
	}()
	log := logger.Get()

	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "close preferences failed", logger.Error(err))
		}
	}()

	sess := newSession(cfg, store, true)
	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, sess),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}
