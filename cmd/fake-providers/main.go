// Package main serves a synthetic record collector and song info provider
// for local development and load checks.
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

	"github.com/spf13/cobra"

	"github.com/minty99/maistats/internal/testprovider"
	"github.com/minty99/maistats/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr      string
		cfg       testprovider.Config
		latency   time.Duration
		noVersion bool
	)
	cmd := &cobra.Command{
		Use:          "fake-providers",
		Short:        "Serve deterministic synthetic maimai records",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []testprovider.Option
			if latency > 0 {
				opts = append(opts, testprovider.WithLatency(latency))
			}
			if noVersion {
				opts = append(opts, testprovider.WithoutVersions())
			}
			return serve(cmd.Context(), addr, testprovider.Generate(cfg), opts...)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":3000", "listen address for both providers")
	cmd.Flags().IntVar(&cfg.Songs, "songs", testprovider.DefaultSongs, "catalog size")
	cmd.Flags().IntVar(&cfg.PlaysPerSong, "plays", testprovider.DefaultPlaysPerSong, "playlog entries per song")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", testprovider.DefaultSeed, "generator seed")
	cmd.Flags().IntVar(&cfg.UnresolvedEach, "unresolved-each", 0, "drop every Nth song from the catalog")
	cmd.Flags().DurationVar(&latency, "latency", 0, "delay added to every response")
	cmd.Flags().BoolVar(&noVersion, "no-versions", false, "answer the versions endpoint with 404")
	return cmd
}

func serve(ctx context.Context, addr string, ds *testprovider.Dataset, opts ...testprovider.Option) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Named("fake-providers")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           testprovider.NewServer(ds, opts...).Handler(),
		ReadHeaderTimeout: time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "serving fake providers",
		logger.String("addr", addr),
		logger.Int("songs", len(ds.Catalog)+len(ds.Missing)),
		logger.Int("scores", len(ds.Scores)),
		logger.Int("playlogs", len(ds.Playlogs)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
