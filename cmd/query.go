package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minty99/maistats/internal/adapters/cli"
	service "github.com/minty99/maistats/internal/app"
	"github.com/minty99/maistats/internal/domain/query"
	"github.com/minty99/maistats/pkg/logger"
)

const defaultListLimit = 50

type listFlags struct {
	query  string
	sort   string
	asc    bool
	limit  int
	offset int
}

func (f *listFlags) register(cmd *cobra.Command, defaultSort string) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "title search text")
	cmd.Flags().StringVar(&f.sort, "sort", defaultSort, "sort key")
	cmd.Flags().BoolVar(&f.asc, "asc", false, "sort ascending")
	cmd.Flags().IntVar(&f.limit, "limit", defaultListLimit, "maximum rows printed; 0 prints all")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "rows skipped before printing")
}

// parseSort validates the sort flag against keys.
func parseSort[K ~string](raw string, asc bool, keys []K) (query.SortSpec[K], error) {
	key := K(raw)
	if !slices.Contains(keys, key) {
		return query.SortSpec[K]{}, fmt.Errorf("unknown sort key %q (valid: %v)", raw, keys)
	}
	return query.SortSpec[K]{Key: key, Desc: !asc}, nil
}

func window[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[max(offset, 0):]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// withSession loads configuration, runs one refresh and hands the ready
// session to fn. Logs go to stderr so stdout carries only the table.
func withSession(cmd *cobra.Command, refresh bool, fn func(ctx context.Context, sess *service.Session, out io.Writer) error) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if lvl := strings.ToLower(cfg.LogLevel); lvl == "" || lvl == "info" {
		_ = logger.SetLevelString("warn")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sess := newSession(cfg, store, false)
	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.Stop()

	if refresh {
		if err := sess.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}
	}
	return fn(ctx, sess, cmd.OutOrStdout())
}

func newScoresCmd() *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Print best scores using the saved score filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := parseSort(f.sort, f.asc, query.ScoreSortKeys)
			if err != nil {
				return err
			}
			return withSession(cmd, true, func(_ context.Context, sess *service.Session, out io.Writer) error {
				filter := sess.ScoreFilter()
				filter.Query = f.query
				res := sess.QueryScores(filter, spec)
				rows := window(res.Rows, f.offset, f.limit)
				if err := cli.ScoreTable(rows).Render(out); err != nil {
					return err
				}
				_, err := fmt.Fprintf(out, "\n%s rows\n", cli.CountLabel(len(res.Rows), res.Total))
				return err
			})
		},
	}
	f.register(cmd, string(query.DefaultScoreSort().Key))
	return cmd
}

func newPlaylogsCmd() *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "playlogs",
		Short: "Print recent plays using the saved playlog filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := parseSort(f.sort, f.asc, query.PlaylogSortKeys)
			if err != nil {
				return err
			}
			return withSession(cmd, true, func(_ context.Context, sess *service.Session, out io.Writer) error {
				filter := sess.PlaylogFilter()
				filter.Query = f.query
				res := sess.QueryPlaylogs(filter, spec)
				rows := window(res.Rows, f.offset, f.limit)
				if err := cli.PlaylogTable(rows).Render(out); err != nil {
					return err
				}
				_, err := fmt.Fprintf(out, "\n%s rows\n", cli.CountLabel(len(res.Rows), res.Total))
				return err
			})
		},
	}
	f.register(cmd, string(query.DefaultPlaylogSort().Key))
	return cmd
}

func newDetailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detail TITLE",
		Short: "Print every chart record of one song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, false, func(ctx context.Context, sess *service.Session, out io.Writer) error {
				d, err := sess.OpenDetail(ctx, args[0])
				if err != nil {
					return fmt.Errorf("detail %q: %w", args[0], err)
				}
				if _, err := fmt.Fprintf(out, "%s\n\n", d.Title); err != nil {
					return err
				}
				return cli.DetailTable(d.Rows).Render(out)
			})
		},
	}
}

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the filter values present in the current records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, true, func(_ context.Context, sess *service.Session, out io.Writer) error {
				return cli.WriteOptions(out, sess.Options())
			})
		},
	}
}
