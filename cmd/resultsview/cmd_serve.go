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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"resultsview/internal/logging"
	"resultsview/internal/server"
	"resultsview/internal/view"
	"resultsview/internal/watch"
)

const (
	sessionIdle   = time.Hour
	pruneInterval = 5 * time.Minute
)

func newServeCmd(a *app) *cobra.Command {
	var flags struct {
		addr  string
		watch bool
	}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the results dashboard over HTTP",
		Long: `Serves the dashboard. Each browser gets its own session; selecting a folder
in the page uploads it into that session only. With --dir the folder is
preloaded for every new session, and --watch reloads it when files change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = flags.addr
			}
			if cmd.Flags().Changed("watch") {
				a.cfg.Watch = flags.watch
			}
			return a.serve(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.addr, "addr", "127.0.0.1:8080", "Listen address")
	f.BoolVar(&flags.watch, "watch", false, "Reload --dir when its files change")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.Watch && a.cfg.Dir == "" {
		return errors.New("--watch requires --dir")
	}
	log := logging.New("server")

	remote, err := a.discover(ctx)
	if err != nil {
		return err
	}
	upload, err := a.localUpload()
	if err != nil {
		return err
	}
	reg := server.NewRegistry(remote, upload, log)

	b := view.NewBuilder(logging.New("view"))
	b.ShapCases = a.cfg.ShapCases
	b.ReportCases = a.cfg.ReportCases
	srv, err := server.New(server.Config{
		Registry:       reg,
		Builder:        b,
		Candidates:     a.cfg.Candidates,
		MaxUploadBytes: a.cfg.MaxUploadBytes,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Watch {
		w, err := watch.New(a.cfg.Dir, a.cfg.WatchDebounce.Std(), reg.ReplaceDefaultUpload, logging.New("watch"))
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	httpSrv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("serving dashboard", slog.String("addr", "http://"+a.cfg.Addr), slog.String("base", reg.Remote().Base))
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		tick := time.NewTicker(pruneInterval)
		defer tick.Stop()
		for {
			select {
			case <-gctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			case <-tick.C:
				if n := reg.Prune(sessionIdle); n > 0 {
					log.Debug("idle sessions pruned", slog.Int("count", n))
				}
			}
		}
	})
	return g.Wait()
}
