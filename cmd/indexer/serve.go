package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/docindex/mcp-server/internal/config"
	dochttp "github.com/docindex/mcp-server/internal/http"
	"github.com/docindex/mcp-server/internal/watch"
	"github.com/docindex/mcp-server/tools"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var (
		addr      string
		file      string
		watchFile bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search index over HTTP",
		Long: `Serves the artifact to the documentation search widget (/search_index.js),
as bare JSON (/search_index.json) and through a small read-only API
(/api/records, /api/outline). With --watch the table is replaced whenever
the documentation build rewrites the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.HTTPAddr = addr
			}
			if cmd.Flags().Changed("file") {
				cfg.IndexFile = file
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch = watchFile
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8089)")
	cmd.Flags().StringVar(&file, "file", "", "search index to serve (default from config)")
	cmd.Flags().BoolVar(&watchFile, "watch", false, "reload the index when the file changes")
	return cmd
}

// runServe blocks until ctx is cancelled or the listener fails
func runServe(ctx context.Context, cfg *config.Config) error {
	store := tools.NewStore(cfg)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: %v", err)
		}
	}()

	err := store.Initialize()
	if err != nil {
		return fmt.Errorf("failed to load search index: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           dochttp.NewRouter(&dochttp.Deps{Source: store}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var watcher *watch.Watcher
	if cfg.Watch {
		watcher, err = watch.New(cfg.IndexFile, cfg.WatchDebounce, func() error {
			_, _, err := store.Reload(false)
			return err
		})
		if err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if watcher != nil {
		g.Go(func() error { return watcher.Run(ctx) })
	}

	g.Go(func() error {
		log.Printf("✓ Serving %s on http://%s", cfg.IndexFile, cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Printf("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
