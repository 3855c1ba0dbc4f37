package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fatesmith/fatesmith/internal/cli/config"
	"github.com/fatesmith/fatesmith/internal/history"
	"github.com/fatesmith/fatesmith/internal/watch"
	"github.com/fatesmith/fatesmith/internal/web/server"
)

var (
	serveVerbose bool
	serveWatch   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the evaluation API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg.CollectionsDir)
		if err != nil {
			return err
		}

		logger, err := buildLogger(serveVerbose)
		if err != nil {
			return err
		}
		defer logger.Sync()

		var store *history.Store
		if cfg.History.Path != "" {
			store, err = history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Prune(cfg.History.Keep); err != nil {
				logger.Warn("history prune failed", zap.Error(err))
			}
		}

		srv := server.New(server.Config{
			Addr:     cfg.Addr(),
			Registry: reg,
			History:  store,
			Logger:   logger,
		})

		if serveWatch {
			w, err := watch.New(cfg.CollectionsDir, logger, func() error {
				next, err := loadRegistry(cfg.CollectionsDir)
				if err != nil {
					return err
				}
				srv.Reload(next)
				return nil
			})
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-stop:
			logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func init() {
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "verbose development logging")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "reload collections when files change")
}
