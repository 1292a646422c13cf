package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// shutdownTimeout bounds the HTTP server's graceful shutdown.
const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitoring scheduler in the foreground",
	Long: `Starts the scheduler: one monitoring cycle runs immediately, then due
directories are scanned every scheduler.check_interval until interrupted.

Use --http to also serve the admin API and --watch to scan a directory as
soon as files in it change.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("http", false, "Serve the admin HTTP API")
	runCmd.Flags().String("addr", "", "HTTP listen address (default: http.addr setting)")
	runCmd.Flags().Bool("watch", false, "Scan directories when their files change")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	if schedulerService == nil {
		return errors.New("scheduler not configured")
	}
	serveHTTP, _ := cmd.Flags().GetBool("http")
	watch, _ := cmd.Flags().GetBool("watch")
	if watch && changeWatcher == nil {
		return errors.New("file watching not available")
	}

	var srv *http.Server
	if serveHTTP {
		var err error
		if srv, err = newHTTPServer(cmd); err != nil {
			return err
		}
	}

	logger.SetTimestamps(true)
	ctx := cmd.Context()
	if err := schedulerService.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if srv != nil {
		g.Go(func() error {
			logger.Info("admin API listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}
	if watch {
		g.Go(func() error {
			return changeWatcher.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown: %v", err)
			}
		}
		return schedulerService.Stop()
	})

	return g.Wait()
}

func newHTTPServer(cmd *cobra.Command) (*http.Server, error) {
	addr, _ := cmd.Flags().GetString("addr")
	var token string
	if settingsService != nil {
		s, err := settingsService.Get()
		if err != nil {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		token = s.HTTP.Token
		if addr == "" {
			addr = s.HTTP.Addr
		}
	}
	if addr == "" {
		return nil, errors.New("--addr is required when settings are not available")
	}

	handler, err := httpapi.NewHandler(httpapi.Deps{
		Directories: directoryService,
		Scanner:     scannerService,
		Scheduler:   schedulerService,
		Token:       token,
	})
	if err != nil {
		return nil, fmt.Errorf("build admin API: %w", err)
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
