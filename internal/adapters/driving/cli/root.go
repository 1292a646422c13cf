// Package cli provides the cobra command tree for corpuswatch.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driving"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// noBootstrap marks commands that run without services.
const noBootstrap = "no-bootstrap"

// Global flags.
var (
	verbose   bool
	ephemeral bool
)

// Services used by the commands. Set by the bootstrap function, or
// directly by tests.
var (
	directoryService driving.DirectoryService
	scannerService   driving.Scanner
	schedulerService driving.MonitoringScheduler
	settingsService  driving.SettingsService
	extractionCache  driven.ExtractionCache
	cycleHistory     HistoryReader
	changeWatcher    Runner
	closeServices    func() error
)

// HistoryReader reads past monitoring cycles, newest first.
type HistoryReader interface {
	History(ctx context.Context, limit int) ([]domain.CycleResult, error)
}

// Runner is a long-running component stopped by cancelling ctx.
type Runner interface {
	Run(ctx context.Context) error
}

// Options are the global flags handed to the bootstrap function.
type Options struct {
	// Ephemeral keeps all state in memory.
	Ephemeral bool
}

// Services are the components built for one invocation.
type Services struct {
	Directories driving.DirectoryService
	Scanner     driving.Scanner
	Scheduler   driving.MonitoringScheduler
	Settings    driving.SettingsService
	Cache       driven.ExtractionCache

	// History is optional.
	History HistoryReader

	// Watcher is optional and only used by "run --watch".
	Watcher Runner

	// Close releases stores and connections.
	Close func() error
}

// Bootstrap builds the services after flags are parsed.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var bootstrap Bootstrap

// SetBootstrap registers the function that wires services.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "corpuswatch",
	Short: "Keep a derived knowledge corpus in sync with document folders",
	Long: `corpuswatch watches directories of documents, detects new and changed
files, derives question and answer records from their text and refreshes
the downstream corpus when something changed.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep all state in memory")
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx available to subcommands
// and releases the services afterwards.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeErr := teardown(); err == nil {
		err = closeErr
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil || cmd.Annotations[noBootstrap] == "true" {
		return nil
	}

	svc, err := bootstrap(cmd.Context(), Options{Ephemeral: ephemeral})
	if err != nil {
		return fmt.Errorf("initialise services: %w", err)
	}
	useServices(svc)
	return nil
}

func teardown() error {
	if closeServices == nil {
		return nil
	}
	closeFn := closeServices
	closeServices = nil
	return closeFn()
}

func useServices(s *Services) {
	directoryService = s.Directories
	scannerService = s.Scanner
	schedulerService = s.Scheduler
	settingsService = s.Settings
	extractionCache = s.Cache
	cycleHistory = s.History
	changeWatcher = s.Watcher
	closeServices = s.Close
}
