package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/tui"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive monitoring dashboard",
	Long: `Opens a terminal dashboard listing the watched directories with their file
counts. Select a directory to browse its files and their processing status.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Show files of a directory
  s        - Scan the selected directory
  R        - Scan every enabled directory now
  f        - Cycle the status filter
  r        - Reload
  Esc      - Back
  ?        - Toggle help
  q        - Quit

Use --scheduler to run the monitoring scheduler while the dashboard is open.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().Duration("refresh", tui.DefaultRefreshInterval, "How often counts are reloaded (0 disables)")
	dashboardCmd.Flags().Bool("scheduler", false, "Run the monitoring scheduler in the background")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	if directoryService == nil {
		return errors.New("directory service not configured")
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in dashboard: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	refresh, _ := cmd.Flags().GetDuration("refresh")
	withScheduler, _ := cmd.Flags().GetBool("scheduler")

	ctx := cmd.Context()
	if withScheduler {
		if schedulerService == nil {
			return errors.New("scheduler not configured")
		}
		// Scheduler output would corrupt the alternate screen.
		logger.SetOutput(io.Discard)
		defer logger.SetOutput(os.Stderr)
		if err := schedulerService.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() {
			if err := schedulerService.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "scheduler stop error: %v\n", err)
			}
		}()
	}

	app, err := tui.NewApp(&tui.Ports{
		Directories: directoryService,
		Scanner:     scannerService,
		Scheduler:   schedulerService,
	})
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	if err := app.WithContext(ctx).WithRefreshInterval(refresh).Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}
