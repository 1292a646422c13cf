package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduler state and file counts",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

// statusHistory is a flag for the status command.
var statusHistory int

func init() {
	statusCmd.Flags().IntVar(&statusHistory, "history", 0, "Also show the last N monitoring cycles")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if directoryService == nil {
		return errors.New("directory service not configured")
	}
	ctx := cmd.Context()

	if schedulerService != nil {
		st := schedulerService.Status()
		cmd.Println("[Scheduler]")
		if st.Running {
			cmd.Printf("  State:    running, every %s\n", st.CheckInterval)
		} else {
			cmd.Printf("  State:    stopped (interval %s)\n", st.CheckInterval)
		}
		if st.NextRunEstimate != nil {
			cmd.Printf("  Next run: %s\n", formatTime(st.NextRunEstimate))
		}
		if st.LastCycle != nil {
			cmd.Printf("  Last run: %s\n", describeCycle(st.LastCycle))
		}
		cmd.Println()
	}

	overview, err := directoryService.Overview(ctx)
	if err != nil {
		return fmt.Errorf("failed to get overview: %w", err)
	}

	cmd.Println("[Directories]")
	cmd.Printf("  Active: %d of %d\n", overview.ActiveDirectories, overview.TotalDirectories)
	cmd.Printf("  Last scan: %s\n", formatTime(overview.LastScanAt))
	cmd.Println()
	cmd.Println("[Files]")
	printStats(cmd, overview.Files, "  ")

	if statusHistory <= 0 {
		return nil
	}
	if cycleHistory == nil {
		return errors.New("cycle history not available")
	}
	cycles, err := cycleHistory.History(ctx, statusHistory)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	cmd.Println()
	cmd.Println("[History]")
	if len(cycles) == 0 {
		cmd.Println("  No cycles recorded.")
	}
	for i := range cycles {
		cmd.Printf("  %s\n", describeCycle(&cycles[i]))
	}
	return nil
}

func describeCycle(c *domain.CycleResult) string {
	outcome := "ok"
	if !c.Success {
		outcome = "failed: " + c.Error
	}
	return fmt.Sprintf("%s %s, %d directories, %d files processed, %s",
		c.StartedAt.Local().Format(timeFormat), c.Trigger, c.DirectoriesScanned, c.FilesProcessed, outcome)
}
