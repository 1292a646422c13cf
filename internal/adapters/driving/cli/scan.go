package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir-id]",
	Short: "Scan watched directories now",
	Long: `Scans one directory when an ID is given. Without an ID every enabled
directory is scanned immediately, ignoring scan intervals. Use --due to scan
only the directories whose interval has elapsed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

// scanDue is a flag for the scan command.
var scanDue bool

// scanFiles lists every classified file.
var scanFiles bool

func init() {
	scanCmd.Flags().BoolVar(&scanDue, "due", false, "Only scan directories whose interval has elapsed")
	scanCmd.Flags().BoolVar(&scanFiles, "files", false, "List every classified file")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(args) == 1 {
		if scannerService == nil {
			return errors.New("scanner not configured")
		}
		result, err := scannerService.ScanDirectory(ctx, args[0])
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		printScanResult(cmd, result)
		return nil
	}

	if scanDue {
		if scannerService == nil {
			return errors.New("scanner not configured")
		}
		results, err := scannerService.ScanAll(ctx, true)
		printScanResults(cmd, results)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		return nil
	}

	if schedulerService == nil {
		return errors.New("scheduler not configured")
	}
	run := schedulerService.ForceRun(ctx)
	printScanResults(cmd, run.Scans)
	if !run.Success {
		return fmt.Errorf("scan failed: %s", run.Error)
	}
	return nil
}

func printScanResults(cmd *cobra.Command, results []domain.ScanResult) {
	if len(results) == 0 {
		cmd.Println("No directories scanned.")
		return
	}
	for i := range results {
		printScanResult(cmd, &results[i])
	}
}

func printScanResult(cmd *cobra.Command, r *domain.ScanResult) {
	cmd.Printf("Scanned %s (%s) in %s\n", r.DirectoryName, r.DirectoryID, r.Duration.Round(time.Millisecond))
	cmd.Printf("  %d files: %d new, %d modified, %d unchanged, %d excluded, %d errors\n",
		r.Total, r.New, r.Modified, r.Unchanged, r.Excluded, r.Errors)
	if r.Missing > 0 {
		cmd.Printf("  %d missing\n", r.Missing)
	}
	cmd.Printf("  Processed: %d\n", r.Processed)

	for _, f := range r.Files {
		if !scanFiles && f.Classification != domain.ClassError {
			continue
		}
		line := fmt.Sprintf("    %-9s %s", f.Classification, f.FilePath)
		if f.Reason != "" {
			line += " (" + f.Reason + ")"
		}
		cmd.Println(line)
	}
}
