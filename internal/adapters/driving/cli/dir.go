package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

const timeFormat = "2006-01-02 15:04:05"

var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Manage watched directories",
	Long:  `Add, inspect, update or remove the directories corpuswatch monitors.`,
}

var dirAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Watch a new directory",
	Long: `Adds a directory to the watch list. New directories are enabled,
scanned every hour and use the default file and content filters unless
overridden with flags.`,
	Args: cobra.ExactArgs(1),
	RunE: runDirAdd,
}

var dirListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched directories",
	Args:  cobra.NoArgs,
	RunE:  runDirList,
}

var dirShowCmd = &cobra.Command{
	Use:   "show [dir-id]",
	Short: "Show directory configuration and file counts",
	Args:  cobra.ExactArgs(1),
	RunE:  runDirShow,
}

var dirUpdateCmd = &cobra.Command{
	Use:   "update [dir-id]",
	Short: "Change a directory's configuration",
	Long:  `Updates only the settings given as flags. Everything else is kept.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDirUpdate,
}

var dirRemoveCmd = &cobra.Command{
	Use:   "remove [dir-id]",
	Short: "Stop watching a directory",
	Long:  `Removes a directory and the records of its monitored files. Files on disk are not touched.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDirRemove,
}

var dirFilesCmd = &cobra.Command{
	Use:   "files [dir-id]",
	Short: "List the monitored files of a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runDirFiles,
}

// filesStatus is a flag for the files command.
var filesStatus string

func init() {
	addDirectoryFlags(dirAddCmd)
	addDirectoryFlags(dirUpdateCmd)
	dirUpdateCmd.Flags().String("path", "", "New absolute path of the directory")
	dirFilesCmd.Flags().StringVarP(&filesStatus, "status", "s", "", "Only show files with this status")

	dirCmd.AddCommand(dirAddCmd)
	dirCmd.AddCommand(dirListCmd)
	dirCmd.AddCommand(dirShowCmd)
	dirCmd.AddCommand(dirUpdateCmd)
	dirCmd.AddCommand(dirRemoveCmd)
	dirCmd.AddCommand(dirFilesCmd)
	rootCmd.AddCommand(dirCmd)
}

func addDirectoryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("name", "n", "", "Display name (default: the directory's base name)")
	f.Duration("interval", domain.DefaultScanInterval, "Minimum time between scheduled scans")
	f.Bool("enabled", true, "Scan the directory")
	f.Bool("auto-refresh", true, "Refresh the corpus after files are processed")
	f.StringSlice("extensions", nil, "Allowed file extensions, e.g. .pdf,.md (empty admits any)")
	f.StringSlice("exclude", nil, "Glob patterns of files to skip")
	f.Int64("max-size", 0, "Maximum file size in bytes (0 = unlimited)")
	f.Int("min-length", 0, "Minimum content length in characters")
	f.Int("max-length", 0, "Maximum content length in characters (0 = unlimited)")
	f.StringSlice("exclude-keywords", nil, "Skip content containing any of these words")
	f.StringSlice("require-keywords", nil, "Require content to contain one of these words")
}

// applyDirectoryFlags copies the flags that were set on the command line into dir.
func applyDirectoryFlags(cmd *cobra.Command, dir *domain.WatchedDirectory) error {
	f := cmd.Flags()
	var err error
	if f.Changed("path") {
		path, _ := f.GetString("path")
		if dir.Path, err = filepath.Abs(path); err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
	}
	if f.Changed("name") {
		dir.Name, _ = f.GetString("name")
	}
	if f.Changed("interval") {
		dir.ScanInterval, _ = f.GetDuration("interval")
	}
	if f.Changed("enabled") {
		dir.Enabled, _ = f.GetBool("enabled")
	}
	if f.Changed("auto-refresh") {
		dir.AutoRefresh, _ = f.GetBool("auto-refresh")
	}
	if f.Changed("extensions") {
		dir.FileFilters.AllowedExtensions, _ = f.GetStringSlice("extensions")
	}
	if f.Changed("exclude") {
		dir.FileFilters.ExcludePatterns, _ = f.GetStringSlice("exclude")
	}
	if f.Changed("max-size") {
		dir.FileFilters.MaxFileSizeBytes, _ = f.GetInt64("max-size")
	}
	if f.Changed("min-length") {
		dir.ContentFilters.MinContentLength, _ = f.GetInt("min-length")
	}
	if f.Changed("max-length") {
		dir.ContentFilters.MaxContentLength, _ = f.GetInt("max-length")
	}
	if f.Changed("exclude-keywords") {
		dir.ContentFilters.ExcludeKeywords, _ = f.GetStringSlice("exclude-keywords")
	}
	if f.Changed("require-keywords") {
		dir.ContentFilters.RequireKeywords, _ = f.GetStringSlice("require-keywords")
	}
	return nil
}

func runDirAdd(cmd *cobra.Command, args []string) error {
	if directoryService == nil {
		return errors.New("directory service not configured")
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := domain.NewWatchedDirectory(path, "", time.Now())
	if err := applyDirectoryFlags(cmd, &dir); err != nil {
		return err
	}

	added, err := directoryService.Add(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("failed to add directory: %w", err)
	}

	cmd.Printf("Watching %s\n", added.Path)
	cmd.Printf("  ID:       %s\n", added.ID)
	cmd.Printf("  Name:     %s\n", added.Name)
	cmd.Printf("  Interval: %s\n", added.ScanInterval)
	cmd.Println()
	cmd.Printf("Run 'corpuswatch scan %s' to scan it now.\n", added.ID)
	return nil
}

func runDirList(cmd *cobra.Command, _ []string) error {
	if directoryService == nil {
		return errors.New("directory service not configured")
	}

	dirs, err := directoryService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list directories: %w", err)
	}

	if len(dirs) == 0 {
		cmd.Println("No directories are watched. Add one with 'corpuswatch dir add <path>'.")
		return nil
	}

	cmd.Println("Watched directories:")
	cmd.Println()
	for i := range dirs {
		d := &dirs[i]
		state := "enabled"
		if !d.Enabled {
			state = "disabled"
		}
		cmd.Printf("  %s\n", d.ID)
		cmd.Printf("    Name: %s (%s)\n", d.Name, state)
		cmd.Printf("    Path: %s\n", d.Path)
		cmd.Printf("    Last scan: %s, every %s\n", formatTime(d.LastScanAt), d.ScanInterval)
		cmd.Println()
	}

	cmd.Printf("Total: %d directories\n", len(dirs))
	return nil
}

func runDirShow(cmd *cobra.Command, args []string) error {
	if directoryService == nil {
		return errors.New("directory service not configured")
	}

	ctx := cmd.Context()
	dir, err := directoryService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get directory: %w", err)
	}
	stats, err := directoryService.Stats(ctx, dir.ID)
	if err != nil {
		return fmt.Errorf("failed to count files: %w", err)
	}

	cmd.Printf("Directory: %s\n\n", dir.ID)
	cmd.Printf("  Name:         %s\n", dir.Name)
	cmd.Printf("  Path:         %s\n", dir.Path)
	cmd.Printf("  Enabled:      %t\n", dir.Enabled)
	cmd.Printf("  Auto refresh: %t\n", dir.AutoRefresh)
	cmd.Printf("  Interval:     %s\n", dir.ScanInterval)
	cmd.Printf("  Last scan:    %s\n", formatTime(dir.LastScanAt))
	if dir.Enabled {
		cmd.Printf("  Next scan:    %s\n", dir.NextScanAt().Format(timeFormat))
	}

	cmd.Println("\n  File filters:")
	cmd.Printf("    Extensions: %s\n", listOrAny(dir.FileFilters.AllowedExtensions))
	cmd.Printf("    Exclude:    %s\n", listOrNone(dir.FileFilters.ExcludePatterns))
	cmd.Printf("    Max size:   %s\n", formatLimit(dir.FileFilters.MaxFileSizeBytes, "bytes"))

	cmd.Println("\n  Content filters:")
	cmd.Printf("    Min length:       %d\n", dir.ContentFilters.MinContentLength)
	cmd.Printf("    Max length:       %s\n", formatLimit(int64(dir.ContentFilters.MaxContentLength), "characters"))
	cmd.Printf("    Exclude keywords: %s\n", listOrNone(dir.ContentFilters.ExcludeKeywords))
	cmd.Printf("    Require keywords: %s\n", listOrNone(dir.ContentFilters.RequireKeywords))

	cmd.Println("\n  Files:")
	printStats(cmd, stats, "    ")
	return nil
}

func runDirUpdate(cmd *cobra.Command, args []string) error {
	if directoryService == nil {
		return errors.New("directory service not configured")
	}

	ctx := cmd.Context()
	dir, err := directoryService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get directory: %w", err)
	}
	if err := applyDirectoryFlags(cmd, dir); err != nil {
		return err
	}

	updated, err := directoryService.Update(ctx, *dir)
	if err != nil {
		return fmt.Errorf("failed to update directory: %w", err)
	}

	cmd.Printf("Directory %s updated.\n", updated.ID)
	return nil
}

func runDirRemove(cmd *cobra.Command, args []string) error {
	if directoryService == nil {
		return errors.New("directory service not configured")
	}

	if err := directoryService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove directory: %w", err)
	}

	cmd.Printf("Directory %s removed.\n", args[0])
	return nil
}

func runDirFiles(cmd *cobra.Command, args []string) error {
	if directoryService == nil {
		return errors.New("directory service not configured")
	}
	if filesStatus != "" && !domain.FileStatus(filesStatus).IsValid() {
		return fmt.Errorf("unknown status %q", filesStatus)
	}

	files, err := directoryService.ListFiles(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	shown := 0
	for i := range files {
		f := &files[i]
		if filesStatus != "" && f.Status.String() != filesStatus {
			continue
		}
		shown++
		cmd.Printf("  [%s] %s\n", f.Status, f.FilePath)
		if f.Analysis != nil {
			cmd.Printf("    %s, quality %d, %d records\n", f.Analysis.ContentType, f.Analysis.QualityScore, f.Analysis.DerivedCount)
		}
		if f.LastError != "" {
			cmd.Printf("    %s\n", f.LastError)
		}
	}

	if shown == 0 {
		cmd.Println("No monitored files.")
		return nil
	}
	cmd.Printf("\nTotal: %d files\n", shown)
	return nil
}

func printStats(cmd *cobra.Command, s domain.DirectoryStats, indent string) {
	cmd.Printf("%sTotal:      %d\n", indent, s.Total)
	cmd.Printf("%sProcessed:  %d\n", indent, s.Processed)
	cmd.Printf("%sPending:    %d\n", indent, s.Pending+s.Processing)
	cmd.Printf("%sExcluded:   %d\n", indent, s.Excluded)
	cmd.Printf("%sErrors:     %d\n", indent, s.Errors)
	cmd.Printf("%sMissing:    %d\n", indent, s.Missing)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(timeFormat)
}

func formatLimit(n int64, unit string) string {
	if n <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d %s", n, unit)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return fmt.Sprint(items)
}

func listOrAny(items []string) string {
	if len(items) == 0 {
		return "(any)"
	}
	return fmt.Sprint(items)
}
