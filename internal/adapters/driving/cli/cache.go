package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extraction cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old cache entries",
	Long: `Removes cached extraction results older than --older-than. Files whose
entries are removed are extracted again on their next change.`,
	Args: cobra.NoArgs,
	RunE: runCachePrune,
}

func init() {
	cachePruneCmd.Flags().Duration("older-than", 0, "Maximum entry age (default: cache.retention setting)")
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCachePrune(cmd *cobra.Command, _ []string) error {
	if extractionCache == nil {
		return errors.New("extraction cache not configured")
	}

	age, err := cmd.Flags().GetDuration("older-than")
	if err != nil {
		return fmt.Errorf("getting older-than flag: %w", err)
	}
	if age <= 0 {
		age, err = retentionSetting()
		if err != nil {
			return err
		}
	}

	removed, err := extractionCache.InvalidateOlderThan(cmd.Context(), age)
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}

	cmd.Printf("Removed %d entries older than %s.\n", removed, age)
	return nil
}

func retentionSetting() (time.Duration, error) {
	if settingsService == nil {
		return 0, errors.New("--older-than is required when settings are not available")
	}
	s, err := settingsService.Get()
	if err != nil {
		return 0, fmt.Errorf("failed to get settings: %w", err)
	}
	return s.Cache.Retention, nil
}
