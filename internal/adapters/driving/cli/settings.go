package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change scheduler, scanner, cache, extractor and API settings.

Settings are stored in ~/.corpuswatch/config.toml. Environment variables
named CORPUSWATCH_<KEY> override stored values, e.g.
CORPUSWATCH_SCHEDULER_CHECK_INTERVAL=1m.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Changes one setting by its dotted key. Durations use Go syntax (90s, 5m,
2h) and lists are comma-separated.

Examples:
  corpuswatch settings set scheduler.check_interval 1m
  corpuswatch settings set cache.backend redis
  corpuswatch settings set scanner.skip_dirs node_modules,vendor`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Data]")
	cmd.Printf("  Directory: %s\n", valueOrDefault(settings.Data.Dir, "~/.corpuswatch/data"))
	cmd.Println()

	cmd.Println("[Scheduler]")
	cmd.Printf("  Check interval: %s\n", settings.Scheduler.CheckInterval)
	cmd.Printf("  Parallel directories: %d\n", settings.Scheduler.ParallelDirectories)
	cmd.Println()

	cmd.Println("[Scanner]")
	cmd.Printf("  Extraction timeout: %s\n", settings.Scanner.ExtractionTimeout)
	cmd.Printf("  Missing threshold: %d scans\n", settings.Scanner.MissingThreshold)
	cmd.Printf("  Max records: %d\n", settings.Scanner.MaxRecords)
	cmd.Printf("  Skip dirs: %s\n", strings.Join(settings.Scanner.SkipDirs, ", "))
	cmd.Printf("  Record processors: %s\n", listOrNone(settings.Scanner.RecordProcessors))
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Backend: %s\n", settings.Cache.Backend.Description())
	cmd.Printf("  Retention: %s\n", settings.Cache.Retention)
	switch settings.Cache.Backend {
	case domain.CacheBackendFile:
		cmd.Printf("  Directory: %s\n", valueOrDefault(settings.Cache.Dir, "(data directory)/cache"))
	case domain.CacheBackendRedis:
		cmd.Printf("  Redis: %s\n", settings.Cache.RedisAddr)
	}
	cmd.Println()

	cmd.Println("[Extractor]")
	cmd.Printf("  Base URL: %s\n", settings.Extractor.BaseURL)
	cmd.Printf("  Model: %s\n", valueOrDefault(settings.Extractor.Model, "(none, rule-based extraction)"))
	cmd.Printf("  Rate: %g/s, burst %d\n", settings.Extractor.RatePerSecond, settings.Extractor.Burst)
	cmd.Println()

	cmd.Println("[Refresh]")
	cmd.Printf("  Webhook: %s\n", valueOrDefault(settings.Refresh.WebhookURL, "(not set)"))
	if settings.Refresh.Token != "" {
		cmd.Printf("  Token: %s\n", maskToken(settings.Refresh.Token))
	}
	cmd.Println()

	cmd.Println("[HTTP]")
	cmd.Printf("  Address: %s\n", settings.HTTP.Addr)
	if settings.HTTP.Token != "" {
		cmd.Printf("  Token: %s\n", maskToken(settings.HTTP.Token))
	} else {
		cmd.Printf("  Token: (not set, authentication disabled)\n")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	cmd.Printf("%s updated.\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

// maskToken masks a secret for display, showing only first and last 4 characters.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
