// Package services implements the driving port interfaces.
// Services contain the monitoring logic and orchestrate
// calls to driven ports (adapters).
//
// The scanner reconciles a watched directory with the files on disk,
// the scheduler runs scans on a timer and the watcher rescans on
// filesystem changes. Services never touch the filesystem, database
// or network directly.
package services
