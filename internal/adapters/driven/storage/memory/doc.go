// Package memory provides in-memory implementations of the driven storage
// ports. They back the unit tests of the core services and the
// --ephemeral mode of the CLI, where nothing is written to disk.
package memory
