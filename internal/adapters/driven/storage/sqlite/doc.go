// Package sqlite persists watched directories, monitored files, the
// extraction cache and scheduler cycle history in one SQLite database.
//
// It uses modernc.org/sqlite, so the binary builds without cgo. Store owns
// the connection and hands out the cache and the scheduler history as
// views over the same database.
//
// The schema is versioned by the files in migrations/; applied versions
// are recorded in schema_migrations and never re-run. The default
// database lives at ~/.corpuswatch/data/metadata.db and is opened in WAL
// mode so the dashboard can read while a scan writes.
package sqlite
