// Package domain holds the entities of corpuswatch and the rules that do
// not need any I/O.
//
// A WatchedDirectory is a root with its filters and scan interval. Every
// file found under it gets a MonitoredFile whose status moves through the
// pure Transition function, driven by the file's Fingerprint and the
// admission decision. A CacheEntry stores the records derived for one
// content identity, and a ScanResult summarises one pass over a directory.
//
// Only the standard library may be imported here.
package domain
