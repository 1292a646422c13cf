// Package connectors holds the adapters that reach the files corpuswatch
// monitors. The filesystem connector enumerates, fingerprints and watches
// local directory trees.
package connectors
