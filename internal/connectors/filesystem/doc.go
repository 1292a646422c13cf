// Package filesystem enumerates, fingerprints and watches files under
// watched directories.
//
// The Walker lists regular files depth-first in lexical order and consults
// an injected SkipDirFunc before descending into a directory. Fingerprint
// streams a file through MD5. Watch reports create, write and remove
// events from fsnotify for whole directory trees.
package filesystem
