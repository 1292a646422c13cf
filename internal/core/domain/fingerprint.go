package domain

import "time"

// Fingerprint identifies the current content of a file.
type Fingerprint struct {
	// Path is the absolute path that was fingerprinted.
	Path string

	// SizeBytes is the file size.
	SizeBytes int64

	// ModifiedAt is the filesystem modification time.
	ModifiedAt time.Time

	// ContentHash is the hex MD5 digest of the full file content.
	ContentHash string
}
