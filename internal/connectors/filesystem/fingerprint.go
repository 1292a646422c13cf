package filesystem

import (
	"crypto/md5" //nolint:gosec // content identity, not security
	"encoding/hex"
	"errors"
	"io"
	"os"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

var errIsDirectory = errors.New("is a directory")

// Fingerprint stats a file and hashes its full content.
// Failures are returned as *domain.FingerprintError.
func Fingerprint(path string) (domain.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Fingerprint{}, &domain.FingerprintError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.Fingerprint{}, &domain.FingerprintError{Path: path, Err: err}
	}
	if info.IsDir() {
		return domain.Fingerprint{}, &domain.FingerprintError{Path: path, Err: errIsDirectory}
	}

	h := md5.New() //nolint:gosec // content identity, not security
	if _, err := io.Copy(h, f); err != nil {
		return domain.Fingerprint{}, &domain.FingerprintError{Path: path, Err: err}
	}

	return domain.Fingerprint{
		Path:        path,
		SizeBytes:   info.Size(),
		ModifiedAt:  info.ModTime(),
		ContentHash: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// HashBytes returns the hex MD5 of data, matching Fingerprint.
func HashBytes(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // content identity, not security
	return hex.EncodeToString(sum[:])
}
