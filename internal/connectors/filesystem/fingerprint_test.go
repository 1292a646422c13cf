package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
)

func TestFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, path, "hello")

	fp, err := Fingerprint(path)
	require.NoError(t, err)

	assert.Equal(t, path, fp.Path)
	assert.Equal(t, int64(5), fp.SizeBytes)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", fp.ContentHash)
	assert.Equal(t, HashBytes([]byte("hello")), fp.ContentHash)
	assert.False(t, fp.ModifiedAt.IsZero())
}

func TestFingerprint_TouchKeepsHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, path, "same bytes")

	before, err := Fingerprint(path)
	require.NoError(t, err)

	later := before.ModifiedAt.Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	after, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, before.ContentHash, after.ContentHash)
	assert.True(t, after.ModifiedAt.After(before.ModifiedAt))
}

func TestFingerprint_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.txt")

	_, err := Fingerprint(path)
	require.Error(t, err)

	var fpErr *domain.FingerprintError
	require.True(t, errors.As(err, &fpErr))
	assert.Equal(t, path, fpErr.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFingerprint_Directory(t *testing.T) {
	dir := t.TempDir()

	_, err := Fingerprint(dir)
	var fpErr *domain.FingerprintError
	require.True(t, errors.As(err, &fpErr))
	assert.ErrorIs(t, err, errIsDirectory)
}
