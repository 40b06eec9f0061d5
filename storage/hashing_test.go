package storage_test

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/kopia/filejanitor/storage"
)

func TestComputeHashes(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(fname, []byte("hello"), 0o600))

	b3 := blake3.Sum256([]byte("hello"))

	h, err := storage.ComputeHashes(fname, []string{"md5", " SHA1 ", "sha256", "", "MD5", "blake3"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"MD5":    "5d41402abc4b2a76b9719d911017c592",
		"SHA1":   "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d",
		"SHA256": "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		"BLAKE3": hex.EncodeToString(b3[:]),
	}, h)

	_, err = storage.ComputeHashes(fname, []string{"crc32"})
	require.ErrorIs(t, err, storage.ErrUnsupportedHashAlgorithm)

	h, err = storage.ComputeHashes(filepath.Join(t.TempDir(), "missing"), nil)
	require.NoError(t, err)
	require.Empty(t, h)

	_, err = storage.ComputeHashes(filepath.Join(t.TempDir(), "missing"), []string{"sha512"})
	require.Error(t, err)
}

func TestUploadMetadata(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(fname, []byte("hello"), 0o600))

	md, err := storage.UploadMetadata(fname, storage.UploadOptions{
		Metadata:       map[string]string{"Owner": "ops"},
		HashAlgorithms: []string{"md5"},
	})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"Owner":   "ops",
		"HashMD5": "5d41402abc4b2a76b9719d911017c592",
	}, md)

	_, err = storage.UploadMetadata(fname, storage.UploadOptions{
		Metadata:       map[string]string{"hashmd5": "x"},
		HashAlgorithms: []string{"md5"},
	})
	require.Error(t, err)
}

func TestHashMetadataKey(t *testing.T) {
	require.Equal(t, "HashSHA384", storage.HashMetadataKey(" sha384"))
	require.Equal(t, []string{"BLAKE3", "MD5", "SHA1", "SHA256", "SHA384", "SHA512"}, storage.SupportedHashAlgorithms())
}
