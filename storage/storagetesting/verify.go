package storagetesting

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/metadata"
	"github.com/kopia/filejanitor/storage"
)

// VerifyFileManager verifies the behavior of the specified file manager using the provided container.
//
//nolint:thelper
func VerifyFileManager(ctx context.Context, t *testing.T, fm storage.FileManager, containerLocation, container string) {
	files := []struct {
		key      string
		contents []byte
	}{
		{key: "dir/sub/a.txt", contents: []byte{}},
		{key: "dir/b.txt", contents: []byte{1}},
		{key: "dir-c.bin", contents: bytes.Repeat([]byte{1}, 10000)},
		{key: "other", contents: bytes.Repeat([]byte{2}, 100)},
	}

	loc := func(key string) storage.FileLocation {
		return storage.FileLocation{ContainerLocation: containerLocation, Container: container, Key: key}
	}

	srcDir := t.TempDir()
	dstDir := t.TempDir()

	t.Run("VerifyFilesNotFound", func(t *testing.T) {
		for _, f := range files {
			_, err := fm.GetFileMetadata(ctx, loc(f.key))
			require.ErrorIs(t, err, storage.ErrFileNotFound, f.key)

			err = fm.DownloadFile(ctx, loc(f.key), filepath.Join(dstDir, "missing"))
			require.ErrorIs(t, err, storage.ErrFileNotFound, f.key)
		}
	})

	t.Run("UploadFiles", func(t *testing.T) {
		for i, f := range files {
			src := filepath.Join(srcDir, filepath.Base(f.key))
			require.NoError(t, os.WriteFile(src, f.contents, 0o600))

			require.NoError(t, fm.UploadFile(ctx, loc(f.key), src, storage.UploadOptions{
				Metadata: map[string]string{
					"Origin": "verify",
					"Index":  string(rune('0' + i)),
				},
				HashAlgorithms: []string{"sha256", "MD5"},
			}))
		}
	})

	t.Run("DownloadFiles", func(t *testing.T) {
		for _, f := range files {
			dst := filepath.Join(dstDir, "nested", filepath.FromSlash(f.key))
			require.NoError(t, fm.DownloadFile(ctx, loc(f.key), dst))

			got, err := os.ReadFile(dst) //nolint:gosec
			require.NoError(t, err)
			require.Equal(t, f.contents, got, f.key)
		}
	})

	t.Run("GetFileMetadata", func(t *testing.T) {
		for i, f := range files {
			src := filepath.Join(srcDir, filepath.Base(f.key))

			hashes, err := storage.ComputeHashes(src, []string{"SHA256", "MD5"})
			require.NoError(t, err)

			md, err := fm.GetFileMetadata(ctx, loc(f.key))
			require.NoError(t, err)

			items := metadata.FromMap(md)

			assertMetadataValue(t, items, "Origin", "verify")
			assertMetadataValue(t, items, "Index", string(rune('0'+i)))
			assertMetadataValue(t, items, storage.HashMetadataKey("SHA256"), hashes["SHA256"])
			assertMetadataValue(t, items, storage.HashMetadataKey("MD5"), hashes["MD5"])
		}
	})

	t.Run("ListFiles", func(t *testing.T) {
		cases := []struct {
			prefix string
			want   []string
		}{
			{"", []string{"dir-c.bin", "dir/b.txt", "dir/sub/a.txt", "other"}},
			{"dir", []string{"dir-c.bin", "dir/b.txt", "dir/sub/a.txt"}},
			{"dir/", []string{"dir/b.txt", "dir/sub/a.txt"}},
			{"dir/sub/a", []string{"dir/sub/a.txt"}},
			{"oth", []string{"other"}},
			{"no-such-prefix", []string{}},
		}

		for _, tc := range cases {
			infos, err := fm.ListFiles(ctx, containerLocation, container, tc.prefix)
			require.NoError(t, err)
			require.Equal(t, tc.want, storage.SortedKeys(infos), "prefix %q", tc.prefix)

			for _, oi := range infos {
				for _, f := range files {
					if f.key == oi.Key {
						require.EqualValues(t, len(f.contents), oi.Length, oi.Key)
					}
				}
			}
		}
	})

	t.Run("OverwriteFile", func(t *testing.T) {
		src := filepath.Join(srcDir, "overwrite")
		require.NoError(t, os.WriteFile(src, []byte("new contents"), 0o600))
		require.NoError(t, fm.UploadFile(ctx, loc("other"), src, storage.UploadOptions{}))

		dst := filepath.Join(dstDir, "overwritten")
		require.NoError(t, fm.DownloadFile(ctx, loc("other"), dst))

		got, err := os.ReadFile(dst) //nolint:gosec
		require.NoError(t, err)
		require.Equal(t, "new contents", string(got))

		md, err := fm.GetFileMetadata(ctx, loc("other"))
		require.NoError(t, err)

		_, ok := metadata.FromMap(md).Get("Origin")
		require.False(t, ok, "metadata of overwritten file must be replaced")
	})

	t.Run("UploadMissingFile", func(t *testing.T) {
		err := fm.UploadFile(ctx, loc("missing"), filepath.Join(srcDir, "no-such-file"), storage.UploadOptions{})
		require.Error(t, err)
		require.False(t, errors.Is(err, storage.ErrFileNotFound), "missing local file is not a missing remote file")
	})
}

func assertMetadataValue(t *testing.T, items metadata.Items, key, want string) {
	t.Helper()

	v, ok := items.Get(key)
	require.True(t, ok, "missing metadata %v in %v", key, items)
	require.Equal(t, want, v, key)
}
