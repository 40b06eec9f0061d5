package filesystem_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/internal/testlogging"
	"github.com/kopia/filejanitor/internal/testutil"
	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/filesystem"
	"github.com/kopia/filejanitor/storage/pathstore"
	"github.com/kopia/filejanitor/storage/storagetesting"
)

func TestFileStorage(t *testing.T) {
	t.Parallel()

	ctx := testlogging.Context(t)
	root := filepath.Join(testutil.TempDirectory(t), "does", "not", "exist", "yet")

	fm, err := filesystem.New(ctx, &filesystem.Options{Path: root})
	require.NoError(t, err)

	defer fm.Close(ctx)

	storagetesting.VerifyFileManager(ctx, t, fm, "eu-west", "container")

	// files are laid out by location, container and key with a metadata sidecar
	require.FileExists(t, filepath.Join(root, "eu-west", "container", "dir", "sub", "a.txt"))
	require.FileExists(t, filepath.Join(root, "eu-west", "container", "dir", "sub", "a.txt"+pathstore.MetadataSuffix))
}

func TestFileStorage_ViaRegistry(t *testing.T) {
	t.Parallel()

	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	fm, err := storage.NewFileManager(ctx, storage.ConnectionInfo{
		Type:   "filesystem",
		Config: &filesystem.Options{Path: root},
	})
	require.NoError(t, err)
	require.Contains(t, fm.DisplayName(), root)
}

func TestFileStorage_ForeignFiles(t *testing.T) {
	t.Parallel()

	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	fm, err := filesystem.New(ctx, &filesystem.Options{Path: root})
	require.NoError(t, err)

	// file dropped by another tool, without metadata sidecar
	testutil.WriteTree(t, root, map[string]string{
		"loc/c/report.csv":    "a,b",
		"loc/c/partial.fjtmp": "x",
	})

	loc := storage.FileLocation{ContainerLocation: "loc", Container: "c", Key: "report.csv"}

	md, err := fm.GetFileMetadata(ctx, loc)
	require.NoError(t, err)
	require.Empty(t, md)

	infos, err := fm.ListFiles(ctx, "loc", "c", "")
	require.NoError(t, err)
	require.Equal(t, []string{"report.csv"}, storage.SortedKeys(infos))

	// missing container lists as empty
	infos, err = fm.ListFiles(ctx, "loc", "no-such-container", "")
	require.NoError(t, err)
	require.Empty(t, infos)
}

func TestFileStorage_InvalidPaths(t *testing.T) {
	t.Parallel()

	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	fm, err := filesystem.New(ctx, &filesystem.Options{Path: root})
	require.NoError(t, err)

	src := filepath.Join(root, "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	for _, loc := range []storage.FileLocation{
		{ContainerLocation: "..", Container: "c", Key: "k"},
		{ContainerLocation: "l", Container: "a/b", Key: "k"},
		{ContainerLocation: "l", Container: "c", Key: "../escape"},
		{ContainerLocation: "l", Container: "c", Key: "a//b"},
		{ContainerLocation: "l", Container: "c", Key: "k" + pathstore.MetadataSuffix},
	} {
		err := fm.UploadFile(ctx, loc, src, storage.UploadOptions{})
		require.ErrorIs(t, err, pathstore.ErrInvalidPath, loc.String())
	}
}
