package cli_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/internal/testutil"
	"github.com/kopia/filejanitor/metadata"
)

func TestArchiveAndRestoreCommands(t *testing.T) {
	for _, kind := range []string{"ZipFile", "TarGzip"} {
		t.Run(kind, func(t *testing.T) {
			work := testutil.TempDirectory(t)
			src := filepath.Join(work, "src")

			want := map[string]string{
				"a.txt":      "hello",
				"sub/":       "",
				"sub/b.txt":  "world",
				"sub/empty/": "",
				"sub/c.txt":  "zażółć",
			}

			testutil.WriteTree(t, src, want)

			archiveFile := filepath.Join(work, "src.archive")
			mdFile := filepath.Join(work, "src.json")

			res := runCLIExpectSuccess(t, "archive",
				"--source", src,
				"--target", archiveFile,
				"--archive-kind", kind,
				"--include-base-directory=false",
				"--metadata-file", mdFile)
			require.Contains(t, res.stdout, "Archived")

			b, err := os.ReadFile(mdFile)
			require.NoError(t, err)

			var md metadata.Items

			require.NoError(t, json.Unmarshal(b, &md))

			v, ok := md.Get("DirectoryArchiveKind")
			require.True(t, ok)
			require.Equal(t, kind, v)

			target := filepath.Join(work, "restored")

			runCLIExpectSuccess(t, "restore", "--archive", archiveFile, "--target", target, "--metadata-file", mdFile)
			require.Equal(t, want, testutil.ReadTree(t, target))

			// restoring over existing directory fails
			_, err = runCLI(t, "restore", "--archive", archiveFile, "--target", target, "--metadata-file", mdFile)
			require.Error(t, err)
		})
	}
}

func TestArchiveCommandJSON(t *testing.T) {
	work := testutil.TempDirectory(t)
	src := filepath.Join(work, "src")

	testutil.WriteTree(t, src, map[string]string{"a.txt": "hello"})

	res := runCLIExpectSuccess(t, "archive",
		"--source", src,
		"--target", filepath.Join(work, "src.zip"),
		"--json")

	var out struct {
		ArchiveKind string         `json:"directoryArchiveKind"`
		Metadata    metadata.Items `json:"metadata"`
	}

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	require.Equal(t, "ZipFile", out.ArchiveKind)
	require.NotEmpty(t, out.Metadata)
}

func TestRestoreCommandRequiresMetadata(t *testing.T) {
	work := testutil.TempDirectory(t)
	archiveFile := filepath.Join(work, "a.zip")

	require.NoError(t, os.WriteFile(archiveFile, []byte("not an archive"), 0o600))

	_, err := runCLI(t, "restore", "--archive", archiveFile, "--target", filepath.Join(work, "t"))
	require.ErrorContains(t, err, "--metadata")

	_, err = runCLI(t, "restore", "--archive", archiveFile, "--target", filepath.Join(work, "t"),
		"--metadata", "DirectoryArchiveKind=Nope")
	require.Error(t, err)
	require.NoDirExists(t, filepath.Join(work, "t"))
}

func TestDeleteFileCommand(t *testing.T) {
	work := testutil.TempDirectory(t)

	testutil.WriteTree(t, work, map[string]string{"a.txt": "hello", "dir/": ""})

	runCLIExpectSuccess(t, "delete-file", "--path", filepath.Join(work, "a.txt"))
	require.NoFileExists(t, filepath.Join(work, "a.txt"))

	_, err := runCLI(t, "delete-file", "--path", filepath.Join(work, "a.txt"))
	require.Error(t, err)

	_, err = runCLI(t, "delete-file", "--path", filepath.Join(work, "dir"))
	require.Error(t, err)
	require.DirExists(t, filepath.Join(work, "dir"))
}
