package cli_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/internal/testutil"
	"github.com/kopia/filejanitor/metadata"
	"github.com/kopia/filejanitor/storage"
)

type remoteEnv struct {
	root string
	work string
}

func newRemoteEnv(t *testing.T) *remoteEnv {
	t.Helper()

	return &remoteEnv{
		root: testutil.TempDirectory(t),
		work: testutil.TempDirectory(t),
	}
}

// args returns common flags of a remote command against filesystem storage.
func (e *remoteEnv) args(verb ...string) []string {
	return append(verb, "filesystem",
		"--root", e.root,
		"--container-location", "local",
		"--container", "bucket",
		"--retry-minimum-wait", "1ms",
	)
}

func TestStoreFindFetchFile(t *testing.T) {
	e := newRemoteEnv(t)

	src := filepath.Join(e.work, "report.csv")
	require.NoError(t, os.WriteFile(src, []byte("a,b,c\n"), 0o600))

	for _, key := range []string{"reports/2024-01.csv", "reports/2024-02.csv"} {
		res := runCLIExpectSuccess(t, append(e.args("store", "file"),
			"--path", src,
			"--key", key,
			"--metadata", "Owner=test",
			"--hash-algorithm", "SHA256",
			"--json")...)

		var loc storage.FileLocation

		require.NoError(t, json.Unmarshal([]byte(res.stdout), &loc))
		require.Equal(t, key, loc.Key)
	}

	// ambiguous by default
	_, err := runCLI(t, append(e.args("find"), "--prefix", "reports/")...)
	require.Error(t, err)

	res := runCLIExpectSuccess(t, append(e.args("find"), "--prefix", "reports/", "--strategy", "FirstSortedDescending")...)
	require.Equal(t, "reports/2024-02.csv", strings.TrimSpace(res.stdout))

	_, err = runCLI(t, append(e.args("find"), "--prefix", "missing/")...)
	require.Error(t, err)

	out := filepath.Join(e.work, "out", "{Key}")

	runCLIExpectSuccess(t, append(e.args("fetch", "file"),
		"--prefix", "reports/",
		"--strategy", "FirstSortedAscending",
		"--path", out)...)

	b, err := os.ReadFile(filepath.Join(e.work, "out", "reports", "2024-01.csv"))
	require.NoError(t, err)
	require.Equal(t, "a,b,c\n", string(b))

	mdFile := filepath.Join(e.work, "md.json")

	res = runCLIExpectSuccess(t, append(e.args("fetch", "metadata"),
		"--key", "reports/2024-02.csv",
		"--metadata-file", mdFile,
		"--json")...)

	var md metadata.Items

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &md))

	v, ok := md.Get("owner")
	require.True(t, ok)
	require.Equal(t, "test", v)

	_, ok = md.Get(storage.HashMetadataKey("SHA256"))
	require.True(t, ok)
	require.FileExists(t, mdFile)

	// --key and --prefix are exclusive
	_, err = runCLI(t, append(e.args("fetch", "metadata"), "--key", "a", "--prefix", "b")...)
	require.Error(t, err)
}

func TestStoreFetchDirectory(t *testing.T) {
	for _, kind := range []string{"ZipFile", "TarGzip"} {
		t.Run(kind, func(t *testing.T) {
			e := newRemoteEnv(t)
			src := filepath.Join(e.work, "logs")

			testutil.WriteTree(t, src, map[string]string{
				"a.log":     "first",
				"sub/b.log": "second",
			})

			res := runCLIExpectSuccess(t, append(e.args("store", "directory"),
				"--path", src,
				"--key", "archives/logs",
				"--archive-kind", kind,
				"--json")...)
			require.Contains(t, res.stdout, `"key":"archives/logs"`)

			// temporary archive is removed
			entries, err := os.ReadDir(e.work)
			require.NoError(t, err)
			require.Len(t, entries, 1)

			target := filepath.Join(e.work, "restored-{Key}")

			runCLIExpectSuccess(t, append(e.args("fetch", "directory"),
				"--prefix", "archives/",
				"--target", target)...)

			require.Equal(t, map[string]string{
				"logs/":          "",
				"logs/a.log":     "first",
				"logs/sub/":      "",
				"logs/sub/b.log": "second",
			}, testutil.ReadTree(t, filepath.Join(e.work, "restored-archives", "logs")))
		})
	}
}

func TestStoreFileInvalidArguments(t *testing.T) {
	e := newRemoteEnv(t)

	_, err := runCLI(t, append(e.args("store", "file"), "--path", filepath.Join(e.work, "missing"))...)
	require.Error(t, err)

	src := filepath.Join(e.work, "f")
	require.NoError(t, os.WriteFile(src, nil, 0o600))

	_, err = runCLI(t, append(e.args("store", "file"), "--path", src, "--metadata", "novalue")...)
	require.Error(t, err)

	_, err = runCLI(t, append(e.args("store", "file"), "--path", src, "--metadata", "a=1", "--metadata", "A=2")...)
	require.Error(t, err)
}

func TestMetricsDirectory(t *testing.T) {
	root := testutil.TempDirectory(t)
	metricsDir := filepath.Join(testutil.TempDirectory(t), "metrics")

	runCLIExpectSuccess(t, "cleanup", "--root-path", root, "--retention-window", "01:00:00", "--metrics-directory", metricsDir)

	entries, err := os.ReadDir(metricsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasSuffix(entries[0].Name(), "-cleanup.prom"), entries[0].Name())
}
