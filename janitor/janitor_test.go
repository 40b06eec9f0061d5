package janitor_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/internal/testlogging"
	"github.com/kopia/filejanitor/internal/testutil"
	"github.com/kopia/filejanitor/janitor"
)

//nolint:gochecknoglobals
var fakeNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fakeTimeNow() time.Time {
	return fakeNow
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()

	result := []string{}

	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)

		result = append(result, filepath.ToSlash(rel))
	}

	sort.Strings(result)

	return result
}

func TestCleanupRetentionBoundary(t *testing.T) {
	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	window, err := janitor.ParseRetentionWindow("00:04:00")
	require.NoError(t, err)

	testutil.WriteTree(t, root, map[string]string{
		"five-hours-old":  "a",
		"three-hours-old": "bb",
		"at-cutoff":       "ccc",
	})

	testutil.SetModTime(t, filepath.Join(root, "five-hours-old"), fakeNow.Add(-5*time.Hour))
	testutil.SetModTime(t, filepath.Join(root, "three-hours-old"), fakeNow.Add(-3*time.Hour))
	testutil.SetModTime(t, filepath.Join(root, "at-cutoff"), fakeNow.Add(-4*time.Hour))

	var announced []string

	res, err := janitor.Cleanup(ctx, root, janitor.Options{
		RetentionWindow: window,
		DateStrategy:    janitor.LastUpdateDate,
		TimeNow:         fakeTimeNow,
		OnDelete: func(path string, isDir bool) {
			require.False(t, isDir)

			// announced before removal
			_, err := os.Stat(path)
			require.NoError(t, err)

			announced = append(announced, path)
		},
	})
	require.NoError(t, err)

	require.Equal(t, fakeNow.Add(-4*time.Hour), res.Cutoff)
	require.Equal(t, []string{"five-hours-old"}, relPaths(t, root, res.DeletedFiles))
	require.Equal(t, res.DeletedFiles, announced)
	require.Equal(t, int64(1), res.DeletedBytes)
	require.Equal(t, 2, res.RetainedFiles)

	require.Equal(t, map[string]string{
		"three-hours-old": "bb",
		"at-cutoff":       "ccc",
	}, testutil.ReadTree(t, root))
}

func TestCleanupRecursiveWithEmptyDirectories(t *testing.T) {
	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	testutil.WriteTree(t, root, map[string]string{
		"old/a.txt":         "old",
		"old/deeper/b.txt":  "old",
		"nested/x/y/":       "",
		"keep/new.txt":      "new",
		"keep/empty/":       "",
		"mixed/old.txt":     "old",
		"mixed/sub/new.txt": "new",
		"top-old.txt":       "old",
	})

	for _, p := range []string{"old/a.txt", "old/deeper/b.txt", "mixed/old.txt", "top-old.txt"} {
		testutil.SetModTime(t, filepath.Join(root, filepath.FromSlash(p)), fakeNow.Add(-48*time.Hour))
	}

	for _, p := range []string{"keep/new.txt", "mixed/sub/new.txt"} {
		testutil.SetModTime(t, filepath.Join(root, filepath.FromSlash(p)), fakeNow.Add(-time.Hour))
	}

	res, err := janitor.Cleanup(ctx, root, janitor.Options{
		RetentionWindow:        24 * time.Hour,
		Recursive:              true,
		DeleteEmptyDirectories: true,
		TimeNow:                fakeTimeNow,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"mixed/old.txt", "old/a.txt", "old/deeper/b.txt", "top-old.txt"}, relPaths(t, root, res.DeletedFiles))
	require.Equal(t, []string{"keep/empty", "nested", "nested/x", "nested/x/y", "old", "old/deeper"}, relPaths(t, root, res.DeletedDirectories))

	require.Equal(t, map[string]string{
		"keep/":             "",
		"keep/new.txt":      "new",
		"mixed/":            "",
		"mixed/sub/":        "",
		"mixed/sub/new.txt": "new",
	}, testutil.ReadTree(t, root))
}

func TestCleanupDeepestDirectoriesGoFirst(t *testing.T) {
	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	testutil.WriteTree(t, root, map[string]string{
		"a/b/c/": "",
	})

	res, err := janitor.Cleanup(ctx, root, janitor.Options{
		Recursive:              true,
		DeleteEmptyDirectories: true,
		TimeNow:                fakeTimeNow,
	})
	require.NoError(t, err)

	require.Equal(t, []string{
		filepath.Join(root, "a", "b", "c"),
		filepath.Join(root, "a", "b"),
		filepath.Join(root, "a"),
	}, res.DeletedDirectories)

	// root is never removed
	st, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, st.IsDir())
}

func TestCleanupNonRecursive(t *testing.T) {
	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	testutil.WriteTree(t, root, map[string]string{
		"old.txt":         "old",
		"sub/old.txt":     "old",
		"empty/deep/dir/": "",
	})

	testutil.SetModTime(t, filepath.Join(root, "old.txt"), fakeNow.Add(-48*time.Hour))
	testutil.SetModTime(t, filepath.Join(root, "sub", "old.txt"), fakeNow.Add(-48*time.Hour))

	res, err := janitor.Cleanup(ctx, root, janitor.Options{
		RetentionWindow:        24 * time.Hour,
		DeleteEmptyDirectories: true,
		TimeNow:                fakeTimeNow,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"old.txt"}, relPaths(t, root, res.DeletedFiles))
	require.Equal(t, []string{"empty"}, relPaths(t, root, res.DeletedDirectories))
	require.Equal(t, map[string]string{
		"sub/":        "",
		"sub/old.txt": "old",
	}, testutil.ReadTree(t, root))
}

func TestCleanupKeepsEmptyDirectoriesUnlessRequested(t *testing.T) {
	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	testutil.WriteTree(t, root, map[string]string{
		"d/old.txt": "old",
	})
	testutil.SetModTime(t, filepath.Join(root, "d", "old.txt"), fakeNow.Add(-48*time.Hour))

	res, err := janitor.Cleanup(ctx, root, janitor.Options{
		RetentionWindow: time.Hour,
		Recursive:       true,
		TimeNow:         fakeTimeNow,
	})
	require.NoError(t, err)
	require.Len(t, res.DeletedFiles, 1)
	require.Empty(t, res.DeletedDirectories)
	require.Equal(t, map[string]string{"d/": ""}, testutil.ReadTree(t, root))
}

func TestCleanupLastAccessDate(t *testing.T) {
	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	fname := filepath.Join(root, "f")
	testutil.WriteTree(t, root, map[string]string{"f": "x"})

	// recently modified, but not accessed for a long time.
	require.NoError(t, os.Chtimes(fname, fakeNow.Add(-72*time.Hour), fakeNow.Add(-time.Minute)))

	res, err := janitor.Cleanup(ctx, root, janitor.Options{
		RetentionWindow: 24 * time.Hour,
		DateStrategy:    janitor.LastUpdateDate,
		TimeNow:         fakeTimeNow,
	})
	require.NoError(t, err)
	require.Empty(t, res.DeletedFiles)

	res, err = janitor.Cleanup(ctx, root, janitor.Options{
		RetentionWindow: 24 * time.Hour,
		DateStrategy:    janitor.LastAccessDate,
		TimeNow:         fakeTimeNow,
	})
	require.NoError(t, err)
	require.Len(t, res.DeletedFiles, 1)
}

func TestCleanupCreateDate(t *testing.T) {
	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	testutil.WriteTree(t, root, map[string]string{"f": "x"})
	testutil.SetModTime(t, filepath.Join(root, "f"), time.Now().Add(-100*24*time.Hour)) //nolint:forbidigo

	// the file was just created, so it is retained even though it looks old otherwise.
	res, err := janitor.Cleanup(ctx, root, janitor.Options{
		RetentionWindow: 24 * time.Hour,
		DateStrategy:    janitor.CreateDate,
	})
	require.NoError(t, err)
	require.Empty(t, res.DeletedFiles)
	require.Equal(t, 1, res.RetainedFiles)
}

func TestCleanupInclude(t *testing.T) {
	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	testutil.WriteTree(t, root, map[string]string{
		"app-1.log": "a",
		"app-2.log": "b",
		"other.txt": "c",
	})

	for _, n := range []string{"app-1.log", "app-2.log", "other.txt"} {
		testutil.SetModTime(t, filepath.Join(root, n), fakeNow.Add(-48*time.Hour))
	}

	res, err := janitor.Cleanup(ctx, root, janitor.Options{
		RetentionWindow: time.Hour,
		TimeNow:         fakeTimeNow,
		Include: func(path string) bool {
			return filepath.Ext(path) == ".log"
		},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"app-1.log", "app-2.log"}, relPaths(t, root, res.DeletedFiles))
	require.Equal(t, 0, res.RetainedFiles)
	require.Equal(t, map[string]string{"other.txt": "c"}, testutil.ReadTree(t, root))
}

func TestCleanupInvalidConfiguration(t *testing.T) {
	ctx := testlogging.Context(t)
	root := testutil.TempDirectory(t)

	testutil.WriteTree(t, root, map[string]string{"file": "x"})
	testutil.SetModTime(t, filepath.Join(root, "file"), fakeNow.Add(-48*time.Hour))

	_, err := janitor.Cleanup(ctx, filepath.Join(root, "missing"), janitor.Options{})
	require.ErrorIs(t, err, janitor.ErrInvalidRoot)
	require.Contains(t, err.Error(), "missing")

	_, err = janitor.Cleanup(ctx, filepath.Join(root, "file"), janitor.Options{})
	require.ErrorIs(t, err, janitor.ErrInvalidRoot)
	require.Contains(t, err.Error(), "not a directory")

	_, err = janitor.Cleanup(ctx, "", janitor.Options{})
	require.ErrorIs(t, err, janitor.ErrInvalidRoot)

	_, err = janitor.Cleanup(ctx, root, janitor.Options{RetentionWindow: -time.Hour})
	require.Error(t, err)

	// unsupported strategy is rejected before any file is touched
	_, err = janitor.Cleanup(ctx, root, janitor.Options{
		DateStrategy: "Birthday",
		TimeNow:      fakeTimeNow,
	})
	require.ErrorIs(t, err, janitor.ErrUnsupportedDateStrategy)
	require.Equal(t, map[string]string{"file": "x"}, testutil.ReadTree(t, root))
}

func TestCleanupCanceled(t *testing.T) {
	root := testutil.TempDirectory(t)

	testutil.WriteTree(t, root, map[string]string{"file": "x"})
	testutil.SetModTime(t, filepath.Join(root, "file"), fakeNow.Add(-48*time.Hour))

	ctx, cancel := context.WithCancel(testlogging.Context(t))
	cancel()

	_, err := janitor.Cleanup(ctx, root, janitor.Options{TimeNow: fakeTimeNow})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, map[string]string{"file": "x"}, testutil.ReadTree(t, root))
}
