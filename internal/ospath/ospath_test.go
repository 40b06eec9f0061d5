package ospath_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/internal/ospath"
)

func TestIsAbs(t *testing.T) {
	var absCases []string

	notAbsCases := []string{
		"foo",
		"foo/",
		"foo/bar",
		"./foo",
		"./foo/bar",
		"../foo",
		"../foo/",
		"../foo/bar",
		".",
		"..",
		"../",
		"../..",
	}

	if runtime.GOOS == "windows" {
		absCases = append(absCases,
			"c:\\",
			"c:\\foo",
			"c:\\foo\\",
			"c:\\foo\\bar",
			"\\\\host\\share",
			"\\\\host\\share\\",
			"\\\\host\\share\\subdir",
		)

		notAbsCases = append(notAbsCases,
			"..\\",
			"..\\..",
			"foo",
			"foo\\",
			"foo\\bar",
			".\\foo",
			".\\foo\\bar",
			"..\\foo",
			"..\\foo\\",
			"..\\foo\\bar",
			"\\\\host",
			"\\\\host\\",
		)
	} else {
		absCases = append(absCases,
			"/",
			"/foo",
			"/foo/",
			"/foo/bar",
		)
	}

	for _, tc := range absCases {
		require.True(t, ospath.IsAbs(tc), tc)
	}

	for _, tc := range notAbsCases {
		require.False(t, ospath.IsAbs(tc), tc)
	}
}

func TestResolveUserFriendlyPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, home+"/foo", ospath.ResolveUserFriendlyPath("~/foo", false))
	require.Equal(t, filepath.Join(home, "foo"), ospath.ResolveUserFriendlyPath("foo", true))
	require.Equal(t, "foo", ospath.ResolveUserFriendlyPath("foo", false))
}

func TestLogsDir(t *testing.T) {
	require.Equal(t, "filejanitor", filepath.Base(ospath.LogsDir()))
}
