package atomicfile

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var veryLongSegment = strings.Repeat("f", 270)

func TestMaybePrefixLongFilenameOnWindows(t *testing.T) {
	if runtime.GOOS != "windows" {
		require.Equal(t, "/"+veryLongSegment, MaybePrefixLongFilenameOnWindows("/"+veryLongSegment))
		return
	}

	cases := []struct {
		input string
		want  string
	}{
		// too short
		{"C:\\Short.txt", "C:\\Short.txt"},

		// long paths
		{"C:\\" + veryLongSegment + "\\foo", "\\\\?\\C:\\" + veryLongSegment + "\\foo"},
		{"C:\\" + veryLongSegment + "/foo/bar", "\\\\?\\C:\\" + veryLongSegment + "\\foo\\bar"},
		{"C:\\" + veryLongSegment + "\\.\\foo", "\\\\?\\C:\\" + veryLongSegment + "\\foo"},
		{"\\\\?\\C:\\" + veryLongSegment + "\\foo", "\\\\?\\C:\\" + veryLongSegment + "\\foo"},

		// relative
		{veryLongSegment + "\\foo", veryLongSegment + "\\foo"},
		{"..\\..\\" + veryLongSegment + "\\foo", "..\\..\\" + veryLongSegment + "\\foo"},
	}

	for _, tc := range cases {
		if got := MaybePrefixLongFilenameOnWindows(tc.input); got != tc.want {
			t.Errorf("invalid result for %v: got %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "meta.json")

	require.NoError(t, WriteJSON(fname, map[string]string{"a": "b"}))
	require.NoError(t, WriteJSON(fname, map[string]string{"c": "d"}))

	b, err := os.ReadFile(fname)
	require.NoError(t, err)
	require.JSONEq(t, `{"c":"d"}`, string(b))
}
