package janitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/internal/testutil"
)

func TestParseJobFile(t *testing.T) {
	jf, err := ParseJobFile([]byte(`
jobs:
  - rootPath: /var/log/app
    retentionWindow: "07:00:00"
    recursive: true
    deleteEmptyDirectories: true
    dateRetrievalStrategy: lastaccessdate
  - name: tmp
    rootPath: /tmp/app
    retentionWindow: "00:04:30"
`))
	require.NoError(t, err)
	require.Len(t, jf.Jobs, 2)

	require.Equal(t, "/var/log/app", jf.Jobs[0].Name)
	require.Equal(t, string(DefaultDateStrategy), jf.Jobs[1].DateRetrievalStrategy)

	opt, err := jf.Jobs[0].Options()
	require.NoError(t, err)
	require.Equal(t, Options{
		RetentionWindow:        7 * 24 * time.Hour,
		Recursive:              true,
		DeleteEmptyDirectories: true,
		DateStrategy:           LastAccessDate,
	}, opt)

	opt, err = jf.Jobs[1].Options()
	require.NoError(t, err)
	require.Equal(t, 4*time.Hour+30*time.Minute, opt.RetentionWindow)
	require.Equal(t, LastUpdateDate, opt.DateStrategy)
	require.False(t, opt.Recursive)
}

func TestParseJobFileInvalid(t *testing.T) {
	cases := []struct {
		input   string
		wantErr error
	}{
		{"jobs: [", ErrInvalidJobFile},
		{"jobs: []", ErrInvalidJobFile},
		{"other: 1", ErrInvalidJobFile},
		{"jobs:\n  - rootPath: /x\n    retentionWindow: 1d", ErrInvalidRetentionWindow},
		{"jobs:\n  - retentionWindow: \"01:00:00\"", ErrInvalidRoot},
		{"jobs:\n  - rootPath: /x\n    retentionWindow: \"01:00:00\"\n    dateRetrievalStrategy: x", ErrUnsupportedDateStrategy},
	}

	for _, tc := range cases {
		_, err := ParseJobFile([]byte(tc.input))
		require.ErrorIs(t, err, ErrInvalidJobFile, tc.input)
		require.ErrorIs(t, err, tc.wantErr, tc.input)
	}
}

func TestLoadJobFile(t *testing.T) {
	td := testutil.TempDirectory(t)
	fname := filepath.Join(td, "jobs.yaml")

	require.NoError(t, os.WriteFile(fname, []byte("jobs:\n  - rootPath: "+td+"\n    retentionWindow: \"00:01:00\"\n"), 0o600))

	jf, err := LoadJobFile(fname)
	require.NoError(t, err)
	require.Equal(t, td, jf.Jobs[0].RootPath)

	_, err = LoadJobFile(filepath.Join(td, "missing.yaml"))
	require.Error(t, err)
}
