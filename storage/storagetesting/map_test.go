package storagetesting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/internal/testlogging"
	"github.com/kopia/filejanitor/storage"
	"github.com/kopia/filejanitor/storage/storagetesting"
)

func TestMapFileManager(t *testing.T) {
	ctx := testlogging.Context(t)

	storagetesting.VerifyFileManager(ctx, t, storagetesting.NewMapFileManager(nil), "loc", "container")
}

func TestFaultyFileManager(t *testing.T) {
	ctx := testlogging.Context(t)

	m := storagetesting.NewMapFileManager(nil)
	fm := storagetesting.NewFaultyFileManager(m)

	src := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	errUpload := errors.New("upload failed")
	fm.AddFault(storagetesting.MethodUploadFile).ErrorInstead(errUpload).Repeat(1)

	loc := storage.FileLocation{ContainerLocation: "l", Container: "c", Key: "k"}

	require.ErrorIs(t, fm.UploadFile(ctx, loc, src, storage.UploadOptions{}), errUpload)
	require.ErrorIs(t, fm.UploadFile(ctx, loc, src, storage.UploadOptions{}), errUpload)
	require.NoError(t, fm.UploadFile(ctx, loc, src, storage.UploadOptions{}))

	require.Equal(t, 3, fm.NumCalls(storagetesting.MethodUploadFile))
	require.Equal(t, []byte("x"), m.Contents(loc))
	fm.VerifyAllFaultsExercised(t)
}
