package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/storage"
)

func TestFileLocation(t *testing.T) {
	a := storage.FileLocation{ContainerLocation: "US-East-1", Container: "Bucket", Key: "a/b.zip"}
	b := storage.FileLocation{ContainerLocation: "us-east-1", Container: "bucket", Key: "a/b.zip"}
	c := storage.FileLocation{ContainerLocation: "us-east-1", Container: "bucket", Key: "A/B.zip"}
	d := storage.FileLocation{ContainerLocation: "us-east-1", Container: "bucket", Key: "a/c.zip"}

	require.True(t, a.Equal(b))
	require.True(t, a.Equal(c))
	require.True(t, c.Equal(a))
	require.False(t, a.Equal(d))
	require.Equal(t, "US-East-1/Bucket/a/b.zip", a.String())

	require.NoError(t, a.Validate())
	require.Error(t, storage.FileLocation{Container: "c", Key: "k"}.Validate())
	require.Error(t, storage.FileLocation{ContainerLocation: "l", Key: "k"}.Validate())
	require.Error(t, storage.FileLocation{ContainerLocation: "l", Container: "c"}.Validate())
}

func TestSortedKeys(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, storage.SortedKeys([]storage.ObjectInfo{{Key: "c"}, {Key: "a"}, {Key: "b"}}))
	require.Empty(t, storage.SortedKeys(nil))
}
