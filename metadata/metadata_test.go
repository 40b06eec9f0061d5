package metadata_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/metadata"
)

func TestToMapFromMap(t *testing.T) {
	items := metadata.Items{
		{Key: "b", Value: "2"},
		{Key: "a", Value: "1"},
		{Key: "c", Value: ""},
	}

	m, err := items.ToMap()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "2", "c": ""}, m)

	back := metadata.FromMap(m)
	if diff := cmp.Diff(metadata.Items{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "2"},
		{Key: "c", Value: ""},
	}, back); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}

func TestToMapDuplicateKeys(t *testing.T) {
	_, err := metadata.Items{
		{Key: "Owner", Value: "1"},
		{Key: "owner", Value: "2"},
	}.ToMap()

	require.ErrorIs(t, err, metadata.ErrDuplicateKey)
	require.Contains(t, err.Error(), "owner")
}

func TestGetIgnoresCase(t *testing.T) {
	items := metadata.Items{{Key: "Directoryarchivekind", Value: "ZipFile"}}

	v, ok := items.Get("DirectoryArchiveKind")
	require.True(t, ok)
	require.Equal(t, "ZipFile", v)

	_, ok = items.Get("missing")
	require.False(t, ok)
}

func TestAppend(t *testing.T) {
	base := metadata.Items{{Key: "a", Value: "1"}}

	got, err := base.Append(metadata.Item{Key: "b", Value: "2"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, got.Keys())
	require.Len(t, base, 1)

	_, err = base.Append(metadata.Item{Key: "A", Value: "2"})
	require.ErrorIs(t, err, metadata.ErrDuplicateKey)
}

func TestItemEqual(t *testing.T) {
	require.True(t, metadata.Item{Key: "Key", Value: "VALUE"}.Equal(metadata.Item{Key: "key", Value: "value"}))
	require.False(t, metadata.Item{Key: "key", Value: "v1"}.Equal(metadata.Item{Key: "key", Value: "v2"}))

	require.True(t, metadata.Items{{Key: "a", Value: "b"}}.Equal(metadata.Items{{Key: "A", Value: "B"}}))
	require.False(t, metadata.Items{{Key: "a", Value: "b"}}.Equal(nil))
}

func TestParseKeyValues(t *testing.T) {
	items, err := metadata.ParseKeyValues([]string{"a=1", "b=x=y", "c="})
	require.NoError(t, err)
	require.Equal(t, metadata.Items{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "x=y"},
		{Key: "c", Value: ""},
	}, items)

	_, err = metadata.ParseKeyValues([]string{"novalue"})
	require.Error(t, err)

	_, err = metadata.ParseKeyValues([]string{"=v"})
	require.Error(t, err)

	_, err = metadata.ParseKeyValues([]string{"a=1", "A=2"})
	require.ErrorIs(t, err, metadata.ErrDuplicateKey)
}
