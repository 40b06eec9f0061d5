package archive_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/archive"
)

func TestNewArchivedDirectoryRejectsInvalid(t *testing.T) {
	_, err := archive.NewArchivedDirectory(archive.ArchiveKindInvalid, archive.CompressionNone, "a", true, "", time.Time{})
	require.ErrorIs(t, err, archive.ErrInvalidKind)
	require.Contains(t, err.Error(), "archive kind")

	_, err = archive.NewArchivedDirectory(archive.ZipFile, archive.CompressionKindInvalid, "a", true, "", time.Time{})
	require.ErrorIs(t, err, archive.ErrInvalidKind)
	require.Contains(t, err.Error(), "compression kind")

	_, err = archive.NewArchivedDirectory(archive.ArchiveKind(42), archive.CompressionNone, "a", true, "", time.Time{})
	require.ErrorIs(t, err, archive.ErrUnsupportedKind)
	require.Contains(t, err.Error(), "ArchiveKind(42)")

	_, err = archive.NewArchivedDirectory(archive.ZipFile, archive.CompressionNone, "", true, "", time.Time{})
	require.ErrorIs(t, err, archive.ErrInvalidArgument)

	_, err = archive.NewArchivedDirectory(archive.ZipFile, archive.CompressionNone, "a", true, "no-such-encoding", time.Time{})
	require.ErrorIs(t, err, archive.ErrUnknownEncoding)
	require.Contains(t, err.Error(), "no-such-encoding")
}

func TestArchivedDirectoryEqual(t *testing.T) {
	ts := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	a, err := archive.NewArchivedDirectory(archive.ZipFile, archive.CompressionNone, "/Tmp/A.zip", true, "utf-8", ts)
	require.NoError(t, err)

	b := *a
	b.ArchiveFilePath = "/tmp/a.ZIP"
	b.EntryNameEncoding = "UTF-8"
	b.ArchivedAt = ts.In(time.FixedZone("X", 7200))

	require.True(t, a.Equal(&b))

	c := b
	c.IncludeBaseDirectory = false
	require.False(t, a.Equal(&c))

	d := b
	d.ArchivedAt = ts.Add(time.Nanosecond)
	require.False(t, a.Equal(&d))

	require.False(t, a.Equal(nil))
	require.True(t, (*archive.ArchivedDirectory)(nil).Equal(nil))

	e := a.WithArchiveFilePath("/other.zip")
	require.Equal(t, "/other.zip", e.ArchiveFilePath)
	require.Equal(t, "/Tmp/A.zip", a.ArchiveFilePath)
}

func TestKindParsing(t *testing.T) {
	for _, n := range archive.ArchiveKindNames() {
		k, err := archive.ParseArchiveKind(n)
		require.NoError(t, err)
		require.Equal(t, n, k.String())
	}

	for _, n := range archive.CompressionKindNames() {
		k, err := archive.ParseCompressionKind(n)
		require.NoError(t, err)
		require.Equal(t, n, k.String())
	}

	k, err := archive.ParseArchiveKind("DotNetZipFile")
	require.NoError(t, err)
	require.Equal(t, archive.ZipFile, k)

	_, err = archive.ParseArchiveKind("rar")
	require.ErrorIs(t, err, archive.ErrUnsupportedKind)
	require.Contains(t, err.Error(), "rar")

	_, err = archive.ParseCompressionKind("invalid")
	require.ErrorIs(t, err, archive.ErrInvalidKind)
}

func TestKindTextMarshaling(t *testing.T) {
	b, err := archive.TarGzip.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "TarGzip", string(b))

	var k archive.CompressionKind
	require.NoError(t, k.UnmarshalText([]byte("smallest")))
	require.Equal(t, archive.CompressionSmallest, k)
	require.Error(t, k.UnmarshalText([]byte("huge")))
}
