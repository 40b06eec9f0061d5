package archive_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kopia/filejanitor/archive"
	"github.com/kopia/filejanitor/metadata"
)

func TestMetadataRoundTrip(t *testing.T) {
	archivedAt := time.Date(2023, 11, 5, 17, 4, 5, 123456789, time.UTC)

	for _, kind := range []archive.ArchiveKind{archive.ZipFile, archive.TarGzip} {
		for _, compression := range archive.AllCompressionKinds() {
			for _, includeBase := range []bool{true, false} {
				for _, enc := range []string{"utf-8", "windows-1252", "shift_jis"} {
					ad, err := archive.NewArchivedDirectory(kind, compression, "/tmp/a.zip", includeBase, enc, archivedAt)
					require.NoError(t, err)

					md := ad.ToMetadata()
					require.Equal(t, archive.MetadataKeys(), md.Keys())

					back, err := archive.FromMetadata(md, "/tmp/a.zip")
					require.NoError(t, err)
					require.True(t, ad.Equal(back), "%+v != %+v", ad, back)
				}
			}
		}
	}
}

func TestMetadataRoundTripDefaultTimestamp(t *testing.T) {
	ad, err := archive.NewArchivedDirectory(archive.ZipFile, archive.CompressionFastest, "a.zip", true, "", time.Time{})
	require.NoError(t, err)
	require.False(t, ad.ArchivedAt.IsZero())
	require.Equal(t, time.UTC, ad.ArchivedAt.Location())
	require.Equal(t, "utf-8", ad.EntryNameEncoding)

	back, err := archive.FromMetadata(ad.ToMetadata(), "a.zip")
	require.NoError(t, err)
	require.True(t, ad.Equal(back))
}

func TestMetadataValues(t *testing.T) {
	ad, err := archive.NewArchivedDirectory(archive.ZipFile, archive.CompressionSmallest, "a.zip", true, "UTF8",
		time.Date(2020, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)))
	require.NoError(t, err)

	require.Equal(t, metadata.Items{
		{Key: "DirectoryArchiveKind", Value: "ZipFile"},
		{Key: "ArchiveCompressionKind", Value: "Smallest"},
		{Key: "IncludeBaseDirectory", Value: "true"},
		{Key: "EntryNameEncodingWebName", Value: "utf-8"},
		{Key: "ArchivedDateTimeUtc", Value: "2020-01-02T02:04:05Z"},
	}, ad.ToMetadata())
}

func TestFromMetadataIgnoresCase(t *testing.T) {
	// remote stores canonicalize header names and values.
	ad, err := archive.FromMetadataMap(map[string]string{
		"Directoryarchivekind":     "dotnetzipfile",
		"ARCHIVECOMPRESSIONKIND":   "fastest",
		"includebasedirectory":     "TRUE",
		"Entrynameencodingwebname": "UTF-8",
		"Archiveddatetimeutc":      "2020-01-02T03:04:05.5Z",
		"Other":                    "ignored",
	}, "x.zip")
	require.NoError(t, err)

	require.Equal(t, archive.ZipFile, ad.ArchiveKind)
	require.Equal(t, archive.CompressionFastest, ad.CompressionKind)
	require.True(t, ad.IncludeBaseDirectory)
	require.Equal(t, "utf-8", ad.EntryNameEncoding)
	require.Equal(t, time.Date(2020, 1, 2, 3, 4, 5, 500000000, time.UTC), ad.ArchivedAt)
	require.Equal(t, "x.zip", ad.ArchiveFilePath)
}

func TestFromMetadataMissingKey(t *testing.T) {
	ad, err := archive.NewArchivedDirectory(archive.TarGzip, archive.CompressionNone, "a.tgz", false, "", time.Time{})
	require.NoError(t, err)

	full := ad.ToMetadata()

	for i, key := range archive.MetadataKeys() {
		items := append(metadata.Items{}, full[:i]...)
		items = append(items, full[i+1:]...)

		_, err := archive.FromMetadata(items, "a.tgz")
		require.ErrorIs(t, err, archive.ErrMissingMetadata)
		require.Contains(t, err.Error(), key)
		require.Contains(t, err.Error(), "ArchivedDirectory")
	}
}

func TestFromMetadataInvalidValues(t *testing.T) {
	valid := map[string]string{
		"DirectoryArchiveKind":     "ZipFile",
		"ArchiveCompressionKind":   "None",
		"IncludeBaseDirectory":     "false",
		"EntryNameEncodingWebName": "utf-8",
		"ArchivedDateTimeUtc":      "2020-01-02T03:04:05Z",
	}

	cases := map[string]struct {
		value   string
		wantErr error
	}{
		"DirectoryArchiveKind":     {"Invalid", archive.ErrInvalidKind},
		"ArchiveCompressionKind":   {"Maximum", archive.ErrUnsupportedKind},
		"IncludeBaseDirectory":     {"maybe", archive.ErrInvalidMetadata},
		"EntryNameEncodingWebName": {"klingon", archive.ErrUnknownEncoding},
		"ArchivedDateTimeUtc":      {"01/02/2020", archive.ErrInvalidMetadata},
	}

	for key, tc := range cases {
		m := map[string]string{}
		for k, v := range valid {
			m[k] = v
		}

		m[key] = tc.value

		_, err := archive.FromMetadataMap(m, "a.zip")
		require.ErrorIs(t, err, tc.wantErr, key)
	}
}
