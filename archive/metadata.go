package archive

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/metadata"
)

// Metadata keys that describe an archived directory in remote storage. The names are part
// of the storage contract and must not change.
const (
	MetadataKeyArchiveKind          = "DirectoryArchiveKind"
	MetadataKeyCompressionKind      = "ArchiveCompressionKind"
	MetadataKeyIncludeBaseDirectory = "IncludeBaseDirectory"
	MetadataKeyEntryNameEncoding    = "EntryNameEncodingWebName"
	MetadataKeyArchivedAt           = "ArchivedDateTimeUtc"
)

// MetadataTimeFormat is the layout used to store archive timestamps.
const MetadataTimeFormat = time.RFC3339Nano

// MetadataKeys returns all keys written by ToMetadata.
func MetadataKeys() []string {
	return []string{
		MetadataKeyArchiveKind,
		MetadataKeyCompressionKind,
		MetadataKeyIncludeBaseDirectory,
		MetadataKeyEntryNameEncoding,
		MetadataKeyArchivedAt,
	}
}

// ToMetadata returns the metadata projection of the descriptor. The archive file path is
// not included since it is local to the process that created the archive.
func (ad *ArchivedDirectory) ToMetadata() metadata.Items {
	return metadata.Items{
		{Key: MetadataKeyArchiveKind, Value: ad.ArchiveKind.String()},
		{Key: MetadataKeyCompressionKind, Value: ad.CompressionKind.String()},
		{Key: MetadataKeyIncludeBaseDirectory, Value: strconv.FormatBool(ad.IncludeBaseDirectory)},
		{Key: MetadataKeyEntryNameEncoding, Value: ad.EntryNameEncoding},
		{Key: MetadataKeyArchivedAt, Value: ad.ArchivedAt.UTC().Format(MetadataTimeFormat)},
	}
}

// FromMetadata reconstructs a descriptor from its metadata projection. All keys are required
// and are matched ignoring case.
func FromMetadata(items metadata.Items, archiveFilePath string) (*ArchivedDirectory, error) {
	typeName := fmt.Sprintf("%T", ArchivedDirectory{})

	values := map[string]string{}

	for _, k := range MetadataKeys() {
		v, ok := items.Get(k)
		if !ok {
			return nil, errors.Wrapf(ErrMissingMetadata, "metadata is missing value for %v, unable to reconstruct %v", k, typeName)
		}

		values[k] = strings.TrimSpace(v)
	}

	kind, err := ParseArchiveKind(values[MetadataKeyArchiveKind])
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %v", MetadataKeyArchiveKind)
	}

	compression, err := ParseCompressionKind(values[MetadataKeyCompressionKind])
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %v", MetadataKeyCompressionKind)
	}

	includeBase, err := strconv.ParseBool(strings.ToLower(values[MetadataKeyIncludeBaseDirectory]))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidMetadata, "%v: %q", MetadataKeyIncludeBaseDirectory, values[MetadataKeyIncludeBaseDirectory])
	}

	archivedAt, err := time.Parse(MetadataTimeFormat, values[MetadataKeyArchivedAt])
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidMetadata, "%v: %q", MetadataKeyArchivedAt, values[MetadataKeyArchivedAt])
	}

	if archivedAt.IsZero() {
		return nil, errors.Wrapf(ErrInvalidMetadata, "%v must not be zero", MetadataKeyArchivedAt)
	}

	return NewArchivedDirectory(kind, compression, archiveFilePath, includeBase, values[MetadataKeyEntryNameEncoding], archivedAt)
}

// FromMetadataMap is like FromMetadata but accepts a map.
func FromMetadataMap(m map[string]string, archiveFilePath string) (*ArchivedDirectory, error) {
	return FromMetadata(metadata.FromMap(m), archiveFilePath)
}
