package archive

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/internal/clock"
)

// ArchivedDirectory describes a directory archived into a single file and carries
// everything needed to restore it.
type ArchivedDirectory struct {
	ArchiveKind          ArchiveKind     `json:"directoryArchiveKind"`
	CompressionKind      CompressionKind `json:"archiveCompressionKind"`
	ArchiveFilePath      string          `json:"archiveFilePath"`
	IncludeBaseDirectory bool            `json:"includeBaseDirectory"`
	EntryNameEncoding    string          `json:"entryNameEncodingWebName"`
	ArchivedAt           time.Time       `json:"archivedDateTimeUtc"`
}

// NewArchivedDirectory returns a validated ArchivedDirectory. An empty encoding defaults to UTF-8
// and a zero timestamp defaults to the current time.
func NewArchivedDirectory(
	kind ArchiveKind,
	compression CompressionKind,
	archiveFilePath string,
	includeBaseDirectory bool,
	entryNameEncoding string,
	archivedAt time.Time,
) (*ArchivedDirectory, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	if err := compression.Validate(); err != nil {
		return nil, err
	}

	if archiveFilePath == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "archive file path must be provided")
	}

	_, canonical, err := ResolveEncoding(entryNameEncoding)
	if err != nil {
		return nil, err
	}

	if archivedAt.IsZero() {
		archivedAt = clock.NowUTC()
	}

	return &ArchivedDirectory{
		ArchiveKind:          kind,
		CompressionKind:      compression,
		ArchiveFilePath:      archiveFilePath,
		IncludeBaseDirectory: includeBaseDirectory,
		EntryNameEncoding:    canonical,
		ArchivedAt:           archivedAt.UTC().Round(0),
	}, nil
}

// Validate checks the invariants of the descriptor.
func (ad *ArchivedDirectory) Validate() error {
	if ad == nil {
		return errors.Wrap(ErrInvalidArgument, "archived directory must be provided")
	}

	_, err := NewArchivedDirectory(ad.ArchiveKind, ad.CompressionKind, ad.ArchiveFilePath, ad.IncludeBaseDirectory, ad.EntryNameEncoding, ad.ArchivedAt)

	return err
}

// Equal determines whether two descriptors are equal. Strings are compared ignoring case.
func (ad *ArchivedDirectory) Equal(other *ArchivedDirectory) bool {
	if ad == nil || other == nil {
		return ad == other
	}

	return ad.ArchiveKind == other.ArchiveKind &&
		ad.CompressionKind == other.CompressionKind &&
		strings.EqualFold(ad.ArchiveFilePath, other.ArchiveFilePath) &&
		ad.IncludeBaseDirectory == other.IncludeBaseDirectory &&
		strings.EqualFold(ad.EntryNameEncoding, other.EntryNameEncoding) &&
		ad.ArchivedAt.Equal(other.ArchivedAt)
}

// WithArchiveFilePath returns a copy of the descriptor pointing at a different archive file.
func (ad *ArchivedDirectory) WithArchiveFilePath(p string) *ArchivedDirectory {
	c := *ad
	c.ArchiveFilePath = p

	return &c
}
