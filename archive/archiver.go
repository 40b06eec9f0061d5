// Package archive converts directories to and from single-file archives.
//
// Every archive operation produces an ArchivedDirectory describing what was actually done.
// The descriptor survives remote storage only as metadata (see ToMetadata and FromMetadata),
// and restoring an archive is driven entirely by it.
package archive

import (
	"context"

	"github.com/kopia/filejanitor/logging"
)

var log = logging.Module("archive")

// ArchiveOptions controls how a directory is archived.
type ArchiveOptions struct {
	IncludeBaseDirectory bool   `json:"includeBaseDirectory"`
	EntryNameEncoding    string `json:"entryNameEncoding"`
}

// DefaultArchiveOptions returns options that include the base directory and use UTF-8 entry names.
func DefaultArchiveOptions() ArchiveOptions {
	return ArchiveOptions{
		IncludeBaseDirectory: true,
		EntryNameEncoding:    DefaultEntryNameEncoding,
	}
}

// Archiver converts a directory to a single archive file and back.
type Archiver interface {
	Kind() ArchiveKind
	CompressionKind() CompressionKind

	// ArchiveDirectory archives sourcePath into a new file at targetFilePath, which must not exist.
	ArchiveDirectory(ctx context.Context, sourcePath, targetFilePath string, opt ArchiveOptions) (*ArchivedDirectory, error)

	// RestoreDirectory extracts the described archive into targetPath, which must not exist.
	RestoreDirectory(ctx context.Context, ad *ArchivedDirectory, targetPath string) error
}
