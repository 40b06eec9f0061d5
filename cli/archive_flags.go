package cli

import (
	"github.com/alecthomas/kingpin/v2"

	"github.com/kopia/filejanitor/archive"
	"github.com/kopia/filejanitor/exchange"
)

type archiveFlags struct {
	archiveKind          string
	compressionKind      string
	includeBaseDirectory bool
	entryEncoding        string
}

func (c *archiveFlags) setup(cmd *kingpin.CmdClause) {
	cmd.Flag("archive-kind", "Archive format").Default(archive.ZipFile.String()).EnumVar(&c.archiveKind, archive.ArchiveKindNames()...)
	cmd.Flag("compression-kind", "Compression effort").Default(archive.CompressionSmallest.String()).EnumVar(&c.compressionKind, archive.CompressionKindNames()...)
	cmd.Flag("include-base-directory", "Store entries under the name of the archived directory").Default("true").BoolVar(&c.includeBaseDirectory)
	cmd.Flag("entry-encoding", "Encoding of entry names, e.g. utf-8 or windows-1252").Default(archive.DefaultEntryNameEncoding).StringVar(&c.entryEncoding)
}

func (c *archiveFlags) storeDirectoryOptions() (exchange.StoreDirectoryOptions, error) {
	kind, err := archive.ParseArchiveKind(c.archiveKind)
	if err != nil {
		return exchange.StoreDirectoryOptions{}, err
	}

	compression, err := archive.ParseCompressionKind(c.compressionKind)
	if err != nil {
		return exchange.StoreDirectoryOptions{}, err
	}

	return exchange.StoreDirectoryOptions{
		ArchiveKind:          kind,
		CompressionKind:      compression,
		IncludeBaseDirectory: c.includeBaseDirectory,
		EntryNameEncoding:    c.entryEncoding,
	}, nil
}
